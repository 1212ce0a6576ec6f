package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureGitignore(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".gitignore")
	require.NoError(t, os.WriteFile(path, []byte("node_modules\ncredentials\n"), 0o644))

	ensureGitignore(root)
	ensureGitignore(root)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 1, strings.Count(content, ".mailsheets/"))
	assert.NotContains(t, content, "credentials/")
}

func TestFlagKeysAreRegistered(t *testing.T) {
	registered := map[string]bool{}
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		c.Flags().VisitAll(func(f *pflag.Flag) { registered[f.Name] = true })
		c.PersistentFlags().VisitAll(func(f *pflag.Flag) { registered[f.Name] = true })
	}
	for key, flag := range flagKeys {
		assert.True(t, registered[flag], "flag %q for %s is not registered", flag, key)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "ms version dev\n", out.String())
}
