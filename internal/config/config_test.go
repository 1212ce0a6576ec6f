package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "Sheet1!A:D", cfg.Sheet.Range)
	assert.Equal(t, "me", cfg.Gmail.User)
	assert.Equal(t, "@every 5m", cfg.Watch.Schedule)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, filepath.Join("credentials", "credentials.json"), cfg.Auth.Credentials)
	assert.Error(t, cfg.Validate(), "sheet.id has no default")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "sheet:\n  id: from-file\n  range: Mail!A:D\ngmail:\n  max_results: 25\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mailsheets.yaml"), []byte(yaml), 0o644))
	t.Setenv("MAILSHEETS_SHEET_ID", "from-env")

	cfg, err := Load(viper.New(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Sheet.ID)
	assert.Equal(t, "Mail!A:D", cfg.Sheet.Range)
	assert.Equal(t, 25, cfg.Gmail.MaxResults)
	assert.NoError(t, cfg.Validate())
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("sheet", "", "")
	require.NoError(t, fs.Parse([]string{"--sheet", "from-flag"}))

	v := viper.New()
	require.NoError(t, BindFlags(v, fs, map[string]string{
		"sheet.id":  "sheet",
		"log.level": "not-registered",
	}))

	cfg, err := Load(v, "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Sheet.ID)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Sheet: SheetConfig{ID: "x"}, Auth: AuthConfig{Credentials: "c.json"}}
	assert.NoError(t, cfg.Validate())

	cfg.Gmail.MaxResults = -1
	assert.Error(t, cfg.Validate())

	cfg.Gmail.MaxResults = 0
	cfg.Auth.Credentials = ""
	assert.Error(t, cfg.Validate())
}

func TestResolve(t *testing.T) {
	cfg := &Config{
		Auth:  AuthConfig{Credentials: "credentials/credentials.json", Token: "/abs/token.json"},
		State: StateConfig{Path: ""},
	}
	cfg.Resolve("/project")

	assert.Equal(t, "/project/credentials/credentials.json", cfg.Auth.Credentials)
	assert.Equal(t, "/abs/token.json", cfg.Auth.Token)
	assert.Equal(t, "", cfg.State.Path)
}
