package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), StateDir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestCheckpointAbsent(t *testing.T) {
	d := openTemp(t)

	token, ok, err := d.Checkpoint(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "", token)
	assert.Equal(t, "", d.CheckpointUpdatedAt(context.Background()))
}

func TestCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := openTemp(t)

	require.NoError(t, d.SetCheckpoint(ctx, "1001"))
	require.NoError(t, d.SetCheckpoint(ctx, "1002"))

	token, ok, err := d.Checkpoint(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1002", token)
	assert.NotEmpty(t, d.CheckpointUpdatedAt(ctx))
}

func TestCheckpointSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.SetCheckpoint(ctx, "abc"))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()

	token, ok, err := d.Checkpoint(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
	assert.Equal(t, path, d.Path())
}
