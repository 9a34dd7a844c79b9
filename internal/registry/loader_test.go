package registry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const packAction = `name: pack.echo
description: echo something
enabled: true
entry_point: /usr/bin/echo
runner_type: shell
parameters:
  message:
    type: string
    required: true
`

func TestPackLoader_Load(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "echo.yaml"), []byte(packAction), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(":\tnot yaml"), 0o644))

	store := NewMemoryActions()
	loader := NewPackLoader(dir, store, slog.New(slog.DiscardHandler))

	require.NoError(t, loader.Load(context.Background()))

	action, err := store.GetByName(context.Background(), "pack.echo")
	require.NoError(t, err)
	assert.Equal(t, "shell", action.RunnerType)
	assert.True(t, action.Parameters["message"].Required)

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1, "broken and non-YAML files must be skipped")
}

func TestPackLoader_ReloadReplacesAction(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(packAction), 0o644))

	store := NewMemoryActions()
	loader := NewPackLoader(dir, store, slog.New(slog.DiscardHandler))
	require.NoError(t, loader.Load(ctx))

	// Same file, changed definition: the old registration must be replaced,
	// not duplicated.
	require.NoError(t, loader.loadFile(ctx, path))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPackLoader_RemoveFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(packAction), 0o644))

	store := NewMemoryActions()
	loader := NewPackLoader(dir, store, slog.New(slog.DiscardHandler))
	require.NoError(t, loader.Load(ctx))

	loader.removeFile(ctx, path)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
