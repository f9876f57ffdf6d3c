package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gigaspace-pagegen/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("CreatesMissingDir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "dist")
		_, err := local.New(local.Config{BaseDir: dir})
		require.NoError(t, err)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: file})
		assert.Error(t, err)
	})
}

func TestWritePage(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("CreatesDirectories", func(t *testing.T) {
		path := "dashboard/characters/chat/42/index.html"
		uri, err := store.WritePage(ctx, path, []byte("<html></html>"))
		require.NoError(t, err)

		want := filepath.Join(dir, "dashboard", "characters", "chat", "42", "index.html")
		assert.Equal(t, "file://"+want, uri)
		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.Equal(t, "<html></html>", string(got))
	})

	t.Run("Overwrites", func(t *testing.T) {
		path := "dashboard/x/index.html"
		_, err := store.WritePage(ctx, path, []byte("one"))
		require.NoError(t, err)
		_, err = store.WritePage(ctx, path, []byte("two"))
		require.NoError(t, err)
		// #nosec G304 -- test reads from the controlled temp directory.
		got, err := os.ReadFile(filepath.Join(dir, "dashboard", "x", "index.html"))
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.WritePage(ctx, " ", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		_, err := store.WritePage(ctx, "../escape.html", []byte("x"))
		assert.ErrorContains(t, err, "path traversal")
	})
}

func TestWritePageRelativeBaseDir(t *testing.T) {
	tests := []struct {
		name    string
		baseDir string
		wantDir string
	}{
		{name: "Dot", baseDir: ".", wantDir: ""},
		{name: "DotSlash", baseDir: "./", wantDir: ""},
		{name: "Nested", baseDir: "./out", wantDir: "out"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wd := t.TempDir()
			t.Chdir(wd)

			store, err := local.New(local.Config{BaseDir: tc.baseDir})
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(store.BaseDir()))

			ctx := context.Background()
			_, err = store.WritePage(ctx, "dashboard/characters/chat/1/index.html", []byte("page"))
			require.NoError(t, err)
			assert.FileExists(t, filepath.Join(wd, tc.wantDir, "dashboard", "characters", "chat", "1", "index.html"))

			require.NoError(t, store.Clean(ctx, "dashboard"))
			assert.NoDirExists(t, filepath.Join(wd, tc.wantDir, "dashboard"))

			_, err = store.WritePage(ctx, "../escape.html", []byte("x"))
			assert.ErrorContains(t, err, "path traversal")
		})
	}
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.WritePage(ctx, "dashboard/a/index.html", []byte("a"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("keep"), 0o600))

	require.NoError(t, store.Clean(ctx, "dashboard"))
	_, err = os.Stat(filepath.Join(dir, "dashboard"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "index.html"))
	assert.NoError(t, err)

	require.NoError(t, store.Clean(ctx, "dashboard"), "missing prefix is not an error")
	assert.Error(t, store.Clean(ctx, ".."))
	assert.Error(t, store.Clean(ctx, "."), "the base directory itself is never removed")
}
