package local_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/storage"
	"github.com/JakeFAU/bible-atlas-api/internal/storage/local"
)

func TestNewRejectsUnusableDirs(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	cases := map[string]string{
		"blank":     "  ",
		"is a file": file,
	}
	for name, dir := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := local.New(local.Config{BaseDir: dir})
			require.Error(t, err)
		})
	}
}

func TestNewCreatesMissingDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "data", "scrapes")

	_, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestNewReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	// #nosec G302 -- read-only directory under test.
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	_, err := local.New(local.Config{BaseDir: dir})
	require.Error(t, err)
}

func TestScrapeFileRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	blobs, err := local.New(local.Config{BaseDir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	path := "places-data/1700000000000&page=0&limit=20.json"
	body := []byte(`{"data":[],"relations":[],"total":0}`)
	uri, err := blobs.PutObject(ctx, path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, "file://"+filepath.Join(dir, path), uri)

	// #nosec G304 -- reads back from the test's temp dir.
	onDisk, err := os.ReadFile(filepath.Join(dir, path))
	require.NoError(t, err)
	require.Equal(t, body, onDisk)

	_, err = blobs.PutObject(ctx, "", "application/json", bytes.NewReader(body))
	require.Error(t, err)
}

func TestGetAndListObjects(t *testing.T) {
	t.Parallel()

	blobs, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	ctx := context.Background()

	for _, p := range []string{"ai-places-data/b.json", "ai-places-data/a.json", "places-data/c.json"} {
		_, err := blobs.PutObject(ctx, p, "application/json", bytes.NewReader([]byte(p)))
		require.NoError(t, err)
	}

	paths, err := blobs.ListObjects(ctx, "ai-places-data/")
	require.NoError(t, err)
	require.Equal(t, []string{"ai-places-data/a.json", "ai-places-data/b.json"}, paths)

	data, err := blobs.GetObject(ctx, "places-data/c.json")
	require.NoError(t, err)
	require.Equal(t, "places-data/c.json", string(data))

	_, err = blobs.GetObject(ctx, "places-data/missing.json")
	require.ErrorIs(t, err, storage.ErrObjectNotFound)

	_, err = blobs.GetObject(ctx, "../escape.json")
	require.Error(t, err)
}
