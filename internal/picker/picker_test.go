package picker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}
}

func TestOpenListsImagesOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t, dir, "cat.png", "dog.JPG", "notes.txt", ".hidden.png", "b.webp")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	d, err := Open(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"b.webp", "cat.png", "dog.JPG"}, d.Files())
}

func TestSuggest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t, dir, "cat.png", "catalog.png", "chat.jpg", "dog.png", "doge.gif", "zebra.bmp")
	d, err := Open(dir)
	require.NoError(t, err)

	// prefix matches first, then near misses by edit distance
	require.Equal(t, []string{"cat.png", "catalog.png", "chat.jpg"}, d.Suggest("cat", 0))
	require.Equal(t, []string{"dog.png", "doge.gif"}, d.Suggest("dog", 2))
	// typo: no prefix match, edit distance picks the stem
	require.Equal(t, "chat.jpg", d.Suggest("chta.jpg", 1)[0])
	require.Empty(t, d.Suggest("xylophone", 0))
	require.Len(t, d.Suggest("", 3), 3)
	// directories in the input are ignored for ranking
	require.Equal(t, "zebra.bmp", d.Suggest("some/dir/zeb", 1)[0])
}

func TestResolve(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d, err := Open(dir)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(d.Root(), "a.png"), d.Resolve(" a.png "))
	require.Equal(t, "/abs/b.png", d.Resolve("/abs/b.png"))
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	d, err := Open(dir)
	require.NoError(t, err)
	require.Empty(t, d.Files())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, d.Watch(ctx))
	t.Cleanup(func() { _ = d.Close() })

	touch(t, dir, "fresh.png", "ignored.txt")

	select {
	case <-d.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	require.Equal(t, []string{"fresh.png"}, d.Files())
}
