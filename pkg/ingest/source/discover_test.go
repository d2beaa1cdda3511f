package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rverrors "github.com/fintech-reviews/revload/pkg/errors"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("review_id,bank\n"), 0o644))
	return path
}

func TestDiscoverFile(t *testing.T) {
	dir := t.TempDir()
	path := touch(t, dir, "custom.csv")

	got, err := Discover(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestDiscoverPrefersThemes(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "reviews.csv")
	touch(t, dir, "reviews_with_sentiment.csv")
	want := touch(t, dir, "reviews_with_themes.csv")

	got, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscoverFallsBackToSentiment(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "reviews.csv")
	want := touch(t, dir, "reviews_with_sentiment.csv")

	got, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscoverAnyCSV(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "zeta.csv")
	want := touch(t, dir, "alpha.csv")
	touch(t, dir, "notes.txt")

	got, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDiscoverEmptyDir(t *testing.T) {
	dir := t.TempDir()

	_, err := Discover(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rverrors.ErrNoInput))
}

func TestDiscoverMissingPath(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
