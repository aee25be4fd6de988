package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	terrors "github.com/triplake/triplake/internal/errors"
)

func TestLocalSource_ListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.ndjson", "notes.txt", "c.csv.snappy"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.csv"), 0o755))

	names, err := NewLocalSource(dir).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ndjson", "b.csv", "c.csv.snappy"}, names)
}

func TestLocalSource_Download(t *testing.T) {
	dropDir := t.TempDir()
	rawDir := t.TempDir()
	content := []byte("vendor_id,trip_distance\n2,1.5\n")
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "trips.csv"), content, 0o644))

	src := NewLocalSource(dropDir)
	local := filepath.Join(rawDir, "trips.csv")
	require.NoError(t, src.Download(context.Background(), "trips.csv", local))

	got, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalSource_DownloadMissingFile(t *testing.T) {
	src := NewLocalSource(t.TempDir())
	err := src.Download(context.Background(), "absent.csv", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Equal(t, terrors.CodeFileNotFound, terrors.GetCode(err))
}

func TestLocalSource_ListMissingDirectory(t *testing.T) {
	_, err := NewLocalSource(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	require.Error(t, err)
	assert.Equal(t, terrors.CodeListFailed, terrors.GetCode(err))
}
