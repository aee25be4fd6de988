package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triplake/triplake/internal/load"
	"github.com/triplake/triplake/internal/observability"
	"github.com/triplake/triplake/internal/source"
	"github.com/triplake/triplake/internal/store"
)

func TestRunner_SweepsDropDirectory(t *testing.T) {
	dropDir := t.TempDir()
	rawDir := t.TempDir()

	csvA := tripCSVHeader + "2,2023-01-01 10:00:00,2023-01-01 10:20:00,1,2.1,10\n"
	csvB := tripCSVHeader + "1,2023-02-01 09:00:00,2023-02-01 09:30:00,2,4.0,18\n"
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "a.csv"), []byte(csvA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "b.csv"), []byte(csvB), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "ignore.txt"), []byte("junk"), 0o644))

	s, err := store.Open(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	defer s.Close()

	stats := observability.NewIngestStats()
	runner := NewRunner(source.NewLocalSource(dropDir), New(load.NewLoader(s), 0), stats, rawDir, 2)

	summaries, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "a.csv", summaries[0].File)
	assert.Equal(t, "b.csv", summaries[1].File)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	snap := stats.Snapshot()
	assert.Equal(t, int64(2), snap.FilesProcessed)
	assert.Equal(t, int64(2), snap.RowsStored)

	// Downloads land in the raw directory.
	_, err = os.Stat(filepath.Join(rawDir, "a.csv"))
	assert.NoError(t, err)
}

func TestRunner_EmptyDrop(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	defer s.Close()

	runner := NewRunner(source.NewLocalSource(t.TempDir()), New(load.NewLoader(s), 0), nil, t.TempDir(), 1)
	summaries, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestRunner_FileFailureIsIsolated(t *testing.T) {
	dropDir := t.TempDir()

	good := tripCSVHeader + "2,2023-01-01 10:00:00,2023-01-01 10:20:00,1,2.1,10\n"
	bad := tripCSVHeader + "2,2023-01-01 10:00:00\n"
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "bad.csv"), []byte(bad), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dropDir, "good.csv"), []byte(good), 0o644))

	s, err := store.Open(filepath.Join(t.TempDir(), "trips.db"))
	require.NoError(t, err)
	defer s.Close()

	stats := observability.NewIngestStats()
	runner := NewRunner(source.NewLocalSource(dropDir), New(load.NewLoader(s), 0), stats, t.TempDir(), 1)

	summaries, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.NotEmpty(t, summaries[0].Err)
	assert.Empty(t, summaries[1].Err)

	snap := stats.Snapshot()
	assert.Equal(t, int64(1), snap.FilesFailed)
	assert.Equal(t, int64(1), snap.RowsStored)
}
