package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/triplake/triplake/internal/decode"
	terrors "github.com/triplake/triplake/internal/errors"
)

// LocalSource serves files from a directory on the local filesystem, the
// drop directory in single-host deployments.
type LocalSource struct {
	dir string
}

// NewLocalSource creates a LocalSource rooted at dir.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

// List returns the data files in the drop directory, sorted by name so that
// ingestion order is stable across runs.
func (l *LocalSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, terrors.NewTransportError(terrors.CodeListFailed, "failed to read drop directory", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if format, _ := decode.DetectFormat(entry.Name()); format == decode.FormatUnknown {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

// Download copies the named file into localPath.
func (l *LocalSource) Download(ctx context.Context, name, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(filepath.Join(l.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return terrors.NewTransportError(terrors.CodeFileNotFound, "source file not found", err)
		}
		return terrors.NewTransportError(terrors.CodeDownloadFailed, "failed to open source file", err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return terrors.NewTransportError(terrors.CodeDownloadFailed, "failed to create local file", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(localPath)
		return terrors.NewTransportError(terrors.CodeDownloadFailed, "failed to copy source file", err)
	}

	return dst.Close()
}
