// Package source abstracts where raw trip files are fetched from before
// ingestion. A source lists the files currently in its drop location and
// downloads them into the local raw directory; it never deletes anything, so
// re-running ingestion over the same drop is always safe.
package source

import "context"

// FileSource lists and fetches raw trip files.
// Implementations include the local drop directory and S3.
type FileSource interface {
	// List returns the names of the files currently available, relative
	// to the source's root. Only regular files with a recognizable data
	// extension are returned.
	List(ctx context.Context) ([]string, error)

	// Download fetches the named file into localPath, overwriting any
	// existing file there.
	Download(ctx context.Context, name, localPath string) error
}
