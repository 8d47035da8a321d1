package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists resume cursors as single-line text files, one per source
// key. The scraper runner writes Cronicle job end times into the same files,
// so the on-disk format is shared: a bare cursor string, nothing else.
type Store struct {
	dir string
}

// NewStore creates a checkpoint store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Read returns the cursor stored for key. A missing file is not an error:
// it means the source has never been scraped, and the zero value is
// returned.
func (s *Store) Read(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write replaces the cursor stored for key. The file is overwritten in
// place; a crash mid-write can leave it truncated, in which case the next
// run re-scrapes from the beginning.
func (s *Store) Write(key, cursor string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if err := os.WriteFile(s.path(key), []byte(cursor), 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

func (s *Store) path(key string) string {
	// Project paths contain slashes, which cannot appear in a file name.
	name := strings.ReplaceAll(key, "/", "-")
	return filepath.Join(s.dir, name+".txt")
}
