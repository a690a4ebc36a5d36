package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// DiskWriter persists snapshots as JSON files in a local directory.
type DiskWriter struct {
	dir string
}

// NewDiskWriter creates a disk-backed snapshot writer rooted at dir.
func NewDiskWriter(dir string) (*DiskWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskWriter{dir: dir}, nil
}

// Write stores the snapshot and returns the file path. The file is
// written via a temp name and renamed, so readers never see a partial
// snapshot.
func (w *DiskWriter) Write(ctx context.Context, snap *ProjectSnapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, filename(snap))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}
