package store

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// File is a filesystem-backed Blob store. Each named cache lives in one
// file under the configured directory.
type File struct {
	dir string
	ext string
}

// NewFile creates a file-backed blob store rooted at dir. The directory is
// created if it does not exist and must be writable.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := verifyWritable(dir); err != nil {
		return nil, err
	}
	return &File{dir: dir, ext: ".cache"}, nil
}

func verifyWritable(dir string) error {
	probe := filepath.Join(dir, ".write_probe")
	f, err := os.OpenFile(probe, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("cache directory not writable: %w", err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}

// path escapes name so arbitrary cache names cannot traverse outside dir.
func (f *File) path(name string) string {
	return filepath.Join(f.dir, url.PathEscape(name)+f.ext)
}

// Load implements Blob.
func (f *File) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache file %s: %w", name, err)
	}
	return data, nil
}

// Save implements Blob. The write goes through a temp file and rename so a
// crash mid-write never leaves a torn blob behind.
func (f *File) Save(name string, data []byte) error {
	path := f.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache file %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename cache file %s: %w", name, err)
	}
	return nil
}
