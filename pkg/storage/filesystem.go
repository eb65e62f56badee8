package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrInvalidName is returned for names that are empty or escape the base directory.
var ErrInvalidName = errors.New("invalid file name")

// FileInfo describes one stored file.
type FileInfo struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Dir returns the base directory.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// Resolve maps a bare file name to its path under the base directory.
func (s *LocalStorage) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.baseDir, name), nil
}

// Save writes data to name under the base dir and returns the full path.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// SaveStream copies from r into name and returns the full path.
func (s *LocalStorage) SaveStream(name string, r io.Reader) (path string, err error) {
	path, err = s.Resolve(name)
	if err != nil {
		return "", err
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close file: %w", cerr)
		}
	}()
	if _, err = io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write stream: %w", err)
	}
	if err = file.Sync(); err != nil {
		return "", fmt.Errorf("sync file: %w", err)
	}
	return path, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.Resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// List returns files matching the glob pattern, newest first.
func (s *LocalStorage) List(pattern string) ([]FileInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files := make([]FileInfo, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{Name: info.Name(), Path: path, Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// CleanupOlderThan removes files older than ttl and returns the deleted names.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("cleanup files: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("cleanup files: %w", err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("cleanup files: %w", err)
		}
		deleted = append(deleted, entry.Name())
	}
	return deleted, nil
}
