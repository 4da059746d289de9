package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type osEntry struct {
	absPath string
	relPath string
	info    fs.FileInfo
}

func (e *osEntry) Path() string         { return e.absPath }
func (e *osEntry) RelativePath() string { return e.relPath }
func (e *osEntry) Info() FileInfo       { return e.info }

type osDirectory struct {
	absPath string
}

func (d *osDirectory) Path() string { return d.absPath }

func (d *osDirectory) Walk(fn func(Entry, error) error) error {
	return filepath.WalkDir(d.absPath, func(path string, de fs.DirEntry, walkErr error) (callbackErr error) {
		defer func() {
			if r := recover(); r != nil {
				callbackErr = fmt.Errorf("walk callback panicked at %s: %v", path, r)
			}
		}()

		if walkErr != nil {
			return fn(nil, walkErr)
		}

		info, err := de.Info()
		if err != nil {
			return fn(nil, fmt.Errorf("stat %s: %w", path, err))
		}

		relPath, err := filepath.Rel(d.absPath, path)
		if err != nil {
			return fn(nil, fmt.Errorf("failed to get relative path: %w", err))
		}

		return fn(&osEntry{absPath: path, relPath: filepath.ToSlash(relPath), info: info}, nil)
	})
}

// OSFileSystem implements FileSystemProvider for the OS filesystem.
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS filesystem provider.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (p *OSFileSystem) Open(path string) (Directory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &osDirectory{absPath: absPath}, nil
}

func (p *OSFileSystem) Stat(path string) (FileInfo, error) {
	return os.Stat(path)
}
