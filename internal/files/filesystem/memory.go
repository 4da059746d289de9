package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type memoryFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

func (f *memoryFileInfo) Mode() fs.FileMode {
	if f.isDir {
		return 0755 | fs.ModeDir
	}
	return 0644
}

type memoryEntry struct {
	absPath string
	info    *memoryFileInfo
}

type memoryWalkEntry struct {
	*memoryEntry
	relPath string
}

func (e *memoryWalkEntry) Path() string         { return e.absPath }
func (e *memoryWalkEntry) RelativePath() string { return e.relPath }
func (e *memoryWalkEntry) Info() FileInfo       { return e.info }

type memoryDirectory struct {
	absPath string
	fs      *MemoryFileSystem
}

func (d *memoryDirectory) Path() string { return d.absPath }

func (d *memoryDirectory) Walk(fn func(Entry, error) error) error {
	entries := d.fs.entriesUnder(d.absPath)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].absPath < entries[j].absPath
	})

	var skipped []string
	for _, e := range entries {
		if underAny(e.absPath, skipped) {
			continue
		}

		rel := "."
		if e.absPath != d.absPath {
			rel = strings.TrimPrefix(e.absPath, strings.TrimSuffix(d.absPath, "/")+"/")
		}

		var callbackErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					callbackErr = fmt.Errorf("walk callback panicked at %s: %v", e.absPath, r)
				}
			}()
			callbackErr = fn(&memoryWalkEntry{memoryEntry: e, relPath: rel}, nil)
		}()

		switch {
		case errors.Is(callbackErr, fs.SkipDir):
			if e.info.isDir {
				skipped = append(skipped, e.absPath)
			}
		case callbackErr != nil:
			return callbackErr
		}
	}
	return nil
}

func underAny(p string, dirs []string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(p, d+"/") {
			return true
		}
	}
	return false
}

// MemoryFileSystem implements FileSystemProvider for tests.
// Paths are slash-separated; relative paths resolve against the root.
type MemoryFileSystem struct {
	entries map[string]*memoryEntry
	root    string
}

// NewMemoryFileSystem creates an in-memory tree with an empty root directory.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))
	mfs := &MemoryFileSystem{entries: make(map[string]*memoryEntry), root: root}
	mfs.entries[root] = &memoryEntry{
		absPath: root,
		info:    &memoryFileInfo{name: path.Base(root), modTime: time.Now(), isDir: true},
	}
	return mfs
}

// AddFile adds a file of the given size, creating parent directories.
func (mfs *MemoryFileSystem) AddFile(filePath string, size int64) {
	abs := mfs.resolve(filePath)
	mfs.entries[abs] = &memoryEntry{
		absPath: abs,
		info:    &memoryFileInfo{name: path.Base(abs), size: size, modTime: time.Now()},
	}
	mfs.ensureDirectoriesExist(abs)
}

func (mfs *MemoryFileSystem) ensureDirectoriesExist(filePath string) {
	dir := path.Dir(filePath)
	if dir == "." || dir == "/" || dir == mfs.root {
		return
	}
	if _, exists := mfs.entries[dir]; exists {
		return
	}
	mfs.entries[dir] = &memoryEntry{
		absPath: dir,
		info:    &memoryFileInfo{name: path.Base(dir), modTime: time.Now(), isDir: true},
	}
	mfs.ensureDirectoriesExist(dir)
}

func (mfs *MemoryFileSystem) resolve(p string) string {
	p = filepath.ToSlash(p)
	switch {
	case p == "" || p == ".":
		return mfs.root
	case path.IsAbs(p):
		return path.Clean(p)
	default:
		return path.Join(mfs.root, p)
	}
}

func (mfs *MemoryFileSystem) entriesUnder(base string) []*memoryEntry {
	var out []*memoryEntry
	for p, e := range mfs.entries {
		if p == base || strings.HasPrefix(p, strings.TrimSuffix(base, "/")+"/") {
			out = append(out, e)
		}
	}
	return out
}

// Open implements FileSystemProvider.Open.
func (mfs *MemoryFileSystem) Open(openPath string) (Directory, error) {
	abs := mfs.resolve(openPath)
	e, ok := mfs.entries[abs]
	if !ok {
		return nil, fmt.Errorf("directory not found: %s", openPath)
	}
	if !e.info.isDir {
		return nil, fmt.Errorf("path is not a directory: %s", openPath)
	}
	return &memoryDirectory{absPath: abs, fs: mfs}, nil
}

// Stat implements FileSystemProvider.Stat.
func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	e, ok := mfs.entries[mfs.resolve(statPath)]
	if !ok {
		return nil, fmt.Errorf("path not found: %s", statPath)
	}
	return e.info, nil
}
