package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo.
type FileInfo = fs.FileInfo

// Entry is a file or directory found during a walk.
type Entry interface {
	// Path returns the absolute path
	Path() string

	// RelativePath returns the slash-separated path relative to the walk root
	RelativePath() string

	// Info returns file metadata
	Info() FileInfo
}

// Directory is a tree that can be walked in lexical order.
type Directory interface {
	// Path returns the absolute path to the directory
	Path() string

	// Walk calls fn for the root and every entry below it.
	// Returning fs.SkipDir from a directory entry skips its contents;
	// any other error stops the walk and is returned.
	Walk(fn func(Entry, error) error) error
}

// FileSystemProvider opens directories and stats paths.
type FileSystemProvider interface {
	// Open opens a directory at the specified path
	Open(path string) (Directory, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)
}
