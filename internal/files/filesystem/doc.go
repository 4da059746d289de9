// Package filesystem abstracts directory traversal for dataset discovery.
//
// Implementations:
//   - OSFileSystem: the real filesystem
//   - MemoryFileSystem: an in-memory tree for tests
//
// Walk callbacks may return fs.SkipDir for a directory entry to prune it.
package filesystem
