// Package storage provides the file capability the compression workflows
// run against. Paths are slash-separated and relative to the workspace root.
package storage

import (
	"io/fs"
	"time"
)

// ErrNotExist is returned when a path is missing. It matches fs.ErrNotExist.
var ErrNotExist = fs.ErrNotExist

// Entry is one item returned by List.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Storage reads and writes workspace files.
type Storage interface {
	// Read returns the full text of a file.
	Read(path string) (string, error)

	// Write replaces a file, creating parent directories as needed.
	Write(path, text string) error

	// List returns the direct children of dir sorted by name.
	List(dir string) ([]Entry, error)

	// Move relocates a file by copying it and then deleting the source.
	Move(src, dst string) error

	// Remove deletes a file.
	Remove(path string) error

	// Glob returns the files matching a doublestar pattern, sorted.
	Glob(pattern string) ([]string, error)
}

// Exists reports whether path can be read.
func Exists(s Storage, path string) bool {
	_, err := s.Read(path)
	return err == nil
}

// Copy duplicates src to dst.
func Copy(s Storage, src, dst string) error {
	text, err := s.Read(src)
	if err != nil {
		return err
	}
	return s.Write(dst, text)
}
