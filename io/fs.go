package io

import (
	"io"
	"os"
	"path/filepath"
)

// CreateFS defines a file system interface that supports creating files,
// used to save assembled program images.
type CreateFS interface {
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
}

// DirFS is a CreateFS rooted at a host directory.
type DirFS string

var _ CreateFS = DirFS("")

// Create creates or truncates a file below the directory.
func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	file, err = os.Create(filepath.Join(string(dir), filepath.FromSlash(name)))
	return
}
