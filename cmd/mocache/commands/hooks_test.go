package commands

import "io"

// SetCreateFile replaces the file opener used by export -o until restore is
// called.
func SetCreateFile(fn func(string) (io.WriteCloser, error)) (restore func()) {
	prev := createFile
	createFile = fn
	return func() { createFile = prev }
}
