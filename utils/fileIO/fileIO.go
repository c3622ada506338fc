package fileio

import (
	"os"
)

// FileExists checks that the given path exists and is a regular file.
func FileExists(filename string) bool {
	fstat, err := os.Stat(filename)
	return err == nil && !fstat.IsDir()
}
