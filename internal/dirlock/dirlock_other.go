//go:build !unix

package dirlock

import "os"

// Advisory locking is unavailable on this platform; the lock file still
// marks the directory as in use.
func flock(*os.File) error {
	return nil
}

func funlock(*os.File) error {
	return nil
}
