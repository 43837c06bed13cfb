//go:build !unix

package storage

// tryFlock is a no-op on platforms without flock(2).
func tryFlock(fd int) {}
