package region

import (
	"os"
	"path/filepath"
)

const filePrefix = "atomicdict_"

// Path returns the file path backing the named region.
func Path(name string) string {
	if isDevShmAvailable() {
		return filepath.Join("/dev/shm", filePrefix+name)
	}

	// Fallback to temporary directory
	return filepath.Join(os.TempDir(), filePrefix+name)
}

// isDevShmAvailable checks if /dev/shm is available
func isDevShmAvailable() bool {
	info, err := os.Stat("/dev/shm")
	if err != nil {
		return false
	}

	return info.IsDir()
}
