//go:build !(linux || darwin || freebsd)

package region

import (
	"errors"
	"os"
)

var errUnsupported = errors.New("region: shared mappings are not supported on this platform")

func init() {
	mapAnonymous = func(int) ([]byte, error) { return nil, errUnsupported }
	mapFile = func(*os.File, int) ([]byte, error) { return nil, errUnsupported }
	unmapMemory = func([]byte) error { return nil }
}
