// Package region provides shared memory regions that back atomic tables.
//
// A region is a zero-initialized MAP_SHARED mapping. Anonymous regions are
// shared by every goroutine of a process; named regions live under /dev/shm
// (or the temporary directory) and may be opened by unrelated processes or
// handed to child processes as an inherited file descriptor.
//
// Each *Region is one holder. Attach hands out further holders of the same
// mapping, Close releases one holder, and the mapping is unmapped once the
// last local holder is closed. Other processes keep their own mappings, so
// the backing memory lives until every process has released it.
package region

import (
	"errors"
	"fmt"
	"os"

	"github.com/op/go-logging"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

var log = logging.MustGetLogger("region")

// Programs that don't configure go-logging only hear about problems.
func init() {
	logging.SetLevel(logging.WARNING, "region")
}

// ErrClosed is returned when a closed holder is used.
var ErrClosed = errors.New("region: closed")

// Platform-specific functions (implemented in platform-specific files)
var (
	mapAnonymous func(size int) ([]byte, error)
	mapFile      func(f *os.File, size int) ([]byte, error)
	unmapMemory  func([]byte) error
)

// mapping is the state shared by every local holder of a region.
type mapping struct {
	mem  []byte
	file *os.File
	path string
	refs atomic.Int32
}

func newMapping(mem []byte, file *os.File, path string) *mapping {
	m := &mapping{mem: mem, file: file, path: path}
	m.refs.Store(1)

	return m
}

func (m *mapping) release() error {
	if m.refs.Dec() != 0 {
		return nil
	}

	log.Debugf("unmapping %d bytes", len(m.mem))

	err := unmapMemory(m.mem)
	if m.file != nil {
		err = multierr.Append(err, m.file.Close())
	}

	return err
}

// Region is one holder of a shared mapping.
type Region struct {
	m      *mapping
	closed atomic.Bool
}

// Anonymous maps size zeroed bytes shared by the whole process.
func Anonymous(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: invalid size %d", size)
	}

	mem, err := mapAnonymous(size)
	if err != nil {
		return nil, err
	}

	log.Debugf("mapped %d anonymous bytes", size)

	return &Region{m: newMapping(mem, nil, "")}, nil
}

// Create creates and maps a named region of size zeroed bytes. It fails if
// a region with that name already exists.
func Create(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: invalid size %d", size)
	}

	path := Path(name)

	// Create the file with exclusive access
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create region file %s: %w", path, err)
	}

	// Ensure cleanup on error
	cleanup := func() {
		file.Close()
		os.Remove(path)
	}

	if err := file.Truncate(int64(size)); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to resize region file: %w", err)
	}

	mem, err := mapFile(file, size)
	if err != nil {
		cleanup()
		return nil, err
	}

	log.Debugf("created region %s of %d bytes", path, size)

	return &Region{m: newMapping(mem, file, path)}, nil
}

// Open maps an existing named region.
func Open(name string) (*Region, error) {
	path := Path(name)

	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open region file %s: %w", path, err)
	}

	r, err := FromFile(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	r.m.path = path

	return r, nil
}

// FromFile maps the whole of an already open region file, typically a
// descriptor inherited from a parent process. On success the region takes
// ownership of f.
func FromFile(f *os.File) (*Region, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat region file: %w", err)
	}

	size := info.Size()
	if size <= 0 {
		return nil, fmt.Errorf("region file %s is empty", f.Name())
	}

	mem, err := mapFile(f, int(size))
	if err != nil {
		return nil, err
	}

	log.Debugf("attached region %s of %d bytes", f.Name(), size)

	return &Region{m: newMapping(mem, f, "")}, nil
}

// Attach returns a new holder of the same mapping.
func (r *Region) Attach() (*Region, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	for {
		n := r.m.refs.Load()
		if n <= 0 {
			return nil, ErrClosed
		}

		if r.m.refs.CompareAndSwap(n, n+1) {
			return &Region{m: r.m}, nil
		}
	}
}

// Close releases this holder. It is idempotent, and the mapping stays
// valid for every other holder still attached.
func (r *Region) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	return r.m.release()
}

// Bytes returns the mapped memory. It must not be used after the last
// holder is closed.
func (r *Region) Bytes() []byte {
	return r.m.mem
}

func (r *Region) Size() int {
	return len(r.m.mem)
}

// Path returns the backing file path. It is empty for anonymous regions
// and for regions mapped from an inherited descriptor.
func (r *Region) Path() string {
	return r.m.path
}

// File returns the backing file, nil for anonymous regions. Pass it in
// exec.Cmd.ExtraFiles to share the region with a child process.
func (r *Region) File() *os.File {
	return r.m.file
}

// Remove unlinks a named region. Processes that have it mapped keep using
// it; the memory is reclaimed once the last of them unmaps it.
func (r *Region) Remove() error {
	if r.m.path == "" {
		return nil
	}

	if err := os.Remove(r.m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove region file: %w", err)
	}

	return nil
}
