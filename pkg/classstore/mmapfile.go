package classstore

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mappedFile owns an mmap'd view of an open class file. It is the backing
// store for a Mapped-state class (§4.6): the native v7 header and buckets
// live directly in this memory. For a descriptor opened read-write, writes
// are visible on disk as soon as the kernel flushes the page; a read-only
// descriptor is mapped privately, so writes stay in this process's memory.
type mappedFile struct {
	fd   *os.File
	data []byte
}

// mmapFile maps the full contents of fd, which must already be sized to
// size bytes.
func mmapFile(fd *os.File, size int64) (*mappedFile, error) {
	mapFlags := unix.MAP_SHARED
	if fl, err := unix.FcntlInt(fd.Fd(), unix.F_GETFL, 0); err == nil && fl&unix.O_ACCMODE == unix.O_RDONLY {
		mapFlags = unix.MAP_PRIVATE
	}
	data, err := unix.Mmap(int(fd.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, mapFlags)
	if err != nil {
		return nil, fmt.Errorf("classstore: mmap %s: %w: %w", fd.Name(), err, ErrIO)
	}
	return &mappedFile{fd: fd, data: data}, nil
}

// Close unmaps and closes the underlying file. Safe to call once.
func (m *mappedFile) Close() error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			m.fd.Close()
			return fmt.Errorf("classstore: munmap %s: %w: %w", m.fd.Name(), err, ErrIO)
		}
		m.data = nil
	}
	if err := m.fd.Close(); err != nil {
		return fmt.Errorf("classstore: close %s: %w: %w", m.fd.Name(), err, ErrIO)
	}
	return nil
}

// touch forces an NFS mtime update by reading and rewriting the file's
// first byte, matching the reference implementation's close-time behavior
// so NFS clients observe the new mtime promptly (§4.6).
func (m *mappedFile) touch() error {
	if len(m.data) == 0 {
		return nil
	}
	b := m.data[0]
	m.data[0] = b
	return nil
}

// fileSize returns fd's current size via fstat.
func fileSize(fd *os.File) (int64, error) {
	var stat unix.Stat_t
	if err := unix.Fstat(int(fd.Fd()), &stat); err != nil {
		return 0, fmt.Errorf("classstore: fstat %s: %w: %w", fd.Name(), err, ErrIO)
	}
	return stat.Size, nil
}
