// Package filelock implements the sibling ".lock" file protocol used to
// serialize writer access to a class file (§4.6, §5).
package filelock

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when the lock could not be acquired within the
// retry budget because another process holds it.
var ErrLocked = errors.New("filelock: locked by another process")

const (
	maxAttempts  = 20
	retryDelay   = time.Second
	lockFilePerm = 0o600
)

// Lock represents a held exclusive lock on a class's sibling ".lock" file.
// Call Close to release it.
type Lock struct {
	file *os.File
}

// Acquire locks the ".lock" file adjacent to classPath (classPath + ".lock"),
// creating it if necessary. It retries up to 20 times at 1-second intervals
// on EAGAIN/EACCES (§5's cancellation/timeout policy); any other error is
// returned immediately.
func Acquire(classPath string) (*Lock, error) {
	lockPath := classPath + ".lock"

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}

		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockFilePerm)
		if err != nil {
			return nil, fmt.Errorf("filelock: open %s: %w", lockPath, err)
		}

		err = flockRetryEINTR(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			match, ierr := inodeMatches(lockPath, f)
			if ierr != nil {
				_ = flockRetryEINTR(int(f.Fd()), unix.LOCK_UN)
				_ = f.Close()
				return nil, fmt.Errorf("filelock: verify %s: %w", lockPath, ierr)
			}
			if match {
				return &Lock{file: f}, nil
			}
			_ = flockRetryEINTR(int(f.Fd()), unix.LOCK_UN)
			_ = f.Close()
			lastErr = fmt.Errorf("filelock: %s replaced during acquisition", lockPath)
			continue
		}

		_ = f.Close()
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
			lastErr = ErrLocked
			continue
		}
		return nil, fmt.Errorf("filelock: flock %s: %w", lockPath, err)
	}
	return nil, lastErr
}

// Close releases the lock and closes the underlying file descriptor. Safe
// to call once; idempotent after the first call.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}
	fd := int(l.file.Fd())
	unlockErr := flockRetryEINTR(fd, unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return fmt.Errorf("filelock: unlock: %w", unlockErr)
	}
	return closeErr
}

// inodeMatches reports whether f (already flocked) still refers to the
// inode currently at path, guarding against the lock file being replaced
// while it was being acquired.
func inodeMatches(path string, f *os.File) (bool, error) {
	var openStat unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &openStat); err != nil {
		return false, err
	}
	var pathStat unix.Stat_t
	if err := unix.Stat(path, &pathStat); err != nil {
		return false, err
	}
	return openStat.Dev == pathStat.Dev && openStat.Ino == pathStat.Ino, nil
}

func flockRetryEINTR(fd, how int) error {
	const maxEINTRRetries = 10000
	var err error
	for i := 0; i < maxEINTRRetries; i++ {
		err = unix.Flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}
	return err
}
