package classstore

import "errors"

// Error classification. Implementations MAY wrap these with additional
// context via fmt.Errorf("...: %w", Sentinel); callers MUST classify with
// errors.Is, matching the error kinds of the larger system (§7).
var (
	// ErrIO covers file open, mmap, read, write, lock, and close failures.
	ErrIO = errors.New("classstore: io error")

	// ErrFormat covers an unrecognized image, wrong magic, wrong endianness,
	// or an image size inconsistent with its header.
	ErrFormat = errors.New("classstore: format error")

	// ErrWrongEndian is a more specific ErrFormat cause: the byte-reversed
	// magic OSBF was found where the native little-endian FBSO tag was
	// expected.
	ErrWrongEndian = errors.New("classstore: wrong-endian image")

	// ErrFullTable indicates an insert or import found no free slot.
	ErrFullTable = errors.New("classstore: bucket table full")

	// ErrClosedClass indicates an operation was attempted on a closed class.
	ErrClosedClass = errors.New("classstore: class is closed")

	// ErrUsage indicates an operation needed write access but the class was
	// opened read-only.
	ErrUsage = errors.New("classstore: class not opened for write")

	// ErrInvalidInput covers malformed caller input, such as more than
	// MaxClasses classes passed to one classify call. Unknown configuration
	// keys are not reported through it: the config loader ignores them.
	ErrInvalidInput = errors.New("classstore: invalid input")

	// ErrLocked indicates the file lock could not be acquired within the
	// retry budget because another process holds it.
	ErrLocked = errors.New("classstore: locked by another process")
)
