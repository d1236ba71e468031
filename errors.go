package rodos

import "errors"

// Error kinds returned by the engine. All of them are recoverable at the
// call site and can be tested with errors.Is.
var (
	// ErrDuplicateName is returned when the target identity already exists
	// in the target directory.
	ErrDuplicateName = errors.New("an entry with this name already exists")

	// ErrNotFound is returned when the referenced file or directory does not
	// exist in the expected directory.
	ErrNotFound = errors.New("no such file or directory")

	// ErrNotADirectory is returned when a path component or operand resolves
	// to a file where a directory is required.
	ErrNotADirectory = errors.New("not a directory")

	// ErrNotAFile is returned when the operand is a directory where a file
	// is required.
	ErrNotAFile = errors.New("not a file")

	// ErrOutOfSpace is returned when fewer free clusters exist than the
	// requested allocation or extension needs.
	ErrOutOfSpace = errors.New("not enough free clusters")

	// ErrConflictingAttributeOp is returned when two attribute toggles in
	// one request target the same bit.
	ErrConflictingAttributeOp = errors.New("conflicting attribute operations")

	// ErrInvalidPath is returned when navigation references a component that
	// does not resolve.
	ErrInvalidPath = errors.New("invalid path")

	// ErrReadOnly is returned when a destructive operation targets a
	// read-only entry.
	ErrReadOnly = errors.New("entry is read-only")

	// ErrCorruptChain reports an internal consistency fault: a cluster chain
	// revisits a cluster, references a free cluster or exceeds the maximum
	// possible chain length.
	ErrCorruptChain = errors.New("corrupt cluster chain")

	// ErrInvalidImage is returned when the persisted image fails the header
	// or geometry checks on load.
	ErrInvalidImage = errors.New("invalid disk image")
)
