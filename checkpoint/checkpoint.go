// Package checkpoint decorates errors with caller information so that an
// error bubbling up through the engine reads like a small stack trace.
// Errors attached to a checkpoint stay visible to errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps err in a new checkpoint carrying the caller's file and line.
// It returns nil if err is nil.
func From(err error) error {
	// io.EOF and io.ErrUnexpectedEOF must stay comparable by ==.
	// https://github.com/golang/go/issues/39155
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}
	if err == nil {
		return nil
	}

	return newCheckpoint(err, nil)
}

// Wrap creates a checkpoint from prev and attaches err as an additional
// description. It returns nil if prev is nil, so call sites can wrap
// unconditionally:
//
//	return checkpoint.Wrap(walkErr, ErrCorruptChain)
//
// Both prev and err remain matchable with errors.Is.
func Wrap(prev, err error) error {
	if prev == io.EOF {
		return io.EOF
	}
	if prev == nil {
		return nil
	}

	return newCheckpoint(err, prev)
}

func newCheckpoint(err, prev error) *checkpoint {
	// Skip newCheckpoint and the exported constructor.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:      err,
		prev:     prev,
		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (c *checkpoint) Error() string {
	location := "unknown"
	if c.callerOk {
		location = fmt.Sprintf("%s:%d", c.file, c.line)
	}

	if c.prev == nil {
		return fmt.Sprintf("at %s: %v", location, c.err)
	}

	prevString := c.prev.Error()
	if _, ok := c.prev.(*checkpoint); !ok {
		prevString = "at unknown: " + strings.ReplaceAll(prevString, "\n", "\n\t")
	}

	if c.err == nil {
		return fmt.Sprintf("at %s\n%v", location, prevString)
	}
	return fmt.Sprintf("at %s: %v\n%v", location, c.err, prevString)
}

func (c *checkpoint) Unwrap() error {
	return c.prev
}

func (c *checkpoint) Is(target error) bool {
	return errors.Is(c.err, target)
}

func (c *checkpoint) As(target interface{}) bool {
	if c.err == nil {
		return false
	}
	return errors.As(c.err, target)
}
