package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

var errBase = errors.New("base error")
var errDescription = errors.New("description")

func TestFrom(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantNil bool
		want    error
	}{
		{name: "nil error", err: nil, wantNil: true},
		{name: "plain error", err: errBase, want: errBase},
		{name: "io.EOF passes through untouched", err: io.EOF, want: io.EOF},
		{name: "io.ErrUnexpectedEOF passes through untouched", err: io.ErrUnexpectedEOF, want: io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("From() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("errors.Is(From(), %v) = false", tt.want)
			}
		})
	}
}

func TestFromKeepsEOFComparable(t *testing.T) {
	if From(io.EOF) != io.EOF {
		t.Error("From(io.EOF) must be io.EOF itself")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		prev    error
		err     error
		wantNil bool
		wantIs  []error
	}{
		{name: "nil prev", prev: nil, err: errDescription, wantNil: true},
		{name: "both errors visible", prev: errBase, err: errDescription, wantIs: []error{errBase, errDescription}},
		{name: "nested checkpoints", prev: From(errBase), err: errDescription, wantIs: []error{errBase, errDescription}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.prev, tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Wrap() = %v, want nil", got)
				}
				return
			}
			for _, want := range tt.wantIs {
				if !errors.Is(got, want) {
					t.Errorf("errors.Is(Wrap(), %v) = false", want)
				}
			}
		})
	}
}

func TestErrorContainsCaller(t *testing.T) {
	err := From(errBase)
	if !strings.Contains(err.Error(), "checkpoint_test.go") {
		t.Errorf("error message %q should contain the caller file", err.Error())
	}
}

type coded struct{ code int }

func (c *coded) Error() string { return fmt.Sprintf("code %d", c.code) }

func TestAs(t *testing.T) {
	err := Wrap(errBase, &coded{code: 42})

	var target *coded
	if !errors.As(err, &target) {
		t.Fatal("errors.As() = false")
	}
	if target.code != 42 {
		t.Errorf("code = %d, want 42", target.code)
	}
}
