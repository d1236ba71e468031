package rodos

import (
	"io"

	"github.com/aligator/rodos/checkpoint"
)

// Source produces the content bytes of a file. The engine drains it up to
// the requested size; a source that ends early leaves the remaining bytes
// zeroed.
//
// Generated mock using mockgen:
//
//	mockgen -source=content.go -destination=source_mock.go -package=rodos
type Source interface {
	Read(p []byte) (n int, err error)
}

// cyclicSource endlessly repeats a fixed alphabet. It never returns io.EOF.
type cyclicSource struct {
	alphabet []byte
	position int
}

func (s *cyclicSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = s.alphabet[s.position]
		s.position = (s.position + 1) % len(s.alphabet)
	}
	return len(p), nil
}

// Alpha returns a source cycling through the uppercase alphabet A-Z.
func Alpha() Source {
	return &cyclicSource{alphabet: []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ")}
}

// Num returns a source cycling through the digits 0-9.
func Num() Source {
	return &cyclicSource{alphabet: []byte("0123456789")}
}

// Hex returns a source cycling through the hexadecimal digits 0-F.
func Hex() Source {
	return &cyclicSource{alphabet: []byte("0123456789ABCDEF")}
}

// Bytes returns a source serving the given bytes once.
func Bytes(data []byte) Source {
	return &byteSource{data: data}
}

type byteSource struct {
	data []byte
}

func (s *byteSource) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

// drain reads exactly size bytes from the source. If the source ends early
// the tail of the returned buffer stays zeroed. Any other source error
// aborts the drain.
func drain(source Source, size uint32) ([]byte, error) {
	data := make([]byte, size)
	if source == nil {
		return data, nil
	}

	_, err := io.ReadFull(source, data)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return data, nil
	}
	if err != nil {
		return nil, checkpoint.From(err)
	}
	return data, nil
}
