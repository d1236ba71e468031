package rodos

import (
	"bytes"
	"encoding/binary"
	"strings"
	"time"

	"github.com/aligator/rodos/checkpoint"
)

// entrySize is the fixed on-disk size of one directory entry record.
const entrySize = 32

// Maximum identifier lengths of the fixed record fields.
const (
	maxNameLen      = 8
	maxExtensionLen = 3
)

// Slot markers. A never-used slot ends the record sequence of a directory,
// a deleted slot is skipped and reused by later inserts.
const (
	slotNeverUsed byte = 0x00
	slotLive      byte = 0x01
	slotDeleted   byte = 0xE5
)

// Attribute bits of a directory entry. The directory bit is set at creation
// time and never touched by attribute edits.
const (
	AttrReadOnly  byte = 0x01
	AttrHidden    byte = 0x02
	AttrDirectory byte = 0x10
)

// Entry describes one file or subdirectory. Directories are regular entries
// whose chain bytes hold a record sequence instead of file content.
type Entry struct {
	Name         string
	Extension    string
	Attributes   byte
	FirstCluster uint32
	Size         uint32
	Modified     time.Time
}

func (e Entry) IsDir() bool {
	return e.Attributes&AttrDirectory != 0
}

func (e Entry) IsHidden() bool {
	return e.Attributes&AttrHidden != 0
}

func (e Entry) IsReadOnly() bool {
	return e.Attributes&AttrReadOnly != 0
}

// DisplayName returns "name.extension" for files with an extension and just
// the name otherwise.
func (e Entry) DisplayName() string {
	if e.Extension == "" {
		return e.Name
	}
	return e.Name + "." + e.Extension
}

// sameIdentity compares case-sensitively on the (name, extension) pair.
func (e Entry) sameIdentity(name, extension string) bool {
	return e.Name == name && e.Extension == extension
}

// encode writes the entry as a live record.
//
// Record layout:
//
//	offset 0      marker byte
//	offset 1..8   name
//	offset 9..11  extension
//	offset 12     attributes
//	offset 13..16 first cluster
//	offset 17..20 size in bytes
//	offset 21..28 modification time, unix seconds
//	offset 29..31 reserved
func (e Entry) encode() []byte {
	record := make([]byte, entrySize)
	record[0] = slotLive

	copy(record[1:1+maxNameLen], e.Name)
	copy(record[9:9+maxExtensionLen], e.Extension)

	record[12] = e.Attributes
	binary.LittleEndian.PutUint32(record[13:], e.FirstCluster)
	binary.LittleEndian.PutUint32(record[17:], e.Size)
	binary.LittleEndian.PutUint64(record[21:], uint64(e.Modified.Unix()))

	return record
}

func decodeEntry(record []byte) Entry {
	return Entry{
		Name:         string(bytes.TrimRight(record[1:1+maxNameLen], "\x00")),
		Extension:    string(bytes.TrimRight(record[9:9+maxExtensionLen], "\x00")),
		Attributes:   record[12],
		FirstCluster: binary.LittleEndian.Uint32(record[13:]),
		Size:         binary.LittleEndian.Uint32(record[17:]),
		Modified:     time.Unix(int64(binary.LittleEndian.Uint64(record[21:])), 0).UTC(),
	}
}

// AttrToggle is one attribute edit of a set-attributes request.
type AttrToggle uint8

const (
	SetHidden AttrToggle = iota
	ClearHidden
	SetReadOnly
	ClearReadOnly
)

func (t AttrToggle) String() string {
	switch t {
	case SetHidden:
		return "+h"
	case ClearHidden:
		return "-h"
	case SetReadOnly:
		return "+r"
	case ClearReadOnly:
		return "-r"
	}
	return "?"
}

// applyToggles applies an ordered sequence of attribute toggles. A sequence
// touching the same bit twice is rejected. The directory bit is never
// affected.
func applyToggles(attributes byte, toggles []AttrToggle) (byte, error) {
	seen := map[byte]bool{}

	for _, toggle := range toggles {
		var bit byte
		switch toggle {
		case SetHidden, ClearHidden:
			bit = AttrHidden
		case SetReadOnly, ClearReadOnly:
			bit = AttrReadOnly
		default:
			return 0, checkpoint.From(ErrConflictingAttributeOp)
		}

		if seen[bit] {
			return 0, checkpoint.From(ErrConflictingAttributeOp)
		}
		seen[bit] = true

		switch toggle {
		case SetHidden, SetReadOnly:
			attributes |= bit
		case ClearHidden, ClearReadOnly:
			attributes &^= bit
		}
	}

	return attributes, nil
}

// trimIdentifier bounds an identifier to the given record field length.
// The shell validates identifiers before they reach the engine, this only
// guards the fixed layout.
func trimIdentifier(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return strings.TrimRight(s, "\x00")
}
