package rodos

import (
	"bytes"
	"encoding/binary"

	"github.com/aligator/rodos/checkpoint"
)

// Supported widths of a persisted allocation table cell in bits. The width
// only selects the on-disk cell encoding, it never changes the addressable
// cluster count.
const (
	TableWidth16 = 16
	TableWidth32 = 32
)

var headerMagic = [4]byte{'R', 'O', 'D', 'O'}

const headerVersion uint16 = 1

// Header is the fixed prefix of the persisted disk image. It is followed by
// the serialized allocation table and the raw cluster data region.
type Header struct {
	Magic        [4]byte
	Version      uint16
	ClusterSize  uint32
	ClusterCount uint32
	TableWidth   uint8
	Reserved     [1]byte
	RootCluster  uint32
}

func newHeader(clusterSize, clusterCount uint32, tableWidth uint8) Header {
	return Header{
		Magic:        headerMagic,
		Version:      headerVersion,
		ClusterSize:  clusterSize,
		ClusterCount: clusterCount,
		TableWidth:   tableWidth,
		RootCluster:  rootCluster,
	}
}

func headerSize() int {
	return binary.Size(Header{})
}

func (h Header) validate() error {
	if h.Magic != headerMagic {
		return checkpoint.From(ErrInvalidImage)
	}
	if h.Version != headerVersion {
		return checkpoint.From(ErrInvalidImage)
	}
	if h.ClusterSize == 0 || h.ClusterCount < 2 {
		return checkpoint.From(ErrInvalidImage)
	}
	if h.TableWidth != TableWidth16 && h.TableWidth != TableWidth32 {
		return checkpoint.From(ErrInvalidImage)
	}
	// A 16 bit cell reserves 0xFFFF for end-of-chain, so the highest cluster
	// index must stay below it.
	if h.TableWidth == TableWidth16 && h.ClusterCount > 0xFFFF {
		return checkpoint.From(ErrInvalidImage)
	}
	if h.RootCluster >= h.ClusterCount {
		return checkpoint.From(ErrInvalidImage)
	}
	return nil
}

func (h Header) encode() ([]byte, error) {
	buffer := &bytes.Buffer{}
	if err := binary.Write(buffer, binary.LittleEndian, h); err != nil {
		return nil, checkpoint.From(err)
	}
	return buffer.Bytes(), nil
}

func decodeHeader(data []byte) (Header, error) {
	header := Header{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return Header{}, checkpoint.Wrap(err, ErrInvalidImage)
	}
	if err := header.validate(); err != nil {
		return Header{}, err
	}
	return header, nil
}
