package rodos

import (
	"encoding/binary"

	"github.com/aligator/rodos/checkpoint"
)

// fatEntry is the in-memory state of one cluster. Besides the two sentinels
// it holds the index of the next cluster in the chain.
type fatEntry uint32

const (
	fatFree fatEntry = 0
	fatEOC  fatEntry = 0xFFFFFFFF

	// eoc16 is the end-of-chain sentinel of a 16 bit table cell.
	eoc16 uint16 = 0xFFFF

	// rootCluster permanently seeds the root directory's chain.
	rootCluster uint32 = 0

	// noCluster marks an entry without any allocated chain.
	noCluster uint32 = 0xFFFFFFFF
)

// table is the allocation table: one entry per cluster. It owns every
// allocation and free decision; the cluster store itself is kept separately
// by the Disk.
type table []fatEntry

func newTable(clusterCount uint32) table {
	t := make(table, clusterCount)
	t[rootCluster] = fatEOC
	return t
}

// freeCount returns the number of free clusters.
func (t table) freeCount() int {
	count := 0
	for _, entry := range t {
		if entry == fatFree {
			count++
		}
	}
	return count
}

// findFree collects the first n free cluster indices in index order.
// The table is not mutated.
func (t table) findFree(n int) ([]uint32, error) {
	found := make([]uint32, 0, n)
	for i, entry := range t {
		if entry != fatFree {
			continue
		}
		found = append(found, uint32(i))
		if len(found) == n {
			return found, nil
		}
	}
	return nil, checkpoint.From(ErrOutOfSpace)
}

// link turns the given clusters into one chain in the given order, ending
// in an end-of-chain marker.
func (t table) link(clusters []uint32) {
	for i := 0; i < len(clusters)-1; i++ {
		t[clusters[i]] = fatEntry(clusters[i+1])
	}
	t[clusters[len(clusters)-1]] = fatEOC
}

// allocate builds a new chain of n clusters using a first-fit scan and
// returns its first cluster. If fewer than n clusters are free the table is
// left untouched.
func (t table) allocate(n int) (uint32, error) {
	if n <= 0 {
		return noCluster, nil
	}

	clusters, err := t.findFree(n)
	if err != nil {
		return noCluster, err
	}

	t.link(clusters)
	return clusters[0], nil
}

// extend grows the chain starting at start by extra clusters. On failure the
// original chain stays untouched.
func (t table) extend(start uint32, extra int) error {
	if extra <= 0 {
		return nil
	}

	chain, err := t.chain(start)
	if err != nil {
		return err
	}

	clusters, err := t.findFree(extra)
	if err != nil {
		return err
	}

	t.link(clusters)
	t[chain[len(chain)-1]] = fatEntry(clusters[0])
	return nil
}

// chain returns the cluster indices of the chain starting at start, in chain
// order. A chain that references a free or out-of-range cluster or that is
// longer than the table itself reports ErrCorruptChain.
func (t table) chain(start uint32) ([]uint32, error) {
	if start == noCluster {
		return nil, nil
	}

	chain := make([]uint32, 0, 8)
	current := start
	for {
		if current >= uint32(len(t)) || len(chain) >= len(t) {
			return nil, checkpoint.From(ErrCorruptChain)
		}
		if t[current] == fatFree {
			return nil, checkpoint.From(ErrCorruptChain)
		}

		chain = append(chain, current)
		if t[current] == fatEOC {
			return chain, nil
		}
		current = uint32(t[current])
	}
}

// free releases every cluster of the chain starting at start. A noCluster
// start is a no-op so zero-length files can be freed unconditionally.
func (t table) free(start uint32) error {
	chain, err := t.chain(start)
	if err != nil {
		return err
	}

	for _, cluster := range chain {
		t[cluster] = fatFree
	}
	return nil
}

// encode serializes the table as one fixed-width cell per cluster.
func (t table) encode(width uint8) []byte {
	if width == TableWidth16 {
		data := make([]byte, len(t)*2)
		for i, entry := range t {
			cell := uint16(entry)
			if entry == fatEOC {
				cell = eoc16
			}
			binary.LittleEndian.PutUint16(data[i*2:], cell)
		}
		return data
	}

	data := make([]byte, len(t)*4)
	for i, entry := range t {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(entry))
	}
	return data
}

func decodeTable(data []byte, width uint8, clusterCount uint32) (table, error) {
	cellSize := int(width) / 8
	if len(data) < cellSize*int(clusterCount) {
		return nil, checkpoint.From(ErrInvalidImage)
	}

	t := make(table, clusterCount)
	for i := range t {
		if width == TableWidth16 {
			cell := binary.LittleEndian.Uint16(data[i*2:])
			if cell == eoc16 {
				t[i] = fatEOC
			} else {
				t[i] = fatEntry(cell)
			}
			continue
		}
		t[i] = fatEntry(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return t, nil
}
