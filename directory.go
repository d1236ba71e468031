package rodos

import (
	"sort"

	"github.com/aligator/rodos/checkpoint"
)

// SortKey selects the ordering of a directory listing.
type SortKey int

const (
	SortNone SortKey = iota
	SortName
	SortModified
	SortSize
)

// ListOptions filter and sort a directory listing. Listing is a pure view,
// it never mutates the directory.
type ListOptions struct {
	// IncludeHidden also lists entries with the hidden attribute. By default
	// hidden entries are filtered away.
	IncludeHidden bool
	// OnlyFiles restricts the listing to file entries.
	OnlyFiles bool
	// OnlyDirectories restricts the listing to directory entries.
	OnlyDirectories bool
	// Name filters on an exact name match.
	Name string
	// Extension filters on an exact extension match.
	Extension string

	SortBy     SortKey
	Descending bool
}

// slot is one record position inside a directory chain.
type slot struct {
	index  int
	marker byte
	entry  Entry
}

// readDir decodes a directory chain into its raw bytes and the record slots
// up to the first never-used marker. Tombstoned slots are included, they are
// reused by inserts.
func (d *Disk) readDir(dir Entry) ([]byte, []slot, error) {
	if !dir.IsDir() {
		return nil, nil, checkpoint.From(ErrNotADirectory)
	}

	data, err := d.readChain(dir.FirstCluster)
	if err != nil {
		return nil, nil, err
	}

	slots := []slot{}
	for index := 0; (index+1)*entrySize <= len(data); index++ {
		record := data[index*entrySize : (index+1)*entrySize]
		if record[0] == slotNeverUsed {
			break
		}

		slots = append(slots, slot{
			index:  index,
			marker: record[0],
			entry:  decodeEntry(record),
		})
	}

	return data, slots, nil
}

func liveEntries(slots []slot) []Entry {
	entries := []Entry{}
	for _, s := range slots {
		if s.marker == slotLive {
			entries = append(entries, s.entry)
		}
	}
	return entries
}

// List returns the entries of the given directory after applying the
// options.
func (d *Disk) List(dir Entry, options ListOptions) ([]Entry, error) {
	_, slots, err := d.readDir(dir)
	if err != nil {
		return nil, err
	}

	entries := []Entry{}
	for _, entry := range liveEntries(slots) {
		if entry.IsHidden() && !options.IncludeHidden {
			continue
		}
		if options.OnlyFiles && entry.IsDir() {
			continue
		}
		if options.OnlyDirectories && !entry.IsDir() {
			continue
		}
		if options.Name != "" && entry.Name != options.Name {
			continue
		}
		if options.Extension != "" && entry.Extension != options.Extension {
			continue
		}
		entries = append(entries, entry)
	}

	less := func(a, b Entry) bool { return false }
	switch options.SortBy {
	case SortName:
		less = func(a, b Entry) bool { return a.DisplayName() < b.DisplayName() }
	case SortModified:
		less = func(a, b Entry) bool { return a.Modified.Before(b.Modified) }
	case SortSize:
		less = func(a, b Entry) bool { return a.Size < b.Size }
	}

	if options.SortBy != SortNone {
		sort.SliceStable(entries, func(i, j int) bool {
			if options.Descending {
				return less(entries[j], entries[i])
			}
			return less(entries[i], entries[j])
		})
	}

	return entries, nil
}

// findEntry locates a live record by identity.
func (d *Disk) findEntry(dir Entry, name, extension string) (slot, error) {
	_, slots, err := d.readDir(dir)
	if err != nil {
		return slot{}, err
	}

	for _, s := range slots {
		if s.marker == slotLive && s.entry.sameIdentity(name, extension) {
			return s, nil
		}
	}
	return slot{}, checkpoint.From(ErrNotFound)
}

// insertEntry appends a record into the first reusable slot of the
// directory chain, extending the chain if no slot is left.
func (d *Disk) insertEntry(dir Entry, entry Entry) error {
	data, slots, err := d.readDir(dir)
	if err != nil {
		return err
	}

	for _, s := range slots {
		if s.marker == slotLive && s.entry.sameIdentity(entry.Name, entry.Extension) {
			return checkpoint.From(ErrDuplicateName)
		}
	}

	target := -1
	for _, s := range slots {
		if s.marker == slotDeleted {
			target = s.index
			break
		}
	}
	if target == -1 {
		target = len(slots)
	}

	// Grow the chain when the record does not fit into the current clusters.
	if needed := (target+1)*entrySize - len(data); needed > 0 {
		if err := d.fat.extend(dir.FirstCluster, d.clustersFor(uint32(needed))); err != nil {
			return err
		}
		data = append(data, make([]byte, d.clustersFor(uint32(needed))*int(d.header.ClusterSize))...)
	}

	copy(data[target*entrySize:], entry.encode())
	return d.writeChain(dir.FirstCluster, data)
}

// removeEntry tombstones a record. The entry's chain is not touched, that is
// the caller's responsibility.
func (d *Disk) removeEntry(dir Entry, name, extension string) (Entry, error) {
	data, slots, err := d.readDir(dir)
	if err != nil {
		return Entry{}, err
	}

	for _, s := range slots {
		if s.marker == slotLive && s.entry.sameIdentity(name, extension) {
			data[s.index*entrySize] = slotDeleted
			if err := d.writeChain(dir.FirstCluster, data); err != nil {
				return Entry{}, err
			}
			return s.entry, nil
		}
	}
	return Entry{}, checkpoint.From(ErrNotFound)
}

// updateEntry rewrites a live record in place.
func (d *Disk) updateEntry(dir Entry, name, extension string, entry Entry) error {
	data, slots, err := d.readDir(dir)
	if err != nil {
		return err
	}

	for _, s := range slots {
		if s.marker == slotLive && s.entry.sameIdentity(name, extension) {
			copy(data[s.index*entrySize:], entry.encode())
			return d.writeChain(dir.FirstCluster, data)
		}
	}
	return checkpoint.From(ErrNotFound)
}

// resolveDir walks path components from root, requiring the directory
// attribute at every step.
func (d *Disk) resolveDir(components []string) (Entry, error) {
	current := d.rootEntry()

	for _, component := range components {
		s, err := d.findEntry(current, component, "")
		if err != nil {
			return Entry{}, err
		}
		if !s.entry.IsDir() {
			return Entry{}, checkpoint.From(ErrNotADirectory)
		}
		current = s.entry
	}

	return current, nil
}

// freeEntryChains frees the chains of every entry below dir, depth first,
// children before parent. Partial progress only ever leaves already-freed
// clusters behind, never dangling references.
func (d *Disk) freeEntryChains(dir Entry) error {
	_, slots, err := d.readDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range liveEntries(slots) {
		if entry.IsDir() {
			if err := d.freeEntryChains(entry); err != nil {
				return err
			}
		}
		if entry.FirstCluster == noCluster {
			continue
		}
		if err := d.fat.free(entry.FirstCluster); err != nil {
			return err
		}
	}

	return nil
}
