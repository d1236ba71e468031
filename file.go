package rodos

import (
	"time"

	"github.com/aligator/rodos/checkpoint"
)

// createFile creates a file in dir, draining up to size bytes from the
// source. If anything fails after allocation the chain is freed again, so a
// failed create never leaks clusters.
func (d *Disk) createFile(dir Entry, name, extension string, size uint32, source Source) (Entry, error) {
	name = trimIdentifier(name, maxNameLen)
	extension = trimIdentifier(extension, maxExtensionLen)

	if _, err := d.findEntry(dir, name, extension); err == nil {
		return Entry{}, checkpoint.From(ErrDuplicateName)
	}

	data, err := drain(source, size)
	if err != nil {
		return Entry{}, err
	}

	first := noCluster
	if size > 0 {
		first, err = d.fat.allocate(d.clustersFor(size))
		if err != nil {
			return Entry{}, err
		}
		d.log.Debug("chain allocated", "first", first, "clusters", d.clustersFor(size))
		if err := d.writeChain(first, data); err != nil {
			_ = d.fat.free(first)
			return Entry{}, err
		}
	}

	entry := Entry{
		Name:         name,
		Extension:    extension,
		FirstCluster: first,
		Size:         size,
		Modified:     time.Now().UTC(),
	}

	if err := d.insertEntry(dir, entry); err != nil {
		if first != noCluster {
			_ = d.fat.free(first)
		}
		return Entry{}, err
	}

	return entry, nil
}

// appendFile writes size new bytes directly after the current end of
// content, extending the chain only by the clusters the shortfall needs.
func (d *Disk) appendFile(dir Entry, name, extension string, size uint32, source Source) error {
	s, err := d.findEntry(dir, name, extension)
	if err != nil {
		return err
	}
	entry := s.entry

	if entry.IsDir() {
		return checkpoint.From(ErrNotAFile)
	}
	if entry.IsReadOnly() {
		return checkpoint.From(ErrReadOnly)
	}
	if size == 0 {
		return nil
	}

	data, err := drain(source, size)
	if err != nil {
		return err
	}

	newSize := entry.Size + size

	if entry.FirstCluster == noCluster {
		first, err := d.fat.allocate(d.clustersFor(size))
		if err != nil {
			return err
		}
		if err := d.writeChain(first, data); err != nil {
			_ = d.fat.free(first)
			return err
		}
		entry.FirstCluster = first
	} else {
		chain, err := d.fat.chain(entry.FirstCluster)
		if err != nil {
			return err
		}

		capacity := uint32(len(chain)) * d.header.ClusterSize
		if newSize > capacity {
			if err := d.fat.extend(entry.FirstCluster, d.clustersFor(newSize-capacity)); err != nil {
				return err
			}
			d.log.Debug("chain extended", "first", entry.FirstCluster, "extra", d.clustersFor(newSize-capacity))
		}

		content, err := d.readChain(entry.FirstCluster)
		if err != nil {
			return err
		}
		copy(content[entry.Size:], data)
		if err := d.writeChain(entry.FirstCluster, content); err != nil {
			return err
		}
	}

	entry.Size = newSize
	entry.Modified = time.Now().UTC()
	return d.updateEntry(dir, name, extension, entry)
}

// readFile returns the exact content bytes of a file, without the zero
// padding of the final cluster.
func (d *Disk) readFile(dir Entry, name, extension string) ([]byte, error) {
	s, err := d.findEntry(dir, name, extension)
	if err != nil {
		return nil, err
	}
	if s.entry.IsDir() {
		return nil, checkpoint.From(ErrNotAFile)
	}

	data, err := d.readChain(s.entry.FirstCluster)
	if err != nil {
		return nil, err
	}
	return data[:s.entry.Size], nil
}

// copyFile copies a file's clusters verbatim into a fresh chain and inserts
// the copy into the destination directory. The source stays untouched.
func (d *Disk) copyFile(srcDir Entry, srcName, srcExtension string, dstDir Entry, dstName, dstExtension string) error {
	s, err := d.findEntry(srcDir, srcName, srcExtension)
	if err != nil {
		return err
	}
	src := s.entry

	if src.IsDir() {
		return checkpoint.From(ErrNotAFile)
	}

	dstName = trimIdentifier(dstName, maxNameLen)
	dstExtension = trimIdentifier(dstExtension, maxExtensionLen)
	if _, err := d.findEntry(dstDir, dstName, dstExtension); err == nil {
		return checkpoint.From(ErrDuplicateName)
	}

	first := noCluster
	if src.FirstCluster != noCluster {
		srcChain, err := d.fat.chain(src.FirstCluster)
		if err != nil {
			return err
		}

		first, err = d.fat.allocate(len(srcChain))
		if err != nil {
			return err
		}

		dstChain, err := d.fat.chain(first)
		if err != nil {
			return err
		}
		for i := range srcChain {
			cluster := make([]byte, d.header.ClusterSize)
			copy(cluster, d.clusters[srcChain[i]])
			d.clusters[dstChain[i]] = cluster
		}
	}

	entry := Entry{
		Name:         dstName,
		Extension:    dstExtension,
		Attributes:   src.Attributes,
		FirstCluster: first,
		Size:         src.Size,
		Modified:     time.Now().UTC(),
	}

	if err := d.insertEntry(dstDir, entry); err != nil {
		if first != noCluster {
			_ = d.fat.free(first)
		}
		return err
	}
	return nil
}

// renameEntry changes an entry's identity in place. Chain and attributes
// stay untouched.
func (d *Disk) renameEntry(dir Entry, oldName, oldExtension, newName, newExtension string) error {
	s, err := d.findEntry(dir, oldName, oldExtension)
	if err != nil {
		return err
	}
	entry := s.entry

	if entry.IsReadOnly() {
		return checkpoint.From(ErrReadOnly)
	}

	newName = trimIdentifier(newName, maxNameLen)
	newExtension = trimIdentifier(newExtension, maxExtensionLen)

	if !entry.sameIdentity(newName, newExtension) {
		if _, err := d.findEntry(dir, newName, newExtension); err == nil {
			return checkpoint.From(ErrDuplicateName)
		}
	}

	entry.Name = newName
	entry.Extension = newExtension
	entry.Modified = time.Now().UTC()
	return d.updateEntry(dir, oldName, oldExtension, entry)
}

// removeEntryDeep deletes a file, or a directory with everything below it.
// Chains are freed depth first before the record is tombstoned in the
// parent.
func (d *Disk) removeEntryDeep(dir Entry, name, extension string) error {
	s, err := d.findEntry(dir, name, extension)
	if err != nil {
		return err
	}
	entry := s.entry

	if entry.IsReadOnly() {
		return checkpoint.From(ErrReadOnly)
	}

	if entry.IsDir() {
		if err := d.freeEntryChains(entry); err != nil {
			return err
		}
	}
	if entry.FirstCluster != noCluster {
		if err := d.fat.free(entry.FirstCluster); err != nil {
			return err
		}
	}

	_, err = d.removeEntry(dir, name, extension)
	return err
}

// makeDirectory creates an empty subdirectory backed by one zeroed cluster.
func (d *Disk) makeDirectory(dir Entry, name string) (Entry, error) {
	name = trimIdentifier(name, maxNameLen)

	if _, err := d.findEntry(dir, name, ""); err == nil {
		return Entry{}, checkpoint.From(ErrDuplicateName)
	}

	first, err := d.fat.allocate(1)
	if err != nil {
		return Entry{}, err
	}
	if err := d.writeChain(first, nil); err != nil {
		_ = d.fat.free(first)
		return Entry{}, err
	}

	entry := Entry{
		Name:         name,
		Attributes:   AttrDirectory,
		FirstCluster: first,
		Modified:     time.Now().UTC(),
	}

	if err := d.insertEntry(dir, entry); err != nil {
		_ = d.fat.free(first)
		return Entry{}, err
	}
	return entry, nil
}

// changeAttributes applies an ordered toggle sequence to an entry.
func (d *Disk) changeAttributes(dir Entry, name, extension string, toggles []AttrToggle) error {
	s, err := d.findEntry(dir, name, extension)
	if err != nil {
		return err
	}
	entry := s.entry

	attributes, err := applyToggles(entry.Attributes, toggles)
	if err != nil {
		return err
	}

	entry.Attributes = attributes
	entry.Modified = time.Now().UTC()
	return d.updateEntry(dir, name, extension, entry)
}
