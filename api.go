package rodos

// The operations below form the surface consumed by the shell layer. They
// all act relative to the working directory, take already-validated
// arguments and never produce human-readable output.

// Create creates a file in the working directory, filled with up to size
// bytes drained from the source.
func (d *Disk) Create(name, extension string, size uint32, source Source) (Entry, error) {
	dir, err := d.workingDir()
	if err != nil {
		return Entry{}, err
	}
	return d.createFile(dir, name, extension, size, source)
}

// Append appends size bytes from the source to a file in the working
// directory.
func (d *Disk) Append(name, extension string, size uint32, source Source) error {
	dir, err := d.workingDir()
	if err != nil {
		return err
	}
	return d.appendFile(dir, name, extension, size, source)
}

// ReadFile returns the exact content of a file in the working directory.
func (d *Disk) ReadFile(name, extension string) ([]byte, error) {
	dir, err := d.workingDir()
	if err != nil {
		return nil, err
	}
	return d.readFile(dir, name, extension)
}

// Copy duplicates a file within the working directory.
func (d *Disk) Copy(srcName, srcExtension, dstName, dstExtension string) error {
	dir, err := d.workingDir()
	if err != nil {
		return err
	}
	return d.copyFile(dir, srcName, srcExtension, dir, dstName, dstExtension)
}

// Rename changes the identity of a file or directory in the working
// directory.
func (d *Disk) Rename(oldName, oldExtension, newName, newExtension string) error {
	dir, err := d.workingDir()
	if err != nil {
		return err
	}
	return d.renameEntry(dir, oldName, oldExtension, newName, newExtension)
}

// Remove deletes a file, or a directory including everything below it, from
// the working directory.
func (d *Disk) Remove(name, extension string) error {
	dir, err := d.workingDir()
	if err != nil {
		return err
	}
	return d.removeEntryDeep(dir, name, extension)
}

// Mkdir creates an empty subdirectory in the working directory.
func (d *Disk) Mkdir(name string) (Entry, error) {
	dir, err := d.workingDir()
	if err != nil {
		return Entry{}, err
	}
	return d.makeDirectory(dir, name)
}

// ListDir lists the working directory.
func (d *Disk) ListDir(options ListOptions) ([]Entry, error) {
	dir, err := d.workingDir()
	if err != nil {
		return nil, err
	}
	return d.List(dir, options)
}

// SetAttributes applies up to two attribute toggles to an entry in the
// working directory.
func (d *Disk) SetAttributes(name, extension string, toggles ...AttrToggle) error {
	dir, err := d.workingDir()
	if err != nil {
		return err
	}
	return d.changeAttributes(dir, name, extension, toggles)
}
