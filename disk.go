package rodos

import (
	"io"
	"log/slog"
	"strings"

	"github.com/aligator/rodos/checkpoint"
	"github.com/spf13/afero"
)

// Disk is the single shared-mutable resource owning the cluster store, the
// allocation table and the directory tree. Every engine operation goes
// through it; persistence happens only on explicit Save calls.
type Disk struct {
	header   Header
	fat      table
	clusters [][]byte

	fsys afero.Fs
	path string
	log  *slog.Logger

	// wd holds the working directory as path components from root. It is
	// never persisted.
	wd []string
}

// Option configures a Disk on creation.
type Option func(*Disk)

// WithLogger attaches a logger. By default the Disk does not log.
func WithLogger(log *slog.Logger) Option {
	return func(d *Disk) {
		d.log = log
	}
}

// New creates a freshly formatted disk backed by the image file at path
// inside fsys. The image is not written until Save is called.
func New(fsys afero.Fs, path string, clusterSize, clusterCount uint32, tableWidth uint8, options ...Option) (*Disk, error) {
	disk := &Disk{
		header: newHeader(clusterSize, clusterCount, tableWidth),
		fsys:   fsys,
		path:   path,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(disk)
	}

	if err := disk.header.validate(); err != nil {
		return nil, err
	}

	disk.reset()
	disk.log.Info("disk initialized",
		"clusterSize", clusterSize,
		"clusterCount", clusterCount,
		"tableWidth", tableWidth)

	return disk, nil
}

// Open loads a persisted disk image from the file at path inside fsys.
func Open(fsys afero.Fs, path string, options ...Option) (*Disk, error) {
	disk := &Disk{
		fsys: fsys,
		path: path,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(disk)
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrInvalidImage)
	}

	header, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	disk.header = header

	tableOffset := headerSize()
	tableSize := int(header.ClusterCount) * int(header.TableWidth) / 8
	dataOffset := tableOffset + tableSize

	if len(data) < dataOffset+int(header.ClusterCount)*int(header.ClusterSize) {
		return nil, checkpoint.From(ErrInvalidImage)
	}

	disk.fat, err = decodeTable(data[tableOffset:dataOffset], header.TableWidth, header.ClusterCount)
	if err != nil {
		return nil, err
	}

	disk.clusters = make([][]byte, header.ClusterCount)
	for i := range disk.clusters {
		cluster := make([]byte, header.ClusterSize)
		copy(cluster, data[dataOffset+i*int(header.ClusterSize):])
		disk.clusters[i] = cluster
	}

	disk.log.Info("disk image loaded", "path", path, "clusterCount", header.ClusterCount)
	return disk, nil
}

// Save persists the whole image: header, allocation table, data region.
func (d *Disk) Save() error {
	header, err := d.header.encode()
	if err != nil {
		return err
	}

	data := make([]byte, 0, len(header)+len(d.fat)*int(d.header.TableWidth)/8+len(d.clusters)*int(d.header.ClusterSize))
	data = append(data, header...)
	data = append(data, d.fat.encode(d.header.TableWidth)...)
	for _, cluster := range d.clusters {
		data = append(data, cluster...)
	}

	if err := afero.WriteFile(d.fsys, d.path, data, 0644); err != nil {
		return checkpoint.From(err)
	}

	d.log.Info("disk image saved", "path", d.path, "bytes", len(data))
	return nil
}

// Format destructively reinitializes the disk: every cluster becomes free
// except the reserved root seed, the root directory is recreated empty and
// the given table width is recorded for the persisted encoding.
func (d *Disk) Format(tableWidth uint8) error {
	header := d.header
	header.TableWidth = tableWidth
	if err := header.validate(); err != nil {
		return err
	}

	d.header = header
	d.reset()

	d.log.Info("disk formatted", "tableWidth", tableWidth)
	return nil
}

func (d *Disk) reset() {
	d.fat = newTable(d.header.ClusterCount)
	d.clusters = make([][]byte, d.header.ClusterCount)
	for i := range d.clusters {
		d.clusters[i] = make([]byte, d.header.ClusterSize)
	}
	d.wd = nil
}

// FreeSpace reports the free space in bytes, derived from the free cluster
// count.
func (d *Disk) FreeSpace() uint64 {
	return uint64(d.fat.freeCount()) * uint64(d.header.ClusterSize)
}

// TotalSpace reports the total capacity in bytes.
func (d *Disk) TotalSpace() uint64 {
	return uint64(d.header.ClusterCount) * uint64(d.header.ClusterSize)
}

// FreeClusters reports the number of free clusters.
func (d *Disk) FreeClusters() int {
	return d.fat.freeCount()
}

// Header returns the current image header.
func (d *Disk) Header() Header {
	return d.header
}

// rootEntry is the implicit entry of the root directory. The root has no
// record in any parent, only the reserved seed cluster from the header.
func (d *Disk) rootEntry() Entry {
	return Entry{
		Name:         "/",
		Attributes:   AttrDirectory,
		FirstCluster: d.header.RootCluster,
	}
}

// readChain returns the concatenated bytes of all clusters of a chain.
func (d *Disk) readChain(start uint32) ([]byte, error) {
	chain, err := d.fat.chain(start)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, len(chain)*int(d.header.ClusterSize))
	for _, cluster := range chain {
		data = append(data, d.clusters[cluster]...)
	}
	return data, nil
}

// writeChain distributes data over the clusters of a chain in chain order.
// The tail of the final cluster is zero-padded. The chain must be large
// enough to hold the data.
func (d *Disk) writeChain(start uint32, data []byte) error {
	chain, err := d.fat.chain(start)
	if err != nil {
		return err
	}

	clusterSize := int(d.header.ClusterSize)
	if len(data) > len(chain)*clusterSize {
		return checkpoint.From(ErrCorruptChain)
	}

	for i, cluster := range chain {
		chunk := make([]byte, clusterSize)
		offset := i * clusterSize
		if offset < len(data) {
			copy(chunk, data[offset:])
		}
		d.clusters[cluster] = chunk
	}
	return nil
}

// clustersFor returns how many clusters a payload of the given byte size
// occupies.
func (d *Disk) clustersFor(size uint32) int {
	clusterSize := d.header.ClusterSize
	return int((size + clusterSize - 1) / clusterSize)
}

// WorkingDirectory returns the absolute path of the current working
// directory.
func (d *Disk) WorkingDirectory() string {
	return "/" + strings.Join(d.wd, "/")
}

// ChangeDirectory moves the working directory cursor. The path may be
// absolute or relative and may contain "." and ".." components.
func (d *Disk) ChangeDirectory(path string) error {
	components, err := d.resolveComponents(path)
	if err != nil {
		return err
	}

	if _, err := d.resolveDir(components); err != nil {
		return checkpoint.Wrap(err, ErrInvalidPath)
	}

	d.wd = components
	return nil
}

// workingDir resolves the current working directory to its entry. If a
// destructive operation removed it in the meantime, the cursor falls back
// component by component until it resolves again.
func (d *Disk) workingDir() (Entry, error) {
	for {
		entry, err := d.resolveDir(d.wd)
		if err == nil {
			return entry, nil
		}
		if len(d.wd) == 0 {
			return Entry{}, err
		}
		d.wd = d.wd[:len(d.wd)-1]
	}
}

// resolveComponents normalizes a path string against the working directory
// into components from root.
func (d *Disk) resolveComponents(path string) ([]string, error) {
	components := []string{}
	if !strings.HasPrefix(path, "/") {
		components = append(components, d.wd...)
	}

	for _, component := range strings.Split(path, "/") {
		switch component {
		case "", ".":
		case "..":
			if len(components) == 0 {
				return nil, checkpoint.From(ErrInvalidPath)
			}
			components = components[:len(components)-1]
		default:
			components = append(components, component)
		}
	}

	return components, nil
}
