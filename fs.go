// Package fatfs implements a simplified FAT16 file system living inside a
// single 4 MiB backing file. The layout is fixed: cluster 0 is the boot
// block, clusters 1..8 hold the allocation table, cluster 9 the root
// directory and everything from cluster 10 on is the data area.
package fatfs

import (
	"errors"

	"github.com/aligator/checkpoint"
	"github.com/spf13/afero"
)

// PartitionName is the backing file used when none is given: a relative
// path resolved against the working directory at process start.
const PartitionName = "fat.part"

// These errors may occur while running file system operations.
var (
	ErrNotLoaded     = errors.New("file system not loaded")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNotFound      = errors.New("no such file or directory")
	ErrNotDirectory  = errors.New("not a directory")
	ErrNotFile       = errors.New("not a file")
	ErrDirectoryFull = errors.New("directory is full")
	ErrNoSpace       = errors.New("no space left on device")
	ErrNotEmpty      = errors.New("directory not empty")
	ErrIsRoot        = errors.New("cannot unlink the root directory")
)

// Fs is the file system service: the cluster device plus the in-memory
// mirror of the allocation table. It is not safe for concurrent use; the
// model is a single caller invoking one operation at a time.
//
// After construction the service is uninitialized. Format brings the
// partition into a known state, Load reads the allocation table into the
// mirror; every other operation requires a loaded mirror and fails with
// ErrNotLoaded otherwise. Format invalidates a previous Load.
type Fs struct {
	dev    *Device
	table  Table
	loaded bool
}

// New returns a file system service over the named partition file. The
// file is not touched yet; run Format to create it or Load to use an
// existing one.
func New(fsys afero.Fs, name string) *Fs {
	return &Fs{dev: NewDevice(fsys, name)}
}

// NewDefault returns a service over PartitionName on the OS filesystem.
func NewDefault() *Fs {
	return New(afero.NewOsFs(), PartitionName)
}

// Format initializes the partition from scratch: the backing file is
// recreated at the full partition size, the boot cluster stamped, the
// allocation table reset and persisted and the root directory zeroed. The
// data area is left implicitly zero by the truncation.
//
// The mirror is not considered loaded afterwards; call Load before any
// further operation.
func (fs *Fs) Format() error {
	if err := fs.dev.Reset(); err != nil {
		return err
	}

	fs.table.Reset()

	boot := make([]byte, ClusterSize)
	for i := range boot {
		boot[i] = bootFill
	}
	if err := fs.dev.WriteCluster(BootCluster, boot); err != nil {
		return err
	}

	if err := fs.table.Persist(fs.dev); err != nil {
		return err
	}

	if err := fs.dev.WriteCluster(RootCluster, make([]byte, ClusterSize)); err != nil {
		return err
	}

	fs.loaded = false
	return nil
}

// Load reads the allocation table from disk into the mirror and marks the
// service ready for operations.
func (fs *Fs) Load() error {
	if err := fs.table.Load(fs.dev); err != nil {
		return err
	}
	fs.loaded = true
	return nil
}

// Loaded reports whether the allocation table mirror is in memory.
func (fs *Fs) Loaded() bool {
	return fs.loaded
}

// Close releases the backing file.
func (fs *Fs) Close() error {
	fs.loaded = false
	return fs.dev.Close()
}

func (fs *Fs) requireLoaded() error {
	if !fs.loaded {
		return checkpoint.From(ErrNotLoaded)
	}
	return nil
}

// readDirCluster decodes the directory records stored in the given cluster.
func (fs *Fs) readDirCluster(cluster uint16) (*dirCluster, error) {
	buf := make([]byte, ClusterSize)
	if err := fs.dev.ReadCluster(cluster, buf); err != nil {
		return nil, err
	}
	return decodeDirCluster(buf), nil
}

// writeDirCluster encodes the records back into the given cluster.
func (fs *Fs) writeDirCluster(cluster uint16, d *dirCluster) error {
	buf := make([]byte, ClusterSize)
	d.encode(buf)
	return fs.dev.WriteCluster(cluster, buf)
}
