package fatfs

import (
	"errors"
	"fmt"
	"os"

	"github.com/aligator/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while accessing the backing partition file.
var (
	ErrDeviceNotOpen = errors.New("partition file not open")
	ErrClusterRange  = errors.New("cluster index out of range")
	ErrShortTransfer = errors.New("short cluster transfer")
	ErrBadBufferSize = errors.New("buffer is not one cluster")
)

// clusterDevice is the cluster-granular view of the partition.
// It mainly exists to be able to mock the backing file in tests.
type clusterDevice interface {
	ReadCluster(index uint16, buf []byte) error
	WriteCluster(index uint16, buf []byte) error
}

// Device exposes the backing file as an array of fixed-size clusters. The
// file is reached through an afero filesystem so tests can run on an
// in-memory one.
//
// The file handle is opened lazily: reads require the file to exist, while
// the first write creates it. Reset truncates the file to the full
// partition size, which is how the format operation starts over.
type Device struct {
	fsys afero.Fs
	name string
	file afero.File
}

// NewDevice returns a device over the named partition file. Nothing is
// opened until the first cluster access.
func NewDevice(fsys afero.Fs, name string) *Device {
	return &Device{fsys: fsys, name: name}
}

func (d *Device) open(create bool) error {
	if d.file != nil {
		return nil
	}
	flag := os.O_RDWR
	if create {
		flag |= os.O_CREATE
	}
	file, err := d.fsys.OpenFile(d.name, flag, 0644)
	if err != nil {
		return checkpoint.Wrap(err, ErrDeviceNotOpen)
	}
	d.file = file
	return nil
}

// ReadCluster fills buf with the full cluster at the given index.
func (d *Device) ReadCluster(index uint16, buf []byte) error {
	if err := d.open(false); err != nil {
		return err
	}
	if index >= ClusterCount {
		return checkpoint.Wrap(fmt.Errorf("cluster %d", index), ErrClusterRange)
	}
	if len(buf) != ClusterSize {
		return checkpoint.From(ErrBadBufferSize)
	}
	n, err := d.file.ReadAt(buf, int64(index)*ClusterSize)
	if err != nil {
		return checkpoint.Wrap(err, ErrShortTransfer)
	}
	if n != ClusterSize {
		return checkpoint.Wrap(fmt.Errorf("read %d of %d bytes", n, ClusterSize), ErrShortTransfer)
	}
	return nil
}

// WriteCluster writes buf as the full cluster at the given index. The data
// is synced to durable storage before returning, so every mutation is
// visible on disk once the operation that issued it completes.
func (d *Device) WriteCluster(index uint16, buf []byte) error {
	if err := d.open(true); err != nil {
		return err
	}
	if index >= ClusterCount {
		return checkpoint.Wrap(fmt.Errorf("cluster %d", index), ErrClusterRange)
	}
	if len(buf) != ClusterSize {
		return checkpoint.From(ErrBadBufferSize)
	}
	n, err := d.file.WriteAt(buf, int64(index)*ClusterSize)
	if err != nil {
		return checkpoint.Wrap(err, ErrShortTransfer)
	}
	if n != ClusterSize {
		return checkpoint.Wrap(fmt.Errorf("wrote %d of %d bytes", n, ClusterSize), ErrShortTransfer)
	}
	if err := d.file.Sync(); err != nil {
		return checkpoint.From(err)
	}
	return nil
}

// Reset recreates the backing file as an empty partition of the exact
// partition size. Any previously open handle is dropped first.
func (d *Device) Reset() error {
	if d.file != nil {
		if err := d.file.Close(); err != nil {
			return checkpoint.From(err)
		}
		d.file = nil
	}
	file, err := d.fsys.OpenFile(d.name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return checkpoint.Wrap(err, ErrDeviceNotOpen)
	}
	if err := file.Truncate(PartitionSize); err != nil {
		file.Close()
		return checkpoint.From(err)
	}
	d.file = file
	return nil
}

// Close releases the backing file handle. The device can be used again
// afterwards; the next access reopens the file.
func (d *Device) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return checkpoint.From(err)
}
