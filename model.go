// File model contains the constants and structs which match the on-disk structures of the partition.

package fatfs

import (
	"bytes"
	"encoding/binary"
)

// Partition geometry. The backing file is a fixed sequence of 4096 clusters
// of 1024 bytes each, addressed by a 16-bit cluster index.
const (
	ClusterSize   = 1024
	ClusterCount  = 4096
	PartitionSize = ClusterSize * ClusterCount

	BootCluster = 0
	FatStart    = 1
	FatClusters = 8
	RootCluster = 9
	DataStart   = 10
)

// bootFill is the byte the format routine stamps over the whole boot cluster.
const bootFill = 0xBB

// Directory geometry. A directory occupies exactly one cluster holding 32
// fixed-size records.
const (
	DirEntrySize         = 32
	DirEntriesPerCluster = ClusterSize / DirEntrySize

	// MaxNameBytes is the usable name length. The on-disk field is 18 bytes
	// and always keeps a terminating NUL.
	MaxNameBytes  = 17
	nameFieldSize = 18
)

// Directory entry attribute values.
const (
	AttrFile      = 0x00
	AttrDirectory = 0x01
)

// DirEntry is one 32-byte directory record.
//
// A slot is empty iff Name[0] == 0. The name is NUL-terminated inside the
// fixed field; the seven reserved bytes are written as zeros and ignored on
// read. FirstCluster is the head of the entry's cluster chain and Size the
// byte count (directories report 0).
type DirEntry struct {
	Name         [nameFieldSize]byte
	Attribute    byte
	Reserved     [7]byte
	FirstCluster uint16
	Size         uint32
}

// InUse reports whether the slot holds an entry.
func (e *DirEntry) InUse() bool {
	return e.Name[0] != 0
}

// IsDir reports whether the entry names a directory.
func (e *DirEntry) IsDir() bool {
	return e.Attribute == AttrDirectory
}

// EntryName returns the name up to the terminating NUL.
func (e *DirEntry) EntryName() string {
	if i := bytes.IndexByte(e.Name[:], 0); i >= 0 {
		return string(e.Name[:i])
	}
	return string(e.Name[:])
}

// setName copies name into the fixed field, truncating to MaxNameBytes so
// the terminating NUL always fits.
func (e *DirEntry) setName(name string) {
	e.Name = [nameFieldSize]byte{}
	b := []byte(name)
	if len(b) > MaxNameBytes {
		b = b[:MaxNameBytes]
	}
	copy(e.Name[:], b)
}

// dirCluster is the decoded form of one directory cluster.
type dirCluster [DirEntriesPerCluster]DirEntry

// decodeDirCluster reads the 32 records out of a raw cluster buffer.
// Integer fields are little-endian; names are copied verbatim.
func decodeDirCluster(buf []byte) *dirCluster {
	var d dirCluster
	for i := range d {
		rec := buf[i*DirEntrySize : (i+1)*DirEntrySize]
		e := &d[i]
		copy(e.Name[:], rec[0:nameFieldSize])
		e.Attribute = rec[18]
		copy(e.Reserved[:], rec[19:26])
		e.FirstCluster = binary.LittleEndian.Uint16(rec[26:28])
		e.Size = binary.LittleEndian.Uint32(rec[28:32])
	}
	return &d
}

// encode writes the 32 records into buf, which must hold a full cluster.
// The reserved bytes are emitted as zeros regardless of what a decode saw.
func (d *dirCluster) encode(buf []byte) {
	for i := range buf[:ClusterSize] {
		buf[i] = 0
	}
	for i := range d {
		rec := buf[i*DirEntrySize : (i+1)*DirEntrySize]
		e := &d[i]
		copy(rec[0:nameFieldSize], e.Name[:])
		rec[18] = e.Attribute
		binary.LittleEndian.PutUint16(rec[26:28], e.FirstCluster)
		binary.LittleEndian.PutUint32(rec[28:32], e.Size)
	}
}
