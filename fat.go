package fatfs

import (
	"encoding/binary"
	"errors"

	"github.com/aligator/checkpoint"
)

// These errors may occur while working with the allocation table.
var (
	ErrLoadTable    = errors.New("could not load the allocation table")
	ErrPersistTable = errors.New("could not persist the allocation table")
	ErrCorruptChain = errors.New("corrupt cluster chain")
)

// fatEntry is one 16-bit slot of the allocation table. Values 0x0001..0xFFFC
// point at the next cluster of a chain; 0x0000 marks a free cluster and
// everything else is a sentinel.
type fatEntry uint16

const (
	entryFree       fatEntry = 0x0000
	entryBoot       fatEntry = 0xFFFD
	entryReserved   fatEntry = 0xFFFE
	entryEndOfChain fatEntry = 0xFFFF
)

func (e fatEntry) Value() uint16 {
	return uint16(e)
}

func (e fatEntry) IsFree() bool {
	return e == entryFree
}

func (e fatEntry) IsEndOfChain() bool {
	return e == entryEndOfChain
}

// IsSentinel reports whether the entry is any of the reserved markers
// (boot, reserved or end-of-chain).
func (e fatEntry) IsSentinel() bool {
	return e >= entryBoot
}

// IsNextCluster reports whether the entry points at a following cluster.
func (e fatEntry) IsNextCluster() bool {
	return e >= 0x0001 && e <= 0xFFFC
}

// fatEntriesPerCluster is how many 16-bit entries one FAT cluster holds.
const fatEntriesPerCluster = ClusterSize / 2

// Table is the in-memory mirror of the on-disk allocation table: one entry
// per cluster of the partition. It is loaded from the 8 FAT clusters and
// written back wholesale at the end of every successful mutation.
type Table struct {
	entries [ClusterCount]fatEntry
}

// Entry returns the entry for the given cluster.
func (t *Table) Entry(cluster uint16) fatEntry {
	return t.entries[cluster]
}

// Set replaces the entry for the given cluster in memory only. The change
// reaches the disk on the next Persist.
func (t *Table) Set(cluster uint16, v fatEntry) {
	t.entries[cluster] = v
}

// Reset fills the mirror with the values a fresh partition carries: all
// clusters free, the boot and FAT system region marked unusable and the
// root directory closed as a single-cluster chain.
func (t *Table) Reset() {
	for i := range t.entries {
		t.entries[i] = entryFree
	}
	t.entries[BootCluster] = entryBoot
	for i := FatStart; i < FatStart+FatClusters; i++ {
		t.entries[i] = entryReserved
	}
	t.entries[RootCluster] = entryEndOfChain
}

// Load reads the 8 FAT clusters sequentially into the mirror.
func (t *Table) Load(dev clusterDevice) error {
	buf := make([]byte, ClusterSize)
	for i := 0; i < FatClusters; i++ {
		if err := dev.ReadCluster(uint16(FatStart+i), buf); err != nil {
			return checkpoint.Wrap(err, ErrLoadTable)
		}
		base := i * fatEntriesPerCluster
		for j := 0; j < fatEntriesPerCluster; j++ {
			t.entries[base+j] = fatEntry(binary.LittleEndian.Uint16(buf[j*2:]))
		}
	}
	return nil
}

// Persist writes the whole mirror back to the 8 FAT clusters sequentially.
// The table is only 8 KiB, so rewriting it wholesale keeps a single source
// of truth for chain state.
func (t *Table) Persist(dev clusterDevice) error {
	buf := make([]byte, ClusterSize)
	for i := 0; i < FatClusters; i++ {
		base := i * fatEntriesPerCluster
		for j := 0; j < fatEntriesPerCluster; j++ {
			binary.LittleEndian.PutUint16(buf[j*2:], uint16(t.entries[base+j]))
		}
		if err := dev.WriteCluster(uint16(FatStart+i), buf); err != nil {
			return checkpoint.Wrap(err, ErrPersistTable)
		}
	}
	return nil
}

// chainIter yields the cluster indices of one chain in order, starting at
// its head. Read paths use it so that a sentinel other than end-of-chain
// surfaces as corruption instead of being followed.
type chainIter struct {
	table   *Table
	current fatEntry
	steps   int
	err     error
}

func newChainIter(t *Table, head uint16) *chainIter {
	return &chainIter{table: t, current: fatEntry(head)}
}

// Next returns the next cluster index of the chain. It reports false once
// the chain ended or an inconsistency was found; check Err afterwards.
func (it *chainIter) Next() (uint16, bool) {
	if it.err != nil || it.current.IsEndOfChain() || it.current.IsFree() {
		return 0, false
	}
	if it.current.IsSentinel() || uint16(it.current) >= ClusterCount {
		it.err = checkpoint.From(ErrCorruptChain)
		return 0, false
	}
	// A chain can never be longer than the data area.
	if it.steps++; it.steps > ClusterCount-DataStart {
		it.err = checkpoint.From(ErrCorruptChain)
		return 0, false
	}
	cluster := uint16(it.current)
	it.current = it.table.Entry(cluster)
	return cluster, true
}

// Err returns the inconsistency hit while walking, if any.
func (it *chainIter) Err() error {
	return it.err
}
