package fatfs

import (
	"bytes"
	"io"
	"os"

	"github.com/aligator/checkpoint"
)

// Mkdir creates a new directory at the given absolute path. The parent must
// already exist and be a directory with a free slot; one data cluster is
// allocated and zeroed for the new directory's own records.
func (fs *Fs) Mkdir(path string) error {
	return fs.newEntry(path, AttrDirectory)
}

// Create creates a new empty file at the given absolute path. Like every
// file it owns one allocated cluster from the start, but with size 0 the
// cluster content is never read, so it is not zeroed on disk.
func (fs *Fs) Create(path string) error {
	return fs.newEntry(path, AttrFile)
}

// newEntry is the shared insertion path of Mkdir and Create. A name longer
// than the field allows is truncated; an existing name in the parent is not
// checked for, so a duplicate slot is possible.
func (fs *Fs) newEntry(path string, attr byte) error {
	if err := fs.requireLoaded(); err != nil {
		return err
	}

	parentPath, name, err := splitParent(path)
	if err != nil {
		return err
	}

	parent, err := fs.resolve(parentPath)
	if err != nil {
		return err
	}
	if !parent.found {
		return checkpoint.From(ErrNotFound)
	}
	if !parent.entry.IsDir() {
		return checkpoint.From(ErrNotDirectory)
	}

	dir, err := fs.readDirCluster(parent.entryCluster)
	if err != nil {
		return err
	}
	slot := findFreeSlot(dir)
	if slot < 0 {
		return checkpoint.From(ErrDirectoryFull)
	}

	newCluster := fs.findFreeCluster()
	if newCluster == 0 {
		return checkpoint.From(ErrNoSpace)
	}

	e := &dir[slot]
	*e = DirEntry{}
	e.setName(name)
	e.Attribute = attr
	e.FirstCluster = newCluster
	e.Size = 0

	fs.table.Set(newCluster, entryEndOfChain)

	if attr == AttrDirectory {
		// The new directory starts out with 32 empty records.
		if err := fs.dev.WriteCluster(newCluster, make([]byte, ClusterSize)); err != nil {
			return err
		}
	}

	if err := fs.writeDirCluster(parent.entryCluster, dir); err != nil {
		return err
	}
	return fs.table.Persist(fs.dev)
}

// Unlink removes a file or an empty directory. The chain is returned to the
// free list and the 32-byte slot in the parent is zeroed. The root cannot
// be unlinked.
func (fs *Fs) Unlink(path string) error {
	if err := fs.requireLoaded(); err != nil {
		return err
	}

	components, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		return checkpoint.From(ErrIsRoot)
	}

	res, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if !res.found {
		return checkpoint.From(ErrNotFound)
	}

	if res.entry.IsDir() {
		dir, err := fs.readDirCluster(res.entryCluster)
		if err != nil {
			return err
		}
		for i := range dir {
			if dir[i].InUse() {
				return checkpoint.From(ErrNotEmpty)
			}
		}
	}

	fs.freeChain(res.entry.FirstCluster)

	// Re-read the parent right before the mutation instead of using a
	// snapshot from the resolve walk.
	parent, err := fs.readDirCluster(res.parentCluster)
	if err != nil {
		return err
	}
	parent[res.entryIndex] = DirEntry{}

	if err := fs.writeDirCluster(res.parentCluster, parent); err != nil {
		return err
	}
	return fs.table.Persist(fs.dev)
}

// ReadTo copies the whole content of the file at path into w: exactly Size
// bytes, following the chain cluster by cluster. Any presentation framing
// (such as a trailing newline) is left to the caller.
func (fs *Fs) ReadTo(w io.Writer, path string) error {
	if err := fs.requireLoaded(); err != nil {
		return err
	}

	res, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if !res.found {
		return checkpoint.From(ErrNotFound)
	}
	if res.entry.IsDir() {
		return checkpoint.From(ErrNotFile)
	}

	remaining := int64(res.entry.Size)
	buf := make([]byte, ClusterSize)
	it := newChainIter(&fs.table, res.entry.FirstCluster)
	for remaining > 0 {
		cluster, ok := it.Next()
		if !ok {
			break
		}
		if err := fs.dev.ReadCluster(cluster, buf); err != nil {
			return err
		}
		n := remaining
		if n > ClusterSize {
			n = ClusterSize
		}
		if _, err := w.Write(buf[:n]); err != nil {
			return checkpoint.From(err)
		}
		remaining -= n
	}
	return it.Err()
}

// ReadFile returns the whole content of the file at path.
func (fs *Fs) ReadFile(path string) ([]byte, error) {
	var out bytes.Buffer
	if err := fs.ReadTo(&out, path); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Write replaces the content of the file at path. The old chain is freed
// first, then one cluster per 1024-byte slice of data is allocated and
// linked; a final partial slice is zero-padded inside its cluster. If the
// partition runs out mid-way the freshly built chain is rolled back and
// the entry keeps its previous size on disk. An empty write still leaves
// the file with one allocated end-of-chain cluster.
func (fs *Fs) Write(path string, data []byte) error {
	if err := fs.requireLoaded(); err != nil {
		return err
	}

	res, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if !res.found {
		return checkpoint.From(ErrNotFound)
	}
	if res.entry.IsDir() {
		return checkpoint.From(ErrNotFile)
	}

	fs.freeChain(res.entry.FirstCluster)

	var first, current uint16
	if len(data) == 0 {
		first = fs.findFreeCluster()
		if first == 0 {
			return checkpoint.From(ErrNoSpace)
		}
		fs.table.Set(first, entryEndOfChain)
	} else {
		buf := make([]byte, ClusterSize)
		for off := 0; off < len(data); off += ClusterSize {
			next := fs.findFreeCluster()
			if next == 0 {
				fs.freeChain(first)
				return checkpoint.From(ErrNoSpace)
			}
			if first == 0 {
				first = next
			} else {
				fs.table.Set(current, fatEntry(next))
			}
			current = next
			fs.table.Set(current, entryEndOfChain)

			for i := range buf {
				buf[i] = 0
			}
			copy(buf, data[off:])
			if err := fs.dev.WriteCluster(current, buf); err != nil {
				return err
			}
		}
	}

	parent, err := fs.readDirCluster(res.parentCluster)
	if err != nil {
		return err
	}
	parent[res.entryIndex].FirstCluster = first
	parent[res.entryIndex].Size = uint32(len(data))

	if err := fs.writeDirCluster(res.parentCluster, parent); err != nil {
		return err
	}
	return fs.table.Persist(fs.dev)
}

// Append extends the file at path with data. The tail cluster is found by
// walking the chain; a full tail gets a fresh cluster linked behind it,
// otherwise writing continues at size mod 1024 inside the tail. Appending
// nothing succeeds without touching the disk.
//
// There is no rollback here: if the partition runs out mid-append the
// already written clusters stay allocated but the entry's size is not
// updated, so they leak until the next format.
func (fs *Fs) Append(path string, data []byte) error {
	if err := fs.requireLoaded(); err != nil {
		return err
	}

	res, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if !res.found {
		return checkpoint.From(ErrNotFound)
	}
	if res.entry.IsDir() {
		return checkpoint.From(ErrNotFile)
	}
	if len(data) == 0 {
		return nil
	}

	size := res.entry.Size
	current := res.entry.FirstCluster
	if size > 0 {
		current, err = fs.chainTail(current)
		if err != nil {
			return err
		}
	}

	buf := make([]byte, ClusterSize)
	offset := int(size % ClusterSize)
	if offset == 0 && size > 0 {
		// The tail is full; writing starts in a fresh cluster.
		current = fs.extendChain(current)
		if current == 0 {
			return checkpoint.From(ErrNoSpace)
		}
	} else {
		if err := fs.dev.ReadCluster(current, buf); err != nil {
			return err
		}
	}

	remaining := data
	for len(remaining) > 0 {
		n := copy(buf[offset:], remaining)
		remaining = remaining[n:]

		if err := fs.dev.WriteCluster(current, buf); err != nil {
			return err
		}

		if len(remaining) > 0 {
			current = fs.extendChain(current)
			if current == 0 {
				return checkpoint.From(ErrNoSpace)
			}
			offset = 0
			for i := range buf {
				buf[i] = 0
			}
		}
	}

	parent, err := fs.readDirCluster(res.parentCluster)
	if err != nil {
		return err
	}
	parent[res.entryIndex].Size = size + uint32(len(data))

	if err := fs.writeDirCluster(res.parentCluster, parent); err != nil {
		return err
	}
	return fs.table.Persist(fs.dev)
}

// chainTail walks from head to the last cluster of the chain.
func (fs *Fs) chainTail(head uint16) (uint16, error) {
	it := newChainIter(&fs.table, head)
	tail := head
	for cluster, ok := it.Next(); ok; cluster, ok = it.Next() {
		tail = cluster
	}
	return tail, it.Err()
}

// Stat returns the metadata of the entry at path.
func (fs *Fs) Stat(path string) (os.FileInfo, error) {
	if err := fs.requireLoaded(); err != nil {
		return nil, err
	}

	res, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	if !res.found {
		return nil, checkpoint.From(ErrNotFound)
	}
	return res.entry.FileInfo(), nil
}

// List returns the occupied entries of the directory at path in slot
// order, or the single entry itself when path names a file.
func (fs *Fs) List(path string) ([]os.FileInfo, error) {
	if err := fs.requireLoaded(); err != nil {
		return nil, err
	}

	res, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	if !res.found {
		return nil, checkpoint.From(ErrNotFound)
	}

	if !res.entry.IsDir() {
		return []os.FileInfo{res.entry.FileInfo()}, nil
	}

	entries, err := fs.readDir(res.entryCluster)
	if err != nil {
		return nil, err
	}
	infos := make([]os.FileInfo, len(entries))
	for i := range entries {
		infos[i] = entries[i].FileInfo()
	}
	return infos, nil
}

// readDir returns the occupied records of one directory cluster.
func (fs *Fs) readDir(cluster uint16) ([]DirEntry, error) {
	dir, err := fs.readDirCluster(cluster)
	if err != nil {
		return nil, err
	}
	var entries []DirEntry
	for i := range dir {
		if dir[i].InUse() {
			entries = append(entries, dir[i])
		}
	}
	return entries, nil
}

// readFileAt reads up to readSize bytes of a file's content starting at
// offset, walking the chain from first and skipping whole clusters before
// the offset. Reads past fileSize are clipped.
func (fs *Fs) readFileAt(first uint16, fileSize, offset, readSize int64) ([]byte, error) {
	if offset >= fileSize {
		return nil, io.EOF
	}
	if readSize > fileSize-offset {
		readSize = fileSize - offset
	}

	out := make([]byte, 0, readSize)
	buf := make([]byte, ClusterSize)
	pos := int64(0)
	it := newChainIter(&fs.table, first)
	for int64(len(out)) < readSize {
		cluster, ok := it.Next()
		if !ok {
			break
		}
		if pos+ClusterSize <= offset {
			pos += ClusterSize
			continue
		}
		if err := fs.dev.ReadCluster(cluster, buf); err != nil {
			return out, err
		}

		start := int64(0)
		if offset > pos {
			start = offset - pos
		}
		end := start + readSize - int64(len(out))
		if end > ClusterSize {
			end = ClusterSize
		}
		out = append(out, buf[start:end]...)
		pos += ClusterSize
	}
	if err := it.Err(); err != nil {
		return out, err
	}
	return out, nil
}
