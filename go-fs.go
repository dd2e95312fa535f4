package fatfs

import (
	"io/fs"

	"github.com/aligator/checkpoint"
)

// GoDirEntry adapts an os.FileInfo to fs.DirEntry.
type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

// GoFile wraps File so directories satisfy fs.ReadDirFile.
type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(p []byte) (int, error) {
	return g.File.Read(p)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs exposes the partition as an fs.FS. Paths follow the io/fs
// convention: unrooted, with "." naming the root directory.
type GoFs struct {
	Fs *Fs
}

// NewGoFS wraps an already loaded file system service as fs.FS.
func NewGoFS(fatfs *Fs) *GoFs {
	return &GoFs{Fs: fatfs}
}

func (g GoFs) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	path := "/"
	if name != "." {
		path += name
	}

	file, err := g.Fs.Open(path)
	if err != nil {
		return nil, checkpoint.Wrap(err, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist})
	}

	return GoFile{file}, nil
}
