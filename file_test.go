package fatfs

import (
	"errors"
	"io"
	"os"
	"reflect"
	"syscall"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
)

// fakeFileInfo is just a fake FileInfo which does nothing and contains only
// fileSize to have something to check against.
type fakeFileInfo struct {
	name     string
	fileSize int64
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.fileSize }
func (f fakeFileInfo) Mode() os.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() interface{}   { return nil }

// fileTestsError is just an error used in tests for File.
var fileTestsError = errors.New("a super error")

func TestFile_Close(t *testing.T) {
	f := &File{
		fs:           &Fs{},
		path:         "/any/path",
		isDirectory:  true,
		firstCluster: 5,
		stat:         fakeFileInfo{},
		offset:       7,
	}

	if err := f.Close(); err != nil {
		t.Errorf("File.Close() error = %v", err)
	}
	if !reflect.DeepEqual(*f, File{}) {
		t.Errorf("File.Close() did not reset the handle: %+v", *f)
	}
}

func TestFile_Read(t *testing.T) {
	tests := []struct {
		name       string
		fileSize   int64
		offset     int64
		buffer     []byte
		mockData   []byte
		mockErr    error
		wantN      int
		wantOffset int64
		wantErr    error
	}{
		{
			name:       "read from the start",
			fileSize:   10,
			buffer:     make([]byte, 4),
			mockData:   []byte("abcd"),
			wantN:      4,
			wantOffset: 4,
		},
		{
			name:       "read the tail",
			fileSize:   10,
			offset:     8,
			buffer:     make([]byte, 4),
			mockData:   []byte("ij"),
			wantN:      2,
			wantOffset: 10,
		},
		{
			name:     "read at the end",
			fileSize: 10,
			offset:   10,
			buffer:   make([]byte, 4),
			wantErr:  io.EOF,
		},
		{
			name:     "backend failure",
			fileSize: 10,
			buffer:   make([]byte, 4),
			mockErr:  fileTestsError,
			wantErr:  ErrReadFile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := NewMockfileBackend(ctrl)
			if tt.offset < tt.fileSize {
				mock.EXPECT().
					readFileAt(uint16(5), tt.fileSize, tt.offset, int64(len(tt.buffer))).
					Return(tt.mockData, tt.mockErr)
			}

			f := &File{
				fs:           mock,
				firstCluster: 5,
				stat:         fakeFileInfo{fileSize: tt.fileSize},
				offset:       tt.offset,
			}

			n, err := f.Read(tt.buffer)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("File.Read() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if n != tt.wantN {
				t.Errorf("File.Read() n = %v, want %v", n, tt.wantN)
			}
			if string(tt.buffer[:n]) != string(tt.mockData) {
				t.Errorf("File.Read() buffer = %q, want %q", tt.buffer[:n], tt.mockData)
			}
			if f.offset != tt.wantOffset {
				t.Errorf("offset after read = %v, want %v", f.offset, tt.wantOffset)
			}
		})
	}
}

func TestFile_ReadAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := NewMockfileBackend(ctrl)
	mock.EXPECT().
		readFileAt(uint16(7), int64(20), int64(5), int64(4)).
		Return([]byte("fghi"), nil)

	f := &File{
		fs:           mock,
		firstCluster: 7,
		stat:         fakeFileInfo{fileSize: 20},
	}

	buffer := make([]byte, 4)
	n, err := f.ReadAt(buffer, 5)
	if err != nil {
		t.Fatalf("File.ReadAt() error = %v", err)
	}
	if n != 4 || string(buffer) != "fghi" {
		t.Errorf("File.ReadAt() = (%v, %q), want (4, %q)", n, buffer, "fghi")
	}
	if f.offset != 0 {
		t.Error("ReadAt must not move the read offset")
	}
}

func TestFile_Seek(t *testing.T) {
	tests := []struct {
		name       string
		offset     int64
		seekOffset int64
		whence     int
		want       int64
		wantErr    bool
	}{
		{name: "seek from start", seekOffset: 5, whence: io.SeekStart, want: 5},
		{name: "seek from current", offset: 3, seekOffset: 4, whence: io.SeekCurrent, want: 7},
		{name: "seek from end", seekOffset: -2, whence: io.SeekEnd, want: 8},
		{name: "seek to the very end", seekOffset: 0, whence: io.SeekEnd, want: 10},
		{name: "negative result", seekOffset: -1, whence: io.SeekStart, wantErr: true},
		{name: "past the end", seekOffset: 11, whence: io.SeekStart, wantErr: true},
		{name: "invalid whence", seekOffset: 0, whence: 42, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{
				stat:   fakeFileInfo{fileSize: 10},
				offset: tt.offset,
			}

			got, err := f.Seek(tt.seekOffset, tt.whence)
			if (err != nil) != tt.wantErr {
				t.Fatalf("File.Seek() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("File.Seek() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFile_Readdir(t *testing.T) {
	entries := make([]DirEntry, 3)
	for i, name := range []string{"a", "b", "c"} {
		entries[i].setName(name)
		entries[i].Attribute = AttrFile
	}

	tests := []struct {
		name      string
		count     int
		wantNames []string
		wantErr   error
	}{
		{name: "all entries", count: -1, wantNames: []string{"a", "b", "c"}},
		{name: "first two", count: 2, wantNames: []string{"a", "b"}},
		{name: "more than available", count: 5, wantNames: []string{"a", "b", "c"}, wantErr: io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mock := NewMockfileBackend(ctrl)
			mock.EXPECT().readDir(uint16(9)).Return(entries, nil)

			f := &File{
				fs:           mock,
				isDirectory:  true,
				firstCluster: 9,
				stat:         fakeFileInfo{name: "/"},
			}

			infos, err := f.Readdir(tt.count)
			if err != tt.wantErr {
				t.Fatalf("File.Readdir() error = %v, want %v", err, tt.wantErr)
			}

			var names []string
			for _, info := range infos {
				names = append(names, info.Name())
			}
			if !reflect.DeepEqual(names, tt.wantNames) {
				t.Errorf("File.Readdir() names = %v, want %v", names, tt.wantNames)
			}
		})
	}
}

func TestFile_Readdir_notADirectory(t *testing.T) {
	f := &File{stat: fakeFileInfo{}}

	_, err := f.Readdir(-1)
	if !errors.Is(err, syscall.ENOTDIR) {
		t.Errorf("File.Readdir() on a file = %v, want ENOTDIR", err)
	}
}

func TestFile_writeMethodsAreRejected(t *testing.T) {
	f := &File{stat: fakeFileInfo{}}

	if _, err := f.Write([]byte("x")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("File.Write() error = %v, want ErrReadOnly", err)
	}
	if _, err := f.WriteAt([]byte("x"), 0); !errors.Is(err, ErrReadOnly) {
		t.Errorf("File.WriteAt() error = %v, want ErrReadOnly", err)
	}
	if _, err := f.WriteString("x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("File.WriteString() error = %v, want ErrReadOnly", err)
	}
	if err := f.Truncate(0); !errors.Is(err, ErrReadOnly) {
		t.Errorf("File.Truncate() error = %v, want ErrReadOnly", err)
	}
}

func TestFs_OpenAndReadThroughHandle(t *testing.T) {
	fs := newTestFs(t)

	require := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	require(fs.Create("/f"))
	require(fs.Write("/f", testPattern(3000)))

	f, err := fs.Open("/f")
	require(err)
	defer f.Close()

	got, err := io.ReadAll(f)
	require(err)
	if !reflect.DeepEqual(got, testPattern(3000)) {
		t.Error("reading through the handle returned different content")
	}

	// Seek back and reread a slice crossing the cluster boundary.
	_, err = f.Seek(ClusterSize-2, io.SeekStart)
	require(err)
	buffer := make([]byte, 4)
	n, err := f.Read(buffer)
	require(err)
	want := testPattern(3000)[ClusterSize-2 : ClusterSize+2]
	if n != 4 || !reflect.DeepEqual(buffer, want) {
		t.Errorf("read across boundary = %q, want %q", buffer[:n], want)
	}
}
