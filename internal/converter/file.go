package converter

import (
	"fmt"
	"os"
	"path/filepath"

	"squish/pkg/imgutil"
)

// File is the input boundary: anything carrying a name, a declared MIME
// type, a byte size, and readable content.
type File interface {
	Name() string
	ContentType() string
	Size() int64
	Bytes() ([]byte, error)
}

type memFile struct {
	name        string
	contentType string
	data        []byte
}

func (f *memFile) Name() string           { return f.name }
func (f *memFile) ContentType() string    { return f.contentType }
func (f *memFile) Size() int64            { return int64(len(f.data)) }
func (f *memFile) Bytes() ([]byte, error) { return f.data, nil }

// NewFile wraps in-memory bytes as a File.
func NewFile(name, contentType string, data []byte) File {
	return &memFile{name: name, contentType: contentType, data: data}
}

type osFile struct {
	path        string
	name        string
	contentType string
	size        int64
}

func (f *osFile) Name() string        { return f.name }
func (f *osFile) ContentType() string { return f.contentType }
func (f *osFile) Size() int64         { return f.size }

func (f *osFile) Bytes() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, nil
}

// Open adapts a file on disk to the File boundary. The MIME type comes
// from the content signature, not the filename.
func Open(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	kind, err := imgutil.SniffFile(path)
	if err != nil {
		return nil, err
	}

	return &osFile{
		path:        path,
		name:        filepath.Base(path),
		contentType: kind.MIME(),
		size:        info.Size(),
	}, nil
}
