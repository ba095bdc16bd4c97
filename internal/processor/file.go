package processor

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// FileMetadata describes a local file about to be uploaded
type FileMetadata struct {
	Name string // base name, sent as the "filename" parameter
	Path string
	Size int64
}

// FileService handles basic file operations over an afero filesystem
type FileService struct {
	fs afero.Fs
}

// NewFileService creates a new file service; a nil fs means the OS filesystem
func NewFileService(fs afero.Fs) *FileService {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileService{fs: fs}
}

// openReader opens a file for reading
func (f *FileService) openReader(filePath string) (afero.File, error) {
	file, err := f.fs.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// GetFileMetadata returns name and size of the file at filePath
func (f *FileService) GetFileMetadata(filePath string) (*FileMetadata, error) {
	stat, err := f.fs.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", filePath)
	}

	return &FileMetadata{
		Name: filepath.Base(filePath),
		Path: filePath,
		Size: stat.Size(),
	}, nil
}
