// Package manifest decides which XML files a run imports and in what order.
package manifest

import (
	"archive/zip"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"
)

var ErrNoFilename = errors.New("artifact has no filename")

// Artifact is what the import phase works from: either a file that was just
// uploaded (and can be inspected locally) or a name already known to the server.
type Artifact struct {
	Name     string // name the server knows the file by
	Path     string // local path, only meaningful when Uploaded
	Uploaded bool
}

// UnreadableError reports an archive that could not be opened or parsed
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("cannot read archive %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error { return e.Err }

func hasExt(name, ext string) bool {
	return strings.EqualFold(path.Ext(name), ext)
}

// IsArchive reports whether name has a .zip extension
func IsArchive(name string) bool {
	return hasExt(name, ".zip")
}

// Resolve builds the manifest for a. Names known only to the server are taken
// as-is; an uploaded .zip yields its .xml entries; any other upload is its own manifest.
func Resolve(fs afero.Fs, a Artifact) ([]string, error) {
	if a.Name == "" {
		return nil, ErrNoFilename
	}
	if !a.Uploaded || !IsArchive(a.Name) {
		return []string{a.Name}, nil
	}
	return archiveEntries(fs, a.Path)
}

func archiveEntries(fs afero.Fs, p string) ([]string, error) {
	f, err := fs.Open(p)
	if err != nil {
		return nil, &UnreadableError{Path: p, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &UnreadableError{Path: p, Err: err}
	}

	zr, err := zip.NewReader(f, stat.Size())
	if err != nil {
		return nil, &UnreadableError{Path: p, Err: err}
	}

	seen := make(map[string]struct{}, len(zr.File))
	var names []string
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !hasExt(entry.Name, ".xml") {
			continue
		}
		if _, dup := seen[entry.Name]; dup {
			continue
		}
		seen[entry.Name] = struct{}{}
		names = append(names, entry.Name)
	}
	return names, nil
}
