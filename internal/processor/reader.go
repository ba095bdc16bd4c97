package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/spf13/afero"
)

// UploadPlan tracks one file upload. Sent only grows, and equals Size once
// every chunk has been accepted.
type UploadPlan struct {
	Path  string
	Name  string
	Size  int64
	Limit int64 // negotiated chunk size, 0 = whole file as one chunk
	Sent  int64
}

// ChunkSize is the number of bytes read per chunk. It never exceeds the
// file size, whatever limit the server announced.
func (p *UploadPlan) ChunkSize() int64 {
	if p.Limit > 0 && p.Limit < p.Size {
		return p.Limit
	}
	return p.Size
}

// Chunks returns how many chunks the file is split into. An empty file is
// still sent as one empty chunk.
func (p *UploadPlan) Chunks() int64 {
	size := p.ChunkSize()
	if p.Size == 0 || size == 0 {
		return 1
	}
	return (p.Size + size - 1) / size
}

// Percent is floor(Sent/Size*100); an empty file counts as complete once sent
func (p *UploadPlan) Percent() int {
	if p.Size == 0 {
		if p.Sent == 0 {
			return 0
		}
		return 100
	}
	return int(p.Sent * 100 / p.Size)
}

// Advance records n more bytes as accepted by the server
func (p *UploadPlan) Advance(n int) {
	if n > 0 {
		p.Sent += int64(n)
	}
}

// ChunkReader reads a file sequentially in plan-sized chunks
type ChunkReader struct {
	plan    *UploadPlan
	file    afero.File
	buf     []byte
	hash    hash.Hash
	read    int64
	emitted bool
}

// NewChunkReader opens path on fs and prepares a plan with the given chunk limit
func NewChunkReader(fs afero.Fs, path string, limit int64) (*ChunkReader, error) {
	if limit < 0 {
		return nil, fmt.Errorf("chunk limit must not be negative: %d", limit)
	}

	svc := NewFileService(fs)
	meta, err := svc.GetFileMetadata(path)
	if err != nil {
		return nil, err
	}

	file, err := svc.openReader(path)
	if err != nil {
		return nil, err
	}

	plan := &UploadPlan{
		Path:  meta.Path,
		Name:  meta.Name,
		Size:  meta.Size,
		Limit: limit,
	}

	return &ChunkReader{
		plan: plan,
		file: file,
		buf:  make([]byte, plan.ChunkSize()),
		hash: sha256.New(),
	}, nil
}

// Plan returns the upload plan backing this reader
func (r *ChunkReader) Plan() *UploadPlan {
	return r.plan
}

// Next returns the next chunk, or io.EOF once the whole file has been read.
// The returned slice is only valid until the following call.
func (r *ChunkReader) Next() ([]byte, error) {
	if r.plan.Size == 0 {
		if r.emitted {
			return nil, io.EOF
		}
		r.emitted = true
		return []byte{}, nil
	}
	if r.read >= r.plan.Size {
		return nil, io.EOF
	}

	want := int64(len(r.buf))
	if remaining := r.plan.Size - r.read; remaining < want {
		want = remaining
	}

	n, err := io.ReadFull(r.file, r.buf[:want])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("file shrank while reading: got %d of %d bytes", r.read+int64(n), r.plan.Size)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	r.read += int64(n)
	r.hash.Write(r.buf[:n])
	r.emitted = true
	return r.buf[:n], nil
}

// Checksum returns the hex SHA-256 of the bytes read so far
func (r *ChunkReader) Checksum() string {
	return hex.EncodeToString(r.hash.Sum(nil))
}

// Close closes the underlying file
func (r *ChunkReader) Close() error {
	return r.file.Close()
}
