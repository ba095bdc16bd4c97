package processor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func readAll(t *testing.T, r *ChunkReader) [][]byte {
	t.Helper()
	var chunks [][]byte
	for {
		chunk, err := r.Next()
		if errors.Is(err, io.EOF) {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, append([]byte(nil), chunk...))
	}
}

func TestChunkReader_SplitsByLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := bytes.Repeat([]byte("0123456789"), 10) // 100 bytes
	writeFile(t, fs, "/data/goods.xml", data)

	for _, limit := range []int64{1, 7, 10, 33, 99, 100, 101, 1000} {
		r, err := NewChunkReader(fs, "/data/goods.xml", limit)
		require.NoError(t, err)

		chunks := readAll(t, r)
		require.NoError(t, r.Close())

		plan := r.Plan()
		assert.Equal(t, "goods.xml", plan.Name)
		assert.Equal(t, int64(100), plan.Size)
		assert.Equal(t, int(plan.Chunks()), len(chunks), "limit %d", limit)
		assert.Equal(t, int((100+limit-1)/limit), len(chunks), "limit %d", limit)

		var joined []byte
		for i, c := range chunks {
			if i < len(chunks)-1 {
				assert.Equal(t, int(limit), len(c))
			}
			joined = append(joined, c...)
		}
		assert.Equal(t, data, joined)
	}
}

func TestChunkReader_ZeroLimitIsWholeFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := []byte("<КоммерческаяИнформация/>")
	writeFile(t, fs, "import.xml", data)

	r, err := NewChunkReader(fs, "import.xml", 0)
	require.NoError(t, err)
	defer r.Close()

	chunks := readAll(t, r)
	require.Len(t, chunks, 1)
	assert.Equal(t, data, chunks[0])

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), r.Checksum())
}

func TestChunkReader_EmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "empty.xml", nil)

	r, err := NewChunkReader(fs, "empty.xml", 10)
	require.NoError(t, err)
	defer r.Close()

	chunks := readAll(t, r)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0])
	assert.Equal(t, int64(1), r.Plan().Chunks())
}

func TestChunkReader_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dir", 0o755))

	_, err := NewChunkReader(fs, "/missing.zip", 0)
	assert.Error(t, err)

	_, err = NewChunkReader(fs, "/dir", 0)
	assert.Error(t, err)

	writeFile(t, fs, "/a.xml", []byte("x"))
	_, err = NewChunkReader(fs, "/a.xml", -1)
	assert.Error(t, err)
}

func TestUploadPlan_Percent(t *testing.T) {
	p := &UploadPlan{Size: 3, Limit: 1}
	var got []int
	for i := 0; i < 3; i++ {
		p.Advance(1)
		got = append(got, p.Percent())
	}
	assert.Equal(t, []int{33, 66, 100}, got)

	empty := &UploadPlan{}
	assert.Equal(t, 0, empty.Percent())
	empty.Advance(0)
	assert.Equal(t, 0, empty.Percent())
}

func TestChunkReader_LimitLargerThanFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/orders.xml", []byte("<orders/>"))

	for _, limit := range []int64{10, 1 << 40, 99999999999999999} {
		r, err := NewChunkReader(fs, "/orders.xml", limit)
		require.NoError(t, err, "limit %d", limit)

		assert.Equal(t, int64(9), r.Plan().ChunkSize())
		assert.Equal(t, int64(1), r.Plan().Chunks())

		chunks := readAll(t, r)
		require.Len(t, chunks, 1)
		assert.Equal(t, []byte("<orders/>"), chunks[0])
		require.NoError(t, r.Close())
	}
}
