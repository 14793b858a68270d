package zarr

import (
	"fmt"
	"io"

	"github.com/qri-io/dataset/compression"
)

// CompressionMeta defines compression settings zarr-go understands
type CompressionMeta struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// codec ids as written by zarr, mapped to qri compression formats
var codecFormats = map[string]string{
	"gzip": "gzip",
	"zstd": "zst",
}

var (
	// Gzip is the gzip codec.
	Gzip = &CompressionMeta{ID: "gzip"}
	// Zstd is the zstandard codec.
	Zstd = &CompressionMeta{ID: "zstd"}
)

func (m *CompressionMeta) format() (string, error) {
	f, ok := codecFormats[m.ID]
	if !ok {
		return "", fmt.Errorf("%w: compressor %q", ErrUnsupportedCodec, m.ID)
	}
	return f, nil
}

// Decompressor wraps r so reads yield decompressed chunk bytes. A nil
// CompressionMeta means chunks are stored raw.
func (m *CompressionMeta) Decompressor(r io.ReadCloser) (io.ReadCloser, error) {
	if m == nil {
		return r, nil
	}
	f, err := m.format()
	if err != nil {
		return nil, err
	}
	return compression.Decompressor(f, r)
}

// Compressor wraps w so written chunk bytes are compressed. The returned
// writer must be closed to flush.
func (m *CompressionMeta) Compressor(w io.Writer) (io.WriteCloser, error) {
	if m == nil {
		return nopWriteCloser{w}, nil
	}
	f, err := m.format()
	if err != nil {
		return nil, err
	}
	return compression.Compressor(f, w)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
