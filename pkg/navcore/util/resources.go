package util

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
)

// CompressBytes zstd-compresses b at the given level. Grounded on
// mmp-vice's pkg/util/resources.go transparent zstd resource reader; used
// here for the raw-source bundle retained by the data repository so that
// reindexing can decompress on demand instead of eagerly.
func CompressBytes(b []byte, level zstd.EncoderLevel) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressBytes reverses CompressBytes.
func DecompressBytes(b []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
