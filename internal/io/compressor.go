package io

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
)

// Compressor transforms the encoded tile content before it is written.
// Implementations are safe for concurrent use.
type Compressor interface {
	// suffix appended to the content file name
	Extension() string
	Compress(content []byte) ([]byte, error)
}

func NewCompressor(compression tiler.Compression) (Compressor, error) {
	switch compression {
	case tiler.CompressionNone:
		return noCompressor{}, nil
	case tiler.CompressionGzip:
		return gzipCompressor{}, nil
	case tiler.CompressionZstd:
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, err
		}
		return &zstdCompressor{encoder: encoder}, nil
	}
	return nil, fmt.Errorf("%w: unknown compression %q", tiler.ErrConfiguration, compression)
}

type noCompressor struct{}

func (noCompressor) Extension() string {
	return ""
}

func (noCompressor) Compress(content []byte) ([]byte, error) {
	return content, nil
}

type gzipCompressor struct{}

func (gzipCompressor) Extension() string {
	return ".gz"
}

func (gzipCompressor) Compress(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(content); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeAll can be called concurrently on a shared encoder
type zstdCompressor struct {
	encoder *zstd.Encoder
}

func (z *zstdCompressor) Extension() string {
	return ".zst"
}

func (z *zstdCompressor) Compress(content []byte) ([]byte, error) {
	return z.encoder.EncodeAll(content, make([]byte, 0, len(content)/2)), nil
}
