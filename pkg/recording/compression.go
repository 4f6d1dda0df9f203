package recording

import (
	"bufio"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Compression selects how a recording file compresses its message stream.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

// ParseCompression parses a compression name as found in configuration.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q", s)
	}
}

// A compressWriter compresses data written to it and forwards compressed
// data to an underlying writer. Closing it terminates the compression frame
// without closing the underlying writer.
type compressWriter struct {
	w   io.WriteCloser // Compressing writer.
	buf *bufio.Writer  // Buffered writer in front of w.

	compression       Compression
	uncompressedBytes int
}

func newCompressWriter(w io.Writer, c Compression) (*compressWriter, error) {
	var cw io.WriteCloser

	switch c {
	case CompressionNone:
		cw = nopCloseWriter{w: w}

	case CompressionSnappy:
		cw = snappy.NewBufferedWriter(w)

	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		cw = zw

	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}

	return &compressWriter{
		w:           cw,
		buf:         bufio.NewWriter(cw),
		compression: c,
	}, nil
}

// Write writes p to the underlying buffer.
func (c *compressWriter) Write(p []byte) (n int, err error) {
	n, err = c.buf.Write(p)
	c.uncompressedBytes += n
	return
}

// Flush flushes all pending data to the underlying writer.
func (c *compressWriter) Flush() error {
	if err := c.buf.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}

	// Flush c.w if it implements flush, which it may not if we're not using
	// compression.
	if f, ok := c.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flushing writer: %w", err)
		}
	}
	return nil
}

// UncompressedSize returns the total number of bytes written to the writer.
func (c *compressWriter) UncompressedSize() int {
	return c.uncompressedBytes
}

// Close flushes any pending data and terminates the compression frame.
func (c *compressWriter) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	return c.w.Close()
}

type nopCloseWriter struct{ w io.Writer }

func (w nopCloseWriter) Write(p []byte) (n int, err error) { return w.w.Write(p) }
func (w nopCloseWriter) Close() error                      { return nil }

// newDecompressReader wraps r so reads see the uncompressed message stream.
// The returned close function releases decoder resources without closing r.
func newDecompressReader(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return r, func() {}, nil

	case CompressionSnappy:
		return snappy.NewReader(r), func() {}, nil

	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zr, zr.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown compression %q", c)
	}
}
