package recording

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/zrezke/rerun/pkg/logmsg"
)

// Recording file layout: magic "RRDF", version byte, compression byte, then
// the message stream compressed accordingly.
var fileMagic = []byte("RRDF")

const fileFormatVersion = 1

// FileSink writes a recording to a file, optionally compressing the whole
// message stream.
type FileSink struct {
	f   *os.File
	cw  *compressWriter
	enc *logmsg.Encoder

	closed bool
}

// NewFileSink creates the file at path, truncating anything already there.
func NewFileSink(path string, compression Compression) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}

	if err := writeFileHeader(f, compression); err != nil {
		_ = f.Close()
		return nil, err
	}

	cw, err := newCompressWriter(f, compression)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	enc := logmsg.NewEncoder(cw)
	// Write the stream header up front so an empty recording file still reads
	// back as a valid, zero-message stream.
	if err := enc.WriteStreamHeader(); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &FileSink{f: f, cw: cw, enc: enc}, nil
}

func (s *FileSink) Send(msg logmsg.Msg) error {
	if s.closed {
		return ErrClosed
	}
	return s.enc.Encode(msg)
}

// UncompressedBytes returns how many stream bytes have been written so far,
// before compression.
func (s *FileSink) UncompressedBytes() int {
	return s.cw.UncompressedSize()
}

func (s *FileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.cw.Close(); err != nil {
		_ = s.f.Close()
		return fmt.Errorf("finish recording file: %w", err)
	}
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("close recording file: %w", err)
	}
	return nil
}

// ReadFile reads a recording file back into its messages.
func ReadFile(path string) ([]logmsg.Msg, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording file: %w", err)
	}
	defer f.Close()

	return ReadMessages(f)
}

func writeFileHeader(w io.Writer, compression Compression) error {
	hdr := append(append([]byte{}, fileMagic...), fileFormatVersion, byte(compression))
	if _, err := w.Write(hdr); err != nil {
		return fmt.Errorf("write recording file header: %w", err)
	}
	return nil
}

// WriteMessages writes msgs to w in the recording file format. It is the
// one-shot form of a [FileSink], usable against any writer.
func WriteMessages(w io.Writer, compression Compression, msgs []logmsg.Msg) error {
	if err := writeFileHeader(w, compression); err != nil {
		return err
	}

	cw, err := newCompressWriter(w, compression)
	if err != nil {
		return err
	}

	enc := logmsg.NewEncoder(cw)
	if err := enc.WriteStreamHeader(); err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := enc.Encode(msg); err != nil {
			return err
		}
	}
	return cw.Close()
}

// ReadMessages reads a recording file stream from r.
func ReadMessages(r io.Reader) ([]logmsg.Msg, error) {
	hdr := make([]byte, len(fileMagic)+2)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("read recording file header: %w", err)
	}
	if !bytes.Equal(hdr[:len(fileMagic)], fileMagic) {
		return nil, fmt.Errorf("not a recording file")
	}
	if v := hdr[len(fileMagic)]; v != fileFormatVersion {
		return nil, fmt.Errorf("unsupported recording file version %d", v)
	}

	dr, closeReader, err := newDecompressReader(r, Compression(hdr[len(fileMagic)+1]))
	if err != nil {
		return nil, err
	}
	defer closeReader()

	msgs, err := logmsg.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("read recording file: %w", err)
	}
	return msgs, nil
}
