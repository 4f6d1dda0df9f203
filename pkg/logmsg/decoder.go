package logmsg

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

const (
	// maxHeaderSize bounds the JSON header of a single message.
	maxHeaderSize = 1 << 20
	// maxPayloadSize bounds the Arrow payload of a single message.
	maxPayloadSize = 1 << 30
)

var (
	ErrBadMagic           = errors.New("invalid stream magic")
	ErrUnsupportedVersion = errors.New("unsupported stream format version")
	ErrChecksum           = errors.New("message checksum mismatch")
)

// Decoder reads a message stream produced by [Encoder].
type Decoder struct {
	r          *bufio.Reader
	readHeader bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Decode reads the next message. It returns io.EOF once the stream is
// cleanly exhausted; truncation inside a message reports
// io.ErrUnexpectedEOF instead.
func (d *Decoder) Decode() (Msg, error) {
	if !d.readHeader {
		if err := d.readStreamHeader(); err != nil {
			return nil, err
		}
		d.readHeader = true
	}

	kind, err := d.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read message kind: %w", err)
	}

	header, err := d.readBlock(maxHeaderSize, "header")
	if err != nil {
		return nil, err
	}
	payload, err := d.readBlock(maxPayloadSize, "payload")
	if err != nil {
		return nil, err
	}

	var sum [4]byte
	if _, err := io.ReadFull(d.r, sum[:]); err != nil {
		return nil, fmt.Errorf("read checksum: %w", unexpectedEOF(err))
	}

	digest := crc32.Checksum(header, castagnoli)
	digest = crc32.Update(digest, castagnoli, payload)
	if got := binary.LittleEndian.Uint32(sum[:]); got != digest {
		return nil, fmt.Errorf("%w: got %08x, computed %08x", ErrChecksum, got, digest)
	}

	return unmarshalMsg(MsgKind(kind), header, payload)
}

func (d *Decoder) readStreamHeader() error {
	var hdr [8]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return fmt.Errorf("read stream header: %w", unexpectedEOF(err))
	}
	if !bytes.Equal(hdr[:4], magic) {
		return ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(hdr[4:]); v != streamFormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return nil
}

func (d *Decoder) readBlock(limit uint64, what string) ([]byte, error) {
	size, err := binary.ReadUvarint(d.r)
	if err != nil {
		return nil, fmt.Errorf("read %s size: %w", what, unexpectedEOF(err))
	}
	if size > limit {
		return nil, fmt.Errorf("%s size %d exceeds limit %d", what, size, limit)
	}
	if size == 0 {
		return nil, nil
	}

	block := make([]byte, size)
	if _, err := io.ReadFull(d.r, block); err != nil {
		return nil, fmt.Errorf("read %s: %w", what, unexpectedEOF(err))
	}
	return block, nil
}

func unmarshalMsg(kind MsgKind, header, payload []byte) (Msg, error) {
	switch kind {
	case KindBeginRecording:
		var m BeginRecordingMsg
		if err := json.Unmarshal(header, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s header: %w", kind, err)
		}
		return &m, nil

	case KindArrow:
		var m ArrowMsg
		if err := json.Unmarshal(header, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s header: %w", kind, err)
		}
		m.Payload = payload
		return &m, nil

	case KindGoodbye:
		var m GoodbyeMsg
		if err := json.Unmarshal(header, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s header: %w", kind, err)
		}
		return &m, nil

	default:
		return nil, fmt.Errorf("unknown message kind %d", kind)
	}
}

// unexpectedEOF maps a clean EOF in the middle of a message to
// io.ErrUnexpectedEOF, so truncation is never mistaken for end of stream.
func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadAll decodes messages until the stream is exhausted.
func ReadAll(r io.Reader) ([]Msg, error) {
	dec := NewDecoder(r)

	var msgs []Msg
	for {
		msg, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return msgs, nil
		}
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, msg)
	}
}
