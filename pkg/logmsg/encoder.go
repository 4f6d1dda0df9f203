package logmsg

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Stream framing:
//
//	stream header: magic "RRF0", uint32 LE format version
//	per message:   kind byte
//	               uvarint header size, JSON header
//	               uvarint payload size, payload
//	               uint32 LE CRC32-C over header and payload
var magic = []byte("RRF0")

const streamFormatVersion = 1

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Encoder writes a message stream to w.
type Encoder struct {
	w           io.Writer
	wroteHeader bool
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteStreamHeader writes the stream header immediately. Encode writes it
// lazily before the first message otherwise; calling this first lets a
// transport put bytes on the wire as soon as it connects.
func (e *Encoder) WriteStreamHeader() error {
	if e.wroteHeader {
		return nil
	}

	var hdr [8]byte
	copy(hdr[:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:], streamFormatVersion)
	if _, err := e.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write stream header: %w", err)
	}

	e.wroteHeader = true
	return nil
}

// Encode writes one message.
func (e *Encoder) Encode(msg Msg) error {
	if msg == nil {
		return errors.New("nil message")
	}
	if err := e.WriteStreamHeader(); err != nil {
		return err
	}

	header, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s header: %w", msg.Kind(), err)
	}

	var payload []byte
	if am, ok := msg.(*ArrowMsg); ok {
		payload = am.Payload
	}

	if _, err := e.w.Write([]byte{byte(msg.Kind())}); err != nil {
		return fmt.Errorf("write message kind: %w", err)
	}
	if err := e.writeBlock(header); err != nil {
		return fmt.Errorf("write %s header: %w", msg.Kind(), err)
	}
	if err := e.writeBlock(payload); err != nil {
		return fmt.Errorf("write %s payload: %w", msg.Kind(), err)
	}

	digest := crc32.Checksum(header, castagnoli)
	digest = crc32.Update(digest, castagnoli, payload)

	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], digest)
	if _, err := e.w.Write(sum[:]); err != nil {
		return fmt.Errorf("write %s checksum: %w", msg.Kind(), err)
	}
	return nil
}

// writeBlock writes a uvarint size prefix followed by the block bytes.
func (e *Encoder) writeBlock(block []byte) error {
	size, release := getUvarint(uint64(len(block)))
	defer release(&size)

	if _, err := e.w.Write(size); err != nil {
		return err
	}
	if len(block) == 0 {
		return nil
	}
	_, err := e.w.Write(block)
	return err
}
