// Package logmsg defines the messages an SDK sends to a viewer and their
// binary wire encoding.
//
// A stream of messages always starts with a BeginRecordingMsg naming the
// recording, carries any number of ArrowMsgs with columnar payloads, and ends
// with a GoodbyeMsg. The same encoding backs live TCP streams and .rrd files.
package logmsg

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"

	"github.com/zrezke/rerun/pkg/components"
	"github.com/zrezke/rerun/pkg/ipc"
)

// SDKVersion is reported to viewers in the recording info.
const SDKVersion = "0.7.0"

// MsgID identifies one message. IDs are time ordered, so sorting messages by
// ID recovers the send order of a single stream.
type MsgID struct {
	uuid.UUID
}

// NewMsgID returns a fresh time-ordered message ID.
func NewMsgID() MsgID {
	return MsgID{uuid.Must(uuid.NewV7())}
}

// MsgKind discriminates the message types on the wire.
type MsgKind uint8

const (
	KindBeginRecording MsgKind = iota + 1
	KindArrow
	KindGoodbye
)

func (k MsgKind) String() string {
	switch k {
	case KindBeginRecording:
		return "begin_recording"
	case KindArrow:
		return "arrow"
	case KindGoodbye:
		return "goodbye"
	default:
		return "unknown"
	}
}

// Msg is one log message.
type Msg interface {
	Kind() MsgKind
	ID() MsgID
}

// RecordingInfo describes the recording a stream of messages belongs to.
type RecordingInfo struct {
	ApplicationID string    `json:"application_id"`
	RecordingID   string    `json:"recording_id"`
	StartedAt     time.Time `json:"started_at"`
	SDKVersion    string    `json:"sdk_version"`
}

// BeginRecordingMsg opens a stream.
type BeginRecordingMsg struct {
	MsgID MsgID         `json:"msg_id"`
	Info  RecordingInfo `json:"info"`
}

func (m *BeginRecordingMsg) Kind() MsgKind { return KindBeginRecording }
func (m *BeginRecordingMsg) ID() MsgID     { return m.MsgID }

// ArrowMsg carries component data for one entity path. Payload is an Arrow
// IPC stream buffer; it travels outside the JSON header.
type ArrowMsg struct {
	MsgID      MsgID      `json:"msg_id"`
	EntityPath EntityPath `json:"entity_path"`
	TimePoint  TimePoint  `json:"time_point,omitempty"`
	Payload    []byte     `json:"-"`
}

func (m *ArrowMsg) Kind() MsgKind { return KindArrow }
func (m *ArrowMsg) ID() MsgID     { return m.MsgID }

// Table decodes the message payload. The caller releases the returned table.
func (m *ArrowMsg) Table() (arrow.Table, error) {
	return ipc.ReadTable(m.Payload)
}

// GoodbyeMsg closes a stream.
type GoodbyeMsg struct {
	MsgID MsgID `json:"msg_id"`
}

func (m *GoodbyeMsg) Kind() MsgKind { return KindGoodbye }
func (m *GoodbyeMsg) ID() MsgID     { return m.MsgID }

// BuildArrowMsg assembles component batches into a single record, serializes
// it, and wraps the result in an ArrowMsg stamped with a fresh ID.
func BuildArrowMsg(path EntityPath, tp TimePoint, batches ...components.Batch) (*ArrowMsg, error) {
	rec, err := components.BuildRecord(nil, batches...)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	payload, err := ipc.SerializeRecord(rec)
	if err != nil {
		return nil, err
	}
	return &ArrowMsg{
		MsgID:      NewMsgID(),
		EntityPath: path,
		TimePoint:  tp.Clone(),
		Payload:    payload,
	}, nil
}
