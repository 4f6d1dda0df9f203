package logmsg

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zrezke/rerun/pkg/components"
)

func Test_TimePoint_json(t *testing.T) {
	tp := TimePoint{
		{Name: "frame", Type: TimeTypeSequence}: 42,
		{Name: "log_time", Type: TimeTypeTime}:  1700000000000000000,
	}

	data, err := json.Marshal(tp)
	require.NoError(t, err)

	// Entries are sorted by timeline name.
	require.JSONEq(t,
		`[{"timeline":"frame","type":"sequence","value":42},{"timeline":"log_time","type":"time","value":1700000000000000000}]`,
		string(data))

	again, err := json.Marshal(tp)
	require.NoError(t, err)
	require.Equal(t, data, again, "marshaling should be deterministic")

	var got TimePoint
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, tp, got)
}

func Test_TimeType_unknown(t *testing.T) {
	var tt TimeType
	require.Error(t, json.Unmarshal([]byte(`"frames"`), &tt))
}

func Test_MsgID_ordered(t *testing.T) {
	a := NewMsgID()
	b := NewMsgID()
	require.Less(t, a.String(), b.String(), "later IDs should sort after earlier ones")
}

func testArrowMsg(t *testing.T) *ArrowMsg {
	t.Helper()

	msg, err := BuildArrowMsg(
		MustEntityPath("color/camera/rgb/Detections"),
		TimePoint{{Name: "frame", Type: TimeTypeSequence}: 7},
		components.Rect2DBatch{{X: 10, Y: 20, W: 30, H: 40}},
		components.LabelBatch{"person"},
	)
	require.NoError(t, err)
	return msg
}

func Test_stream_roundTrip(t *testing.T) {
	begin := &BeginRecordingMsg{
		MsgID: NewMsgID(),
		Info: RecordingInfo{
			ApplicationID: "depthai-demo",
			RecordingID:   "rec-1",
			StartedAt:     time.Unix(1700000000, 0).UTC(),
			SDKVersion:    SDKVersion,
		},
	}
	arrow := testArrowMsg(t)
	goodbye := &GoodbyeMsg{MsgID: NewMsgID()}

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, msg := range []Msg{begin, arrow, goodbye} {
		require.NoError(t, enc.Encode(msg))
	}

	msgs, err := ReadAll(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	gotBegin, ok := msgs[0].(*BeginRecordingMsg)
	require.True(t, ok)
	require.Equal(t, begin.MsgID, gotBegin.ID())
	require.Equal(t, begin.Info.ApplicationID, gotBegin.Info.ApplicationID)
	require.Equal(t, begin.Info.RecordingID, gotBegin.Info.RecordingID)
	require.Equal(t, begin.Info.SDKVersion, gotBegin.Info.SDKVersion)
	require.True(t, begin.Info.StartedAt.Equal(gotBegin.Info.StartedAt))

	gotArrow, ok := msgs[1].(*ArrowMsg)
	require.True(t, ok)
	require.Equal(t, arrow.EntityPath, gotArrow.EntityPath)
	require.Equal(t, arrow.TimePoint, gotArrow.TimePoint)
	require.Equal(t, arrow.Payload, gotArrow.Payload)

	tbl, err := gotArrow.Table()
	require.NoError(t, err)
	defer tbl.Release()
	require.Equal(t, int64(1), tbl.NumRows())
	require.Equal(t, int64(2), tbl.NumCols())

	gotGoodbye, ok := msgs[2].(*GoodbyeMsg)
	require.True(t, ok)
	require.Equal(t, goodbye.MsgID, gotGoodbye.ID())
}

func encodeOne(t *testing.T, msg Msg) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(msg))
	return buf.Bytes()
}

func Test_Decoder_checksumMismatch(t *testing.T) {
	raw := encodeOne(t, &GoodbyeMsg{MsgID: NewMsgID()})

	// Corrupt the last header byte; the trailing 4 bytes are the checksum and
	// the byte before them is the empty payload's size.
	raw[len(raw)-6] ^= 0xff

	_, err := ReadAll(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrChecksum)
}

func Test_Decoder_badMagic(t *testing.T) {
	raw := encodeOne(t, &GoodbyeMsg{MsgID: NewMsgID()})
	raw[0] ^= 0xff

	_, err := ReadAll(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrBadMagic)
}

func Test_Decoder_unsupportedVersion(t *testing.T) {
	raw := encodeOne(t, &GoodbyeMsg{MsgID: NewMsgID()})
	binary.LittleEndian.PutUint32(raw[4:], 99)

	_, err := ReadAll(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func Test_Decoder_truncated(t *testing.T) {
	raw := encodeOne(t, testArrowMsg(t))

	_, err := ReadAll(bytes.NewReader(raw[:len(raw)-3]))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func Test_Decoder_unknownKind(t *testing.T) {
	raw := encodeOne(t, &GoodbyeMsg{MsgID: NewMsgID()})
	raw[8] = 0x7f

	_, err := ReadAll(bytes.NewReader(raw))
	require.ErrorContains(t, err, "unknown message kind")
}

func Test_Decoder_emptyStream(t *testing.T) {
	_, err := ReadAll(bytes.NewReader(nil))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func Test_BuildArrowMsg_noBatches(t *testing.T) {
	_, err := BuildArrowMsg(MustEntityPath("a"), nil)
	require.Error(t, err)
}
