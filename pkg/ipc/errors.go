package ipc

import (
	"errors"
	"fmt"
)

var (
	ErrNilTable  = errors.New("nil table")
	ErrNilRecord = errors.New("nil record")
	ErrNilSchema = errors.New("table has no schema")

	// ErrSchemaMismatch denotes disagreement between a schema field and the
	// column data bound to it.
	ErrSchemaMismatch = errors.New("schema does not match column data")

	// ErrLengthMismatch denotes columns whose lengths disagree with the row
	// count of their table or record.
	ErrLengthMismatch = errors.New("column length mismatch")
)

// Stage identifies the step of the serialization pipeline an error came from.
type Stage int

const (
	// StageSink covers acquiring the in-memory output sink.
	StageSink Stage = iota + 1
	// StageWriterInit covers binding a stream writer to the sink and schema.
	StageWriterInit
	// StageWrite covers appending record batches to the stream.
	StageWrite
	// StageClose covers closing the stream writer.
	StageClose
	// StageFinish covers extracting the finished buffer from the sink.
	StageFinish
)

// String returns a human-readable name for the stage.
func (s Stage) String() string {
	switch s {
	case StageSink:
		return "allocate sink"
	case StageWriterInit:
		return "init stream writer"
	case StageWrite:
		return "write record batch"
	case StageClose:
		return "close stream writer"
	case StageFinish:
		return "finish buffer"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// SerializeError is an error that occurs while serializing columnar data to a
// stream, tagged with the pipeline stage that produced it.
type SerializeError struct {
	Stage Stage
	inner error
}

// Error returns a string representation of a SerializeError.
func (e SerializeError) Error() string {
	return fmt.Sprintf("serialize: %s: %v", e.Stage, e.inner)
}

// Unwrap returns the inner error of a SerializeError.
func (e SerializeError) Unwrap() error {
	return e.inner
}

func serializeError(stage Stage, err error) SerializeError {
	return SerializeError{Stage: stage, inner: err}
}
