// Package ipc serializes Arrow tables and records into self-contained Arrow
// IPC stream buffers, and reads such buffers back.
//
// Serialization is a one-shot, synchronous transform: acquire an in-memory
// sink, bind a stream writer to it (the schema is emitted first), write the
// rows as one or more record batches, close the writer, and extract the
// finished buffer. Any failure aborts the pipeline and is reported as a
// [SerializeError] tagged with the stage it came from; no partial buffer is
// ever returned.
//
// Functions in this package hold no shared state and are safe to call
// concurrently on independent tables.
package ipc

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

type options struct {
	alloc       memory.Allocator
	chunkRows   int64
	initialSize int
}

// Option customizes serialization and reading.
type Option func(*options)

// WithAllocator overrides the allocator used for intermediate buffers.
func WithAllocator(alloc memory.Allocator) Option {
	return func(o *options) { o.alloc = alloc }
}

// WithChunkRows bounds the number of rows per emitted record batch. The
// default follows the chunking of the input table.
func WithChunkRows(rows int64) Option {
	return func(o *options) { o.chunkRows = rows }
}

// WithInitialSize presizes the output sink to n bytes.
func WithInitialSize(n int) Option {
	return func(o *options) { o.initialSize = n }
}

func buildOptions(opts []Option) options {
	o := options{alloc: memory.DefaultAllocator}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SerializeTable encodes tbl as an Arrow IPC stream and returns the encoded
// buffer. The stream carries the table schema followed by the table rows as
// record batches; a table with zero rows produces a valid schema-only stream.
//
// Tables whose columns disagree with their schema or row count fail with a
// [SerializeError] at [StageWrite].
func SerializeTable(tbl arrow.Table, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)

	if tbl == nil {
		return nil, serializeError(StageWriterInit, ErrNilTable)
	}
	return serialize(tbl.Schema(), o, func(w *ipc.Writer) error {
		if err := validateTable(tbl); err != nil {
			return err
		}
		tr := array.NewTableReader(tbl, o.chunkRows)
		defer tr.Release()
		for tr.Next() {
			if err := w.Write(tr.Record()); err != nil {
				return err
			}
		}
		return nil
	})
}

// SerializeRecord encodes a single record batch as an Arrow IPC stream. It is
// the single-batch convenience over [SerializeTable].
func SerializeRecord(rec arrow.Record, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)

	if rec == nil {
		return nil, serializeError(StageWriterInit, ErrNilRecord)
	}
	return serialize(rec.Schema(), o, func(w *ipc.Writer) error {
		if err := validateRecord(rec); err != nil {
			return err
		}
		return w.Write(rec)
	})
}

// serialize runs the staged pipeline shared by SerializeTable and
// SerializeRecord. write is invoked exactly once with the bound stream
// writer; its error is reported at StageWrite.
func serialize(schema *arrow.Schema, o options, write func(w *ipc.Writer) error) ([]byte, error) {
	sink, err := newBufferSink(o.initialSize)
	if err != nil {
		return nil, serializeError(StageSink, err)
	}

	if schema == nil {
		return nil, serializeError(StageWriterInit, ErrNilSchema)
	}
	w := ipc.NewWriter(sink, ipc.WithSchema(schema), ipc.WithAllocator(o.alloc))

	if err := write(w); err != nil {
		_ = w.Close()
		return nil, serializeError(StageWrite, err)
	}

	// Close flushes buffered batches and terminates the stream; the schema is
	// still emitted here when no batch was written.
	if err := w.Close(); err != nil {
		return nil, serializeError(StageClose, err)
	}

	out, err := sink.Finish()
	if err != nil {
		return nil, serializeError(StageFinish, err)
	}
	return out, nil
}

// bufferSink is a growable in-memory sink for an IPC stream. Writes pass
// through a buffered writer; Finish flushes it and hands out the accumulated
// bytes.
type bufferSink struct {
	buf *bytes.Buffer
	bw  *bufio.Writer
}

func newBufferSink(initialSize int) (*bufferSink, error) {
	if initialSize < 0 {
		return nil, fmt.Errorf("negative initial size %d", initialSize)
	}
	buf := bytes.NewBuffer(make([]byte, 0, initialSize))
	return &bufferSink{buf: buf, bw: bufio.NewWriter(buf)}, nil
}

func (s *bufferSink) Write(p []byte) (int, error) {
	return s.bw.Write(p)
}

func (s *bufferSink) Finish() ([]byte, error) {
	if err := s.bw.Flush(); err != nil {
		return nil, err
	}
	return s.buf.Bytes(), nil
}

// validateTable checks that every column of tbl agrees with the schema field
// it is bound to and spans exactly the table's row count. Arrow permits
// columns longer than the table they back, so this is stricter than table
// construction.
func validateTable(tbl arrow.Table) error {
	schema := tbl.Schema()
	if schema == nil {
		return ErrNilSchema
	}
	if int(tbl.NumCols()) != schema.NumFields() {
		return fmt.Errorf("%w: table has %d columns, schema has %d fields", ErrSchemaMismatch, tbl.NumCols(), schema.NumFields())
	}
	for i := 0; i < int(tbl.NumCols()); i++ {
		var (
			col   = tbl.Column(i)
			field = schema.Field(i)
		)
		if !arrow.TypeEqual(col.DataType(), field.Type) {
			return fmt.Errorf("%w: column %q is %s, schema field is %s", ErrSchemaMismatch, field.Name, col.DataType(), field.Type)
		}
		if int64(col.Len()) != tbl.NumRows() {
			return fmt.Errorf("%w: column %q has %d rows, table has %d", ErrLengthMismatch, field.Name, col.Len(), tbl.NumRows())
		}
	}
	return nil
}

func validateRecord(rec arrow.Record) error {
	schema := rec.Schema()
	if schema == nil {
		return ErrNilSchema
	}
	if int(rec.NumCols()) != schema.NumFields() {
		return fmt.Errorf("%w: record has %d columns, schema has %d fields", ErrSchemaMismatch, rec.NumCols(), schema.NumFields())
	}
	for i := 0; i < int(rec.NumCols()); i++ {
		var (
			col   = rec.Column(i)
			field = schema.Field(i)
		)
		if !arrow.TypeEqual(col.DataType(), field.Type) {
			return fmt.Errorf("%w: column %q is %s, schema field is %s", ErrSchemaMismatch, field.Name, col.DataType(), field.Type)
		}
		if int64(col.Len()) != rec.NumRows() {
			return fmt.Errorf("%w: column %q has %d rows, record has %d", ErrLengthMismatch, field.Name, col.Len(), rec.NumRows())
		}
	}
	return nil
}
