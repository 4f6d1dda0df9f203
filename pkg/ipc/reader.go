package ipc

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// ReadTable decodes an Arrow IPC stream buffer back into a table. The
// returned table must be released by the caller. A schema-only stream decodes
// into a table with zero rows.
func ReadTable(buf []byte, opts ...Option) (arrow.Table, error) {
	o := buildOptions(opts)

	r, err := ipc.NewReader(bytes.NewReader(buf), ipc.WithAllocator(o.alloc))
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer r.Release()

	recs, err := drain(r)
	defer releaseAll(recs)
	if err != nil {
		return nil, err
	}
	return array.NewTableFromRecords(r.Schema(), recs), nil
}

// ReadRecords decodes an Arrow IPC stream buffer into its record batches.
// Each returned record must be released by the caller.
func ReadRecords(buf []byte, opts ...Option) ([]arrow.Record, error) {
	o := buildOptions(opts)

	r, err := ipc.NewReader(bytes.NewReader(buf), ipc.WithAllocator(o.alloc))
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	defer r.Release()

	recs, err := drain(r)
	if err != nil {
		releaseAll(recs)
		return nil, err
	}
	return recs, nil
}

func drain(r *ipc.Reader) ([]arrow.Record, error) {
	var recs []arrow.Record
	for r.Next() {
		rec := r.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := r.Err(); err != nil {
		return recs, fmt.Errorf("read stream: %w", err)
	}
	return recs, nil
}

func releaseAll(recs []arrow.Record) {
	for _, rec := range recs {
		rec.Release()
	}
}
