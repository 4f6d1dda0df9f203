// Package components defines the component types that can be logged to a
// viewer, and their Arrow encodings.
//
// A component value set is built as a Batch: a typed column of instances
// that renders itself as an Arrow field plus array. Batches of different
// lengths can be assembled into one record; shorter columns are padded with
// trailing nulls. Every field carries the component name as extension
// metadata so a consumer can recover the component type from the schema
// alone.
package components

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Component names. They double as the column names of assembled records.
const (
	Point3DName    = "rerun.point3d"
	QuaternionName = "rerun.quaternion"
	ColorRGBAName  = "rerun.colorrgba"
	LabelName      = "rerun.label"
	ScalarName     = "rerun.scalar"
	Rect2DName     = "rerun.rect2d"
	ImuName        = "rerun.imu"
)

// extensionNameKey is the field metadata key consumers use to recover the
// component type from a schema.
const extensionNameKey = "ARROW:extension:name"

func extensionMetadata(name string) arrow.Metadata {
	return arrow.NewMetadata([]string{extensionNameKey}, []string{name})
}

// ComponentName returns the component name recorded in the metadata of f, or
// "" when f does not describe a component column.
func ComponentName(f arrow.Field) string {
	if i := f.Metadata.FindKey(extensionNameKey); i >= 0 {
		return f.Metadata.Values()[i]
	}
	return ""
}

// Batch is a column of component instances.
type Batch interface {
	// Name returns the component name.
	Name() string
	// Len returns the number of instances in the batch.
	Len() int
	// Field returns the schema field for the batch's column.
	Field() arrow.Field
	// Array builds the batch's column, padded with trailing nulls up to rows.
	// rows must be at least Len.
	Array(mem memory.Allocator, rows int) (arrow.Array, error)
}

// BuildRecord assembles one record out of the given batches. The record spans
// as many rows as the longest batch; shorter batches are padded with trailing
// nulls. The caller releases the returned record.
func BuildRecord(mem memory.Allocator, batches ...Batch) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	if len(batches) == 0 {
		return nil, errors.New("no component batches")
	}

	var rows int
	seen := make(map[string]struct{}, len(batches))
	for _, b := range batches {
		if _, ok := seen[b.Name()]; ok {
			return nil, fmt.Errorf("duplicate component %q", b.Name())
		}
		seen[b.Name()] = struct{}{}

		if b.Len() > rows {
			rows = b.Len()
		}
	}

	var (
		fields = make([]arrow.Field, 0, len(batches))
		arrs   = make([]arrow.Array, 0, len(batches))
	)
	defer func() {
		for _, arr := range arrs {
			arr.Release()
		}
	}()

	for _, b := range batches {
		arr, err := b.Array(mem, rows)
		if err != nil {
			return nil, fmt.Errorf("build column %q: %w", b.Name(), err)
		}
		fields = append(fields, b.Field())
		arrs = append(arrs, arr)
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, arrs, int64(rows)), nil
}

func checkRows(name string, have, want int) error {
	if want < have {
		return fmt.Errorf("%s: %d instances do not fit in %d rows", name, have, want)
	}
	return nil
}
