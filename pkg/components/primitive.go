package components

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ColorRGBA is a color packed as 0xRRGGBBAA.
type ColorRGBA uint32

// RGBA packs color channels into a ColorRGBA.
func RGBA(r, g, b, a uint8) ColorRGBA {
	return ColorRGBA(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a))
}

// ColorRGBABatch is a column of colors.
type ColorRGBABatch []ColorRGBA

func (b ColorRGBABatch) Name() string { return ColorRGBAName }
func (b ColorRGBABatch) Len() int     { return len(b) }

func (b ColorRGBABatch) Field() arrow.Field {
	return arrow.Field{Name: ColorRGBAName, Type: arrow.PrimitiveTypes.Uint32, Nullable: true, Metadata: extensionMetadata(ColorRGBAName)}
}

func (b ColorRGBABatch) Array(mem memory.Allocator, rows int) (arrow.Array, error) {
	if err := checkRows(ColorRGBAName, len(b), rows); err != nil {
		return nil, err
	}

	cb := array.NewUint32Builder(mem)
	defer cb.Release()

	for _, c := range b {
		cb.Append(uint32(c))
	}
	cb.AppendNulls(rows - len(b))
	return cb.NewArray(), nil
}

// Label is a short text annotation attached to an entity.
type Label string

// LabelBatch is a column of labels.
type LabelBatch []Label

func (b LabelBatch) Name() string { return LabelName }
func (b LabelBatch) Len() int     { return len(b) }

func (b LabelBatch) Field() arrow.Field {
	return arrow.Field{Name: LabelName, Type: arrow.BinaryTypes.String, Nullable: true, Metadata: extensionMetadata(LabelName)}
}

func (b LabelBatch) Array(mem memory.Allocator, rows int) (arrow.Array, error) {
	if err := checkRows(LabelName, len(b), rows); err != nil {
		return nil, err
	}

	lb := array.NewStringBuilder(mem)
	defer lb.Release()

	for _, l := range b {
		lb.Append(string(l))
	}
	lb.AppendNulls(rows - len(b))
	return lb.NewArray(), nil
}

// Scalar is a single numeric sample, typically plotted over a timeline.
type Scalar float64

// ScalarBatch is a column of scalar samples.
type ScalarBatch []Scalar

func (b ScalarBatch) Name() string { return ScalarName }
func (b ScalarBatch) Len() int     { return len(b) }

func (b ScalarBatch) Field() arrow.Field {
	return arrow.Field{Name: ScalarName, Type: arrow.PrimitiveTypes.Float64, Nullable: true, Metadata: extensionMetadata(ScalarName)}
}

func (b ScalarBatch) Array(mem memory.Allocator, rows int) (arrow.Array, error) {
	if err := checkRows(ScalarName, len(b), rows); err != nil {
		return nil, err
	}

	fb := array.NewFloat64Builder(mem)
	defer fb.Release()

	for _, s := range b {
		fb.Append(float64(s))
	}
	fb.AppendNulls(rows - len(b))
	return fb.NewArray(), nil
}
