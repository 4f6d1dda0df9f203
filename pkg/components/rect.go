package components

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// RectFormat says how four numbers describe a 2D rectangle.
type RectFormat string

const (
	// RectFormatXYWH is top-left corner plus width and height.
	RectFormatXYWH RectFormat = "XYWH"
	// RectFormatYXHW is top-left corner plus height and width, y first.
	RectFormatYXHW RectFormat = "YXHW"
	// RectFormatXYXY is top-left and bottom-right corners.
	RectFormatXYXY RectFormat = "XYXY"
	// RectFormatYXYX is top-left and bottom-right corners, y first.
	RectFormatYXYX RectFormat = "YXYX"
	// RectFormatXCYCWH is center plus full width and height.
	RectFormatXCYCWH RectFormat = "XCYCWH"
	// RectFormatXCYCW2H2 is center plus half width and half height.
	RectFormatXCYCW2H2 RectFormat = "XCYCW2H2"
)

// Rect2D is an axis-aligned rectangle, stored top-left plus extent.
type Rect2D struct {
	X, Y, W, H float32
}

// NewRect2D builds a rectangle from four numbers laid out per format.
func NewRect2D(format RectFormat, a, b, c, d float32) (Rect2D, error) {
	switch format {
	case RectFormatXYWH:
		return Rect2D{X: a, Y: b, W: c, H: d}, nil
	case RectFormatYXHW:
		return Rect2D{X: b, Y: a, W: d, H: c}, nil
	case RectFormatXYXY:
		return Rect2D{X: a, Y: b, W: c - a, H: d - b}, nil
	case RectFormatYXYX:
		return Rect2D{X: b, Y: a, W: d - b, H: c - a}, nil
	case RectFormatXCYCWH:
		return Rect2D{X: a - c/2, Y: b - d/2, W: c, H: d}, nil
	case RectFormatXCYCW2H2:
		return Rect2D{X: a - c, Y: b - d, W: 2 * c, H: 2 * d}, nil
	default:
		return Rect2D{}, fmt.Errorf("unknown rect format %q", format)
	}
}

var rect2DType = arrow.StructOf(
	arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "w", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "h", Type: arrow.PrimitiveTypes.Float32},
)

// Rect2DBatch is a column of rectangles.
type Rect2DBatch []Rect2D

func (b Rect2DBatch) Name() string { return Rect2DName }
func (b Rect2DBatch) Len() int     { return len(b) }

func (b Rect2DBatch) Field() arrow.Field {
	return arrow.Field{Name: Rect2DName, Type: rect2DType, Nullable: true, Metadata: extensionMetadata(Rect2DName)}
}

func (b Rect2DBatch) Array(mem memory.Allocator, rows int) (arrow.Array, error) {
	if err := checkRows(Rect2DName, len(b), rows); err != nil {
		return nil, err
	}

	sb := array.NewStructBuilder(mem, rect2DType)
	defer sb.Release()

	for _, r := range b {
		sb.Append(true)
		sb.FieldBuilder(0).(*array.Float32Builder).Append(r.X)
		sb.FieldBuilder(1).(*array.Float32Builder).Append(r.Y)
		sb.FieldBuilder(2).(*array.Float32Builder).Append(r.W)
		sb.FieldBuilder(3).(*array.Float32Builder).Append(r.H)
	}
	sb.AppendNulls(rows - len(b))
	return sb.NewArray(), nil
}
