package components

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Point3D is a point in 3D space.
type Point3D struct {
	X, Y, Z float32
}

var point3DType = arrow.StructOf(
	arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "z", Type: arrow.PrimitiveTypes.Float32},
)

// Point3DBatch is a column of 3D points.
type Point3DBatch []Point3D

func (b Point3DBatch) Name() string { return Point3DName }
func (b Point3DBatch) Len() int     { return len(b) }

func (b Point3DBatch) Field() arrow.Field {
	return arrow.Field{Name: Point3DName, Type: point3DType, Nullable: true, Metadata: extensionMetadata(Point3DName)}
}

func (b Point3DBatch) Array(mem memory.Allocator, rows int) (arrow.Array, error) {
	if err := checkRows(Point3DName, len(b), rows); err != nil {
		return nil, err
	}

	sb := array.NewStructBuilder(mem, point3DType)
	defer sb.Release()

	for _, p := range b {
		appendPoint(sb, p)
	}
	sb.AppendNulls(rows - len(b))
	return sb.NewArray(), nil
}

// appendPoint appends one valid point row to a struct builder of
// point3DType. Shared with the nested point children of [ImuBatch].
func appendPoint(sb *array.StructBuilder, p Point3D) {
	sb.Append(true)
	sb.FieldBuilder(0).(*array.Float32Builder).Append(p.X)
	sb.FieldBuilder(1).(*array.Float32Builder).Append(p.Y)
	sb.FieldBuilder(2).(*array.Float32Builder).Append(p.Z)
}

// Point3DsFromArray recovers the non-null points of a point3d column.
func Point3DsFromArray(arr arrow.Array) ([]Point3D, error) {
	st, ok := arr.(*array.Struct)
	if !ok || !arrow.TypeEqual(st.DataType(), point3DType) {
		return nil, fmt.Errorf("not a %s column: %s", Point3DName, arr.DataType())
	}

	pts := make([]Point3D, 0, st.Len())
	for i := 0; i < st.Len(); i++ {
		if st.IsNull(i) {
			continue
		}
		pts = append(pts, pointAt(st, i))
	}
	return pts, nil
}

func pointAt(st *array.Struct, i int) Point3D {
	return Point3D{
		X: st.Field(0).(*array.Float32).Value(i),
		Y: st.Field(1).(*array.Float32).Value(i),
		Z: st.Field(2).(*array.Float32).Value(i),
	}
}
