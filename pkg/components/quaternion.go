package components

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Quaternion is a rotation in 3D space, stored as xyzw.
type Quaternion struct {
	X, Y, Z, W float32
}

// IdentityQuaternion returns the identity rotation.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

var quaternionType = arrow.StructOf(
	arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "z", Type: arrow.PrimitiveTypes.Float32},
	arrow.Field{Name: "w", Type: arrow.PrimitiveTypes.Float32},
)

// QuaternionBatch is a column of rotations.
type QuaternionBatch []Quaternion

func (b QuaternionBatch) Name() string { return QuaternionName }
func (b QuaternionBatch) Len() int     { return len(b) }

func (b QuaternionBatch) Field() arrow.Field {
	return arrow.Field{Name: QuaternionName, Type: quaternionType, Nullable: true, Metadata: extensionMetadata(QuaternionName)}
}

func (b QuaternionBatch) Array(mem memory.Allocator, rows int) (arrow.Array, error) {
	if err := checkRows(QuaternionName, len(b), rows); err != nil {
		return nil, err
	}

	sb := array.NewStructBuilder(mem, quaternionType)
	defer sb.Release()

	for _, q := range b {
		appendQuaternion(sb, q)
	}
	sb.AppendNulls(rows - len(b))
	return sb.NewArray(), nil
}

func appendQuaternion(sb *array.StructBuilder, q Quaternion) {
	sb.Append(true)
	sb.FieldBuilder(0).(*array.Float32Builder).Append(q.X)
	sb.FieldBuilder(1).(*array.Float32Builder).Append(q.Y)
	sb.FieldBuilder(2).(*array.Float32Builder).Append(q.Z)
	sb.FieldBuilder(3).(*array.Float32Builder).Append(q.W)
}

func quaternionAt(st *array.Struct, i int) Quaternion {
	return Quaternion{
		X: st.Field(0).(*array.Float32).Value(i),
		Y: st.Field(1).(*array.Float32).Value(i),
		Z: st.Field(2).(*array.Float32).Value(i),
		W: st.Field(3).(*array.Float32).Value(i),
	}
}
