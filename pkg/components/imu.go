package components

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ImuData is one IMU sample: accelerometer and gyroscope readings, the
// absolute orientation, and an optional magnetometer reading.
type ImuData struct {
	Accel       Point3D
	Gyro        Point3D
	Mag         *Point3D
	Orientation Quaternion
}

var imuType = arrow.StructOf(
	arrow.Field{Name: "accel", Type: point3DType},
	arrow.Field{Name: "gyro", Type: point3DType},
	arrow.Field{Name: "mag", Type: point3DType, Nullable: true},
	arrow.Field{Name: "orientation", Type: quaternionType},
)

// ImuBatch is a column of IMU samples.
type ImuBatch []ImuData

func (b ImuBatch) Name() string { return ImuName }
func (b ImuBatch) Len() int     { return len(b) }

func (b ImuBatch) Field() arrow.Field {
	return arrow.Field{Name: ImuName, Type: imuType, Nullable: true, Metadata: extensionMetadata(ImuName)}
}

func (b ImuBatch) Array(mem memory.Allocator, rows int) (arrow.Array, error) {
	if err := checkRows(ImuName, len(b), rows); err != nil {
		return nil, err
	}

	sb := array.NewStructBuilder(mem, imuType)
	defer sb.Release()

	var (
		accel = sb.FieldBuilder(0).(*array.StructBuilder)
		gyro  = sb.FieldBuilder(1).(*array.StructBuilder)
		mag   = sb.FieldBuilder(2).(*array.StructBuilder)
		ori   = sb.FieldBuilder(3).(*array.StructBuilder)
	)
	for _, d := range b {
		sb.Append(true)
		appendPoint(accel, d.Accel)
		appendPoint(gyro, d.Gyro)
		if d.Mag != nil {
			appendPoint(mag, *d.Mag)
		} else {
			mag.AppendNull()
		}
		appendQuaternion(ori, d.Orientation)
	}
	sb.AppendNulls(rows - len(b))
	return sb.NewArray(), nil
}

// ImuDataFromArray recovers the non-null samples of an imu column.
func ImuDataFromArray(arr arrow.Array) ([]ImuData, error) {
	st, ok := arr.(*array.Struct)
	if !ok || !arrow.TypeEqual(st.DataType(), imuType) {
		return nil, fmt.Errorf("not a %s column: %s", ImuName, arr.DataType())
	}

	var (
		accel = st.Field(0).(*array.Struct)
		gyro  = st.Field(1).(*array.Struct)
		mag   = st.Field(2).(*array.Struct)
		ori   = st.Field(3).(*array.Struct)
	)

	samples := make([]ImuData, 0, st.Len())
	for i := 0; i < st.Len(); i++ {
		if st.IsNull(i) {
			continue
		}
		d := ImuData{
			Accel:       pointAt(accel, i),
			Gyro:        pointAt(gyro, i),
			Orientation: quaternionAt(ori, i),
		}
		if mag.IsValid(i) {
			p := pointAt(mag, i)
			d.Mag = &p
		}
		samples = append(samples, d)
	}
	return samples, nil
}
