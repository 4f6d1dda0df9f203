package components

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/zrezke/rerun/pkg/ipc"
)

func Test_BuildRecord_padsShortColumns(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec, err := BuildRecord(mem,
		Point3DBatch{{X: 1}, {Y: 2}, {Z: 3}},
		LabelBatch{"detection"},
	)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, int64(3), rec.NumRows())
	require.Equal(t, int64(2), rec.NumCols())

	labels := rec.Column(1).(*array.String)
	require.True(t, labels.IsValid(0))
	require.Equal(t, "detection", labels.Value(0))
	require.True(t, labels.IsNull(1))
	require.True(t, labels.IsNull(2))
}

func Test_BuildRecord_duplicateComponent(t *testing.T) {
	_, err := BuildRecord(nil,
		Point3DBatch{{X: 1}},
		Point3DBatch{{X: 2}},
	)
	require.ErrorContains(t, err, "duplicate component")
}

func Test_BuildRecord_noBatches(t *testing.T) {
	_, err := BuildRecord(nil)
	require.Error(t, err)
}

func Test_Point3DBatch_roundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	batch := Point3DBatch{
		{X: 1, Y: 2, Z: 3},
		{X: -1, Y: 0.5, Z: 100},
	}

	arr, err := batch.Array(mem, len(batch))
	require.NoError(t, err)
	defer arr.Release()

	got, err := Point3DsFromArray(arr)
	require.NoError(t, err)
	require.Equal(t, []Point3D(batch), got)
}

func Test_Point3DBatch_rowsTooSmall(t *testing.T) {
	batch := Point3DBatch{{X: 1}, {X: 2}}
	_, err := batch.Array(memory.DefaultAllocator, 1)
	require.Error(t, err)
}

func Test_ImuBatch_streamRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	mag := Point3D{X: 7, Y: 8, Z: 9}
	batch := ImuBatch{
		{
			Accel:       Point3D{X: 0, Y: 0, Z: -9.81},
			Gyro:        Point3D{X: 0.1, Y: 0.2, Z: 0.3},
			Mag:         &mag,
			Orientation: Quaternion{X: 0, Y: 0, Z: 0, W: 1},
		},
		{
			Accel:       Point3D{X: 1, Y: 2, Z: 3},
			Gyro:        Point3D{},
			Orientation: IdentityQuaternion(),
		},
	}

	rec, err := BuildRecord(mem, batch)
	require.NoError(t, err)
	defer rec.Release()

	require.Equal(t, ImuName, ComponentName(rec.Schema().Field(0)))

	buf, err := ipc.SerializeRecord(rec, ipc.WithAllocator(mem))
	require.NoError(t, err)

	recs, err := ipc.ReadRecords(buf, ipc.WithAllocator(mem))
	require.NoError(t, err)
	defer func() {
		for _, r := range recs {
			r.Release()
		}
	}()

	var got []ImuData
	for _, r := range recs {
		samples, err := ImuDataFromArray(r.Column(0))
		require.NoError(t, err)
		got = append(got, samples...)
	}
	require.Equal(t, []ImuData(batch), got)
}

func Test_NewRect2D_formats(t *testing.T) {
	tt := []struct {
		format     RectFormat
		a, b, c, d float32
		expect     Rect2D
	}{
		{RectFormatXYWH, 10, 20, 30, 40, Rect2D{X: 10, Y: 20, W: 30, H: 40}},
		{RectFormatYXHW, 20, 10, 40, 30, Rect2D{X: 10, Y: 20, W: 30, H: 40}},
		{RectFormatXYXY, 10, 20, 40, 60, Rect2D{X: 10, Y: 20, W: 30, H: 40}},
		{RectFormatYXYX, 20, 10, 60, 40, Rect2D{X: 10, Y: 20, W: 30, H: 40}},
		{RectFormatXCYCWH, 25, 40, 30, 40, Rect2D{X: 10, Y: 20, W: 30, H: 40}},
		{RectFormatXCYCW2H2, 25, 40, 15, 20, Rect2D{X: 10, Y: 20, W: 30, H: 40}},
	}

	for _, tc := range tt {
		got, err := NewRect2D(tc.format, tc.a, tc.b, tc.c, tc.d)
		require.NoError(t, err, "format %s", tc.format)
		require.Equal(t, tc.expect, got, "format %s", tc.format)
	}

	_, err := NewRect2D("NOPE", 0, 0, 0, 0)
	require.Error(t, err)
}

func Test_RGBA_packing(t *testing.T) {
	require.Equal(t, ColorRGBA(0x11223344), RGBA(0x11, 0x22, 0x33, 0x44))
	require.Equal(t, ColorRGBA(0xff0000ff), RGBA(255, 0, 0, 255))
}
