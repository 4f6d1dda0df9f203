package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thanos-io/objstore"

	"github.com/zrezke/rerun/pkg/components"
	"github.com/zrezke/rerun/pkg/logmsg"
	"github.com/zrezke/rerun/pkg/recording"
)

func finishedRecording(t *testing.T, app, id string) (logmsg.RecordingInfo, []logmsg.Msg) {
	t.Helper()

	sink := recording.NewBufferedSink()
	rec, err := recording.New(app, recording.Options{Sink: sink, RecordingID: id})
	require.NoError(t, err)
	require.NoError(t, rec.Log(logmsg.MustEntityPath("points"), components.Point3DBatch{{X: 1}, {Y: 2}, {Z: 3}}))
	require.NoError(t, rec.Close())

	return rec.Info(), sink.Messages()
}

func Test_Archive_roundTrip(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(objstore.NewInMemBucket(), recording.CompressionZstd)

	info, msgs := finishedRecording(t, "depthai-demo", "rec-1")

	name, err := archive.Store(ctx, info, msgs)
	require.NoError(t, err)
	require.Equal(t, "recordings/depthai-demo/rec-1.rrd", name)

	names, err := archive.List(ctx, "depthai-demo")
	require.NoError(t, err)
	require.Equal(t, []string{name}, names)

	got, err := archive.Open(ctx, name)
	require.NoError(t, err)
	require.Len(t, got, 3)

	arrow, ok := got[1].(*logmsg.ArrowMsg)
	require.True(t, ok)

	tbl, err := arrow.Table()
	require.NoError(t, err)
	defer tbl.Release()
	require.Equal(t, int64(3), tbl.NumRows())
}

func Test_Archive_Store_missingIdentity(t *testing.T) {
	archive := NewArchive(objstore.NewInMemBucket(), recording.CompressionNone)

	_, err := archive.Store(context.Background(), logmsg.RecordingInfo{RecordingID: "rec"}, nil)
	require.Error(t, err)

	_, err = archive.Store(context.Background(), logmsg.RecordingInfo{ApplicationID: "app"}, nil)
	require.Error(t, err)
}

func Test_Archive_StoreAll(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(objstore.NewInMemBucket(), recording.CompressionSnappy)

	var recs []StoredRecording
	for i := 0; i < 5; i++ {
		info, msgs := finishedRecording(t, "app", fmt.Sprintf("rec-%d", i))
		recs = append(recs, StoredRecording{Info: info, Msgs: msgs})
	}

	names, err := archive.StoreAll(ctx, recs)
	require.NoError(t, err)
	require.Len(t, names, 5)
	require.Equal(t, "recordings/app/rec-0.rrd", names[0])

	listed, err := archive.List(ctx, "app")
	require.NoError(t, err)
	require.Len(t, listed, 5)
}

func Test_Archive_Delete(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(objstore.NewInMemBucket(), recording.CompressionNone)

	info, msgs := finishedRecording(t, "app", "rec-1")
	name, err := archive.Store(ctx, info, msgs)
	require.NoError(t, err)

	require.NoError(t, archive.Delete(ctx, name))

	names, err := archive.List(ctx, "app")
	require.NoError(t, err)
	require.Empty(t, names)

	_, err = archive.Open(ctx, name)
	require.Error(t, err)
}

func Test_Archive_List_empty(t *testing.T) {
	archive := NewArchive(objstore.NewInMemBucket(), recording.CompressionNone)

	names, err := archive.List(context.Background(), "nothing-here")
	require.NoError(t, err)
	require.Empty(t, names)
}
