package backend

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func Test_Store_subscriptions(t *testing.T) {
	store := NewStore()
	require.Empty(t, store.Subscriptions())

	store.SetSubscriptions([]Topic{TopicColorImage, TopicDepthImage, TopicColorImage})
	require.Equal(t, []Topic{TopicColorImage, TopicDepthImage}, store.Subscriptions())

	require.True(t, store.Subscribed(TopicDepthImage))
	require.False(t, store.Subscribed(TopicImuData))
}

func Test_Store_updatePipeline_rollback(t *testing.T) {
	store := NewStore()

	first := DefaultPipelineConfig()
	require.NoError(t, store.UpdatePipeline(first))

	store.OnUpdatePipeline = func(PipelineConfig) error {
		return errors.New("device rejected pipeline")
	}

	second := DefaultPipelineConfig()
	second.ColorCamera.FPS = 60
	require.Error(t, store.UpdatePipeline(second))

	active, ok := store.Pipeline()
	require.True(t, ok)
	require.Equal(t, 30, active.ColorCamera.FPS)
}

func Test_Store_selectDevice(t *testing.T) {
	store := NewStore()
	store.OnSelectDevice = func(deviceID string) (Device, error) {
		if deviceID == "broken" {
			return Device{}, errors.New("cannot open device")
		}
		return Device{ID: deviceID}, nil
	}

	device, err := store.SelectDevice("14442C10D13EABCE00")
	require.NoError(t, err)
	require.Equal(t, "14442C10D13EABCE00", device.ID)

	_, err = store.SelectDevice("broken")
	require.Error(t, err)
	require.Equal(t, "14442C10D13EABCE00", store.Device().ID)
}

func Test_Store_reset(t *testing.T) {
	store := NewStore()

	var resets int
	store.OnReset = func() error {
		resets++
		return nil
	}

	store.SetSubscriptions([]Topic{TopicColorImage})
	require.NoError(t, store.UpdatePipeline(DefaultPipelineConfig()))
	_, err := store.SelectDevice("dev-1")
	require.NoError(t, err)

	require.NoError(t, store.Reset())
	require.Equal(t, 1, resets)
	require.Empty(t, store.Subscriptions())
	require.Equal(t, Device{}, store.Device())
	_, ok := store.Pipeline()
	require.False(t, ok)
}

func Test_Store_dispatch(t *testing.T) {
	store := NewStore()
	store.OnListDevices = func() []string {
		return []string{"dev-1", "dev-2"}
	}

	reply := store.Dispatch(NewMessage(SubscriptionsData{TopicColorImage, TopicColorImage}))
	require.Equal(t, NewMessage(SubscriptionsData{TopicColorImage}), reply)

	reply = store.Dispatch(Message{Type: MessageDevices})
	require.Equal(t, NewMessage(DevicesData{"dev-1", "dev-2"}), reply)

	reply = store.Dispatch(Message{Type: MessageDevice})
	require.Equal(t, MessageError, reply.Type)
	require.Equal(t, ErrorActionNone, reply.Data.(ErrorData).Action)
}

func Test_Store_dispatch_failedPipeline(t *testing.T) {
	store := NewStore()
	store.OnUpdatePipeline = func(PipelineConfig) error {
		return errors.New("no device selected")
	}

	reply := store.Dispatch(NewMessage(PipelineData(DefaultPipelineConfig())))
	require.Equal(t, MessageError, reply.Type)

	errData, ok := reply.Data.(ErrorData)
	require.True(t, ok)
	require.Equal(t, ErrorActionFullReset, errData.Action)
	require.Contains(t, errData.Message, "no device selected")
}

type controlConn struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialControl(t *testing.T, addr string) *controlConn {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &controlConn{conn: conn, r: bufio.NewReader(conn)}
}

func (c *controlConn) roundTrip(t *testing.T, msg Message) Message {
	t.Helper()

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	data = append(data, '\n')
	_, err = c.conn.Write(data)
	require.NoError(t, err)

	line, err := c.r.ReadBytes('\n')
	require.NoError(t, err)

	var reply Message
	require.NoError(t, json.Unmarshal(line, &reply))
	return reply
}

func Test_ControlServer_endToEnd(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := NewStore()
	store.OnListDevices = func() []string { return []string{"dev-1"} }

	srv, err := NewControlServer("127.0.0.1:0", store, logger)
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(srv.Stop)

	client := dialControl(t, srv.Addr().String())

	reply := client.roundTrip(t, NewMessage(SubscriptionsData{TopicColorImage, TopicImuData}))
	require.Equal(t, NewMessage(SubscriptionsData{TopicColorImage, TopicImuData}), reply)
	require.True(t, store.Subscribed(TopicImuData))

	reply = client.roundTrip(t, Message{Type: MessageDevices})
	require.Equal(t, NewMessage(DevicesData{"dev-1"}), reply)

	reply = client.roundTrip(t, NewMessage(DeviceData{ID: "dev-1"}))
	require.Equal(t, NewMessage(DeviceData{ID: "dev-1"}), reply)

	reply = client.roundTrip(t, NewMessage(PipelineData(DefaultPipelineConfig())))
	require.Equal(t, MessagePipeline, reply.Type)

	// Dropping the connection resets the store.
	require.NoError(t, client.conn.Close())
	require.Eventually(t, func() bool {
		return len(store.Subscriptions()) == 0
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, Device{}, store.Device())
}

func Test_ControlServer_skipsMalformedLines(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := NewStore()
	srv, err := NewControlServer("127.0.0.1:0", store, logger)
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(srv.Stop)

	client := dialControl(t, srv.Addr().String())

	_, err = client.conn.Write([]byte("this is not json\n\n"))
	require.NoError(t, err)

	// The connection survives garbage; the next message still works.
	reply := client.roundTrip(t, NewMessage(SubscriptionsData{TopicColorImage}))
	require.Equal(t, NewMessage(SubscriptionsData{TopicColorImage}), reply)
}
