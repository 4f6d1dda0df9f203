package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Topic_json(t *testing.T) {
	data, err := json.Marshal(TopicDepthImage)
	require.NoError(t, err)
	require.JSONEq(t, `"DepthImage"`, string(data))

	var byName Topic
	require.NoError(t, json.Unmarshal([]byte(`"LeftMono"`), &byName))
	require.Equal(t, TopicLeftMono, byName)

	var byID Topic
	require.NoError(t, json.Unmarshal([]byte(`7`), &byID))
	require.Equal(t, TopicImuData, byID)

	require.Error(t, json.Unmarshal([]byte(`"NoSuchTopic"`), &byName))
	require.Error(t, json.Unmarshal([]byte(`42`), &byID))
}

func Test_ParseTopic(t *testing.T) {
	for _, topic := range AllTopics() {
		parsed, err := ParseTopic(topic.String())
		require.NoError(t, err)
		require.Equal(t, topic, parsed)
	}

	_, err := ParseTopic("Bogus")
	require.Error(t, err)
}

func Test_Message_roundTrip(t *testing.T) {
	msg := NewMessage(SubscriptionsData{TopicColorImage, TopicDepthImage})

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"Subscriptions","data":["ColorImage","DepthImage"]}`, string(data))

	var got Message
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, msg, got)
}

func Test_Message_unwrapsTaggedData(t *testing.T) {
	raw := `{
		"type": "Subscriptions",
		"data": {"Subscriptions": ["ColorImage", 3]}
	}`

	var got Message
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	require.Equal(t, MessageSubscriptions, got.Type)
	require.Equal(t, SubscriptionsData{TopicColorImage, TopicDepthImage}, got.Data)
}

func Test_Message_device(t *testing.T) {
	raw := `{"type": "Device", "data": {"Device": {"id": "14442C10D13EABCE00"}}}`

	var got Message
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	require.Equal(t, DeviceData{ID: "14442C10D13EABCE00"}, got.Data)

	// The bare form decodes the same way.
	raw = `{"type": "Device", "data": {"id": "14442C10D13EABCE00"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	require.Equal(t, DeviceData{ID: "14442C10D13EABCE00"}, got.Data)
}

func Test_Message_pipeline(t *testing.T) {
	raw := `{
		"type": "Pipeline",
		"data": {"Pipeline": {
			"color_camera": {"fps": 60, "resolution": "THE_4_K", "board_socket": "RGB"},
			"left_camera": {"fps": 30, "resolution": "THE_400_P", "board_socket": "LEFT"},
			"right_camera": {"fps": 30, "resolution": "THE_400_P", "board_socket": "RIGHT"},
			"depth": {"median": "KERNEL_7x7", "lr_check": true, "lrc_threshold": 5,
				"extended_disparity": false, "subpixel_disparity": true,
				"align": "RGB", "sigma": 0, "confidence": 230},
			"ai_model": {"path": "yolo-v3-tiny-tf", "display_name": "Yolo (tiny)"},
			"imu": {"report_rate": 100, "batch_report_threshold": 5}
		}}
	}`

	var got Message
	require.NoError(t, json.Unmarshal([]byte(raw), &got))

	cfg, ok := got.Data.(PipelineData)
	require.True(t, ok)
	require.Equal(t, 60, cfg.ColorCamera.FPS)
	require.Equal(t, ColorResolution4K, cfg.ColorCamera.Resolution)
	require.NotNil(t, cfg.Depth)
	require.Equal(t, 230, cfg.Depth.Confidence)
	require.Equal(t, "yolo-v3-tiny-tf", cfg.AiModel.Path)
}

func Test_Message_missingData(t *testing.T) {
	var got Message
	require.NoError(t, json.Unmarshal([]byte(`{"type": "Devices"}`), &got))
	require.Equal(t, MessageDevices, got.Type)
	require.Nil(t, got.Data)
}

func Test_Message_invalid(t *testing.T) {
	var got Message
	require.Error(t, json.Unmarshal([]byte(`{"type": "Bogus", "data": {}}`), &got))
	require.Error(t, json.Unmarshal([]byte(`{"data": {}}`), &got))
}

func Test_Message_error(t *testing.T) {
	msg := ErrorMessage(ErrorActionFullReset, "update pipeline: %s", "device gone")

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "Error",
		"data": {"action": "FullReset", "message": "update pipeline: device gone"}
	}`, string(data))

	var got Message
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, msg, got)
}

func Test_PipelineConfig_wireShape(t *testing.T) {
	data, err := json.Marshal(DefaultPipelineConfig())
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"color_camera", "left_camera", "right_camera", "depth", "ai_model", "imu"} {
		require.Contains(t, m, key)
	}
}

func Test_DepthConfig_requiresRebuild(t *testing.T) {
	base := DefaultDepthConfig()

	tuned := base
	tuned.Median = MedianOff
	tuned.LRCThreshold = 9
	tuned.Sigma = 300
	tuned.Confidence = 100
	require.False(t, base.RequiresRebuild(tuned))

	realigned := base
	realigned.Align = BoardSocketLeft
	require.True(t, base.RequiresRebuild(realigned))

	subpixel := base
	subpixel.SubpixelDisparity = false
	require.True(t, base.RequiresRebuild(subpixel))
}
