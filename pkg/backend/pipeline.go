package backend

// Camera resolutions and board sockets use the device SDK's spelling, which
// is what the viewer sends over the wire.
type (
	ColorCameraResolution string
	MonoCameraResolution  string
	BoardSocket           string
	DepthMedianFilter     string
)

const (
	ColorResolution1080P ColorCameraResolution = "THE_1080_P"
	ColorResolution4K    ColorCameraResolution = "THE_4_K"

	MonoResolution400P MonoCameraResolution = "THE_400_P"

	BoardSocketAuto  BoardSocket = "AUTO"
	BoardSocketRGB   BoardSocket = "RGB"
	BoardSocketLeft  BoardSocket = "LEFT"
	BoardSocketRight BoardSocket = "RIGHT"

	MedianOff       DepthMedianFilter = "MEDIAN_OFF"
	MedianKernel3x3 DepthMedianFilter = "KERNEL_3x3"
	MedianKernel5x5 DepthMedianFilter = "KERNEL_5x5"
	MedianKernel7x7 DepthMedianFilter = "KERNEL_7x7"
)

// ColorCameraConfig configures the color sensor.
type ColorCameraConfig struct {
	FPS         int                   `json:"fps"`
	Resolution  ColorCameraResolution `json:"resolution"`
	BoardSocket BoardSocket           `json:"board_socket"`
}

// DefaultColorCameraConfig returns the color camera settings used when the
// viewer has not picked any.
func DefaultColorCameraConfig() ColorCameraConfig {
	return ColorCameraConfig{
		FPS:         30,
		Resolution:  ColorResolution1080P,
		BoardSocket: BoardSocketRGB,
	}
}

// MonoCameraConfig configures one of the mono sensors.
type MonoCameraConfig struct {
	FPS         int                  `json:"fps"`
	Resolution  MonoCameraResolution `json:"resolution"`
	BoardSocket BoardSocket          `json:"board_socket"`
}

// DefaultLeftCameraConfig returns the default left mono camera settings.
func DefaultLeftCameraConfig() MonoCameraConfig {
	return MonoCameraConfig{
		FPS:         30,
		Resolution:  MonoResolution400P,
		BoardSocket: BoardSocketLeft,
	}
}

// DefaultRightCameraConfig returns the default right mono camera settings.
func DefaultRightCameraConfig() MonoCameraConfig {
	return MonoCameraConfig{
		FPS:         30,
		Resolution:  MonoResolution400P,
		BoardSocket: BoardSocketRight,
	}
}

// DepthConfig configures the stereo depth node.
type DepthConfig struct {
	Median            DepthMedianFilter `json:"median"`
	LRCheck           bool              `json:"lr_check"`
	LRCThreshold      int               `json:"lrc_threshold"` // 0..10
	ExtendedDisparity bool              `json:"extended_disparity"`
	SubpixelDisparity bool              `json:"subpixel_disparity"`
	Align             BoardSocket       `json:"align"`
	Sigma             int               `json:"sigma"` // 0..65535
	Confidence        int               `json:"confidence"`
}

// DefaultDepthConfig returns the depth settings used when the viewer has not
// picked any.
func DefaultDepthConfig() DepthConfig {
	return DepthConfig{
		Median:            MedianKernel7x7,
		LRCheck:           true,
		LRCThreshold:      5,
		SubpixelDisparity: true,
		Align:             BoardSocketRGB,
		Confidence:        230,
	}
}

// RequiresRebuild reports whether switching to next needs the device
// pipeline rebuilt. The median filter, left-right check threshold, sigma and
// confidence threshold are runtime tunable and apply in place.
func (c DepthConfig) RequiresRebuild(next DepthConfig) bool {
	c.Median, next.Median = "", ""
	c.LRCThreshold, next.LRCThreshold = 0, 0
	c.Sigma, next.Sigma = 0, 0
	c.Confidence, next.Confidence = 0, 0
	return c != next
}

// AiModel names a neural network the device can run.
type AiModel struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
}

// DefaultNeuralNetworks lists the models the viewer offers out of the box.
// The first entry is the "no model" placeholder.
func DefaultNeuralNetworks() []AiModel {
	return []AiModel{
		{Path: "", DisplayName: "No model selected"},
		{Path: "yolo-v3-tiny-tf", DisplayName: "Yolo (tiny)"},
		{Path: "mobilenet-ssd", DisplayName: "MobileNet SSD"},
		{Path: "face-detection-retail-0004", DisplayName: "Face Detection"},
		{Path: "age-gender-recognition-retail-0013", DisplayName: "Age gender recognition"},
	}
}

// ImuConfig configures IMU reporting.
type ImuConfig struct {
	ReportRate           int `json:"report_rate"`
	BatchReportThreshold int `json:"batch_report_threshold"`
}

// DefaultImuConfig returns the default IMU reporting settings.
func DefaultImuConfig() ImuConfig {
	return ImuConfig{ReportRate: 100, BatchReportThreshold: 5}
}

// PipelineConfig is the full device pipeline description exchanged with the
// viewer. Depth and AiModel are optional nodes.
type PipelineConfig struct {
	ColorCamera ColorCameraConfig `json:"color_camera"`
	LeftCamera  MonoCameraConfig  `json:"left_camera"`
	RightCamera MonoCameraConfig  `json:"right_camera"`
	Depth       *DepthConfig      `json:"depth"`
	AiModel     *AiModel          `json:"ai_model"`
	Imu         ImuConfig         `json:"imu"`
}

// DefaultPipelineConfig returns a pipeline with all cameras and depth at
// their defaults and no neural network.
func DefaultPipelineConfig() PipelineConfig {
	depth := DefaultDepthConfig()
	return PipelineConfig{
		ColorCamera: DefaultColorCameraConfig(),
		LeftCamera:  DefaultLeftCameraConfig(),
		RightCamera: DefaultRightCameraConfig(),
		Depth:       &depth,
		Imu:         DefaultImuConfig(),
	}
}
