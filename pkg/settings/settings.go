// The settings package contains the canonical camera configuration model.
// Every backend adapter translates its native wire representation to and
// from these types; nothing outside this package defines camera state.
package settings

// SceneType classifies the physical scene a camera watches.
type SceneType string

const (
	SceneEntrance   SceneType = "entrance"
	SceneParking    SceneType = "parking"
	SceneHallway    SceneType = "hallway"
	ScenePerimeter  SceneType = "perimeter"
	SceneCashWrap   SceneType = "cash-wrap"
	SceneLobby      SceneType = "lobby"
	SceneWarehouse  SceneType = "warehouse"
	SceneStairwell  SceneType = "stairwell"
	SceneLoadingDock SceneType = "loading-dock"
)

// SceneTypes lists every known scene classification.
func SceneTypes() []SceneType {
	return []SceneType{
		SceneEntrance, SceneParking, SceneHallway, ScenePerimeter,
		SceneCashWrap, SceneLobby, SceneWarehouse, SceneStairwell,
		SceneLoadingDock,
	}
}

// CameraPurpose classifies what the footage is for.
type CameraPurpose string

const (
	PurposeFacial   CameraPurpose = "facial"
	PurposePlates   CameraPurpose = "plates"
	PurposeOverview CameraPurpose = "overview"
	PurposeEvidence CameraPurpose = "evidence"
	PurposeCounting CameraPurpose = "counting"
)

// CameraPurposes lists every known camera purpose.
func CameraPurposes() []CameraPurpose {
	return []CameraPurpose{
		PurposeFacial, PurposePlates, PurposeOverview,
		PurposeEvidence, PurposeCounting,
	}
}

// CameraContext identifies a camera and how it is deployed. It is treated
// as immutable for the duration of an optimization request.
type CameraContext struct {
	ID       string        `json:"id"`
	Address  string        `json:"address"`
	Vendor   string        `json:"vendor"`
	Model    string        `json:"model"`
	Location string        `json:"location"`
	Scene    SceneType     `json:"scene"`
	Purpose  CameraPurpose `json:"purpose"`
}

// BitrateMode selects between constant and variable rate encoding.
type BitrateMode string

const (
	BitrateConstant BitrateMode = "cbr"
	BitrateVariable BitrateMode = "vbr"
)

// StreamSettings is the encoder configuration sub-group.
type StreamSettings struct {
	Resolution       string      `json:"resolution" yaml:"resolution"`
	Codec            string      `json:"codec" yaml:"codec"`
	FPS              int         `json:"fps" yaml:"fps"`
	BitrateMbps      float64     `json:"bitrate_mbps" yaml:"bitrate_mbps"`
	KeyframeInterval int         `json:"keyframe_interval" yaml:"keyframe_interval"`
	BitrateMode      BitrateMode `json:"bitrate_mode" yaml:"bitrate_mode"`
}

// ExposureSettings is the exposure configuration sub-group.
type ExposureSettings struct {
	Mode        string `json:"mode" yaml:"mode"`
	Shutter     string `json:"shutter" yaml:"shutter"`
	Iris        string `json:"iris" yaml:"iris"`
	GainLimitDB int    `json:"gain_limit_db" yaml:"gain_limit_db"`
	WDRLevel    string `json:"wdr_level" yaml:"wdr_level"`
	BLC         bool   `json:"blc" yaml:"blc"`
	HLC         bool   `json:"hlc" yaml:"hlc"`
}

// LowLightSettings is the night-time behavior sub-group.
type LowLightSettings struct {
	IRMode         string `json:"ir_mode" yaml:"ir_mode"`
	IRIntensity    int    `json:"ir_intensity" yaml:"ir_intensity"`
	DayNightMode   string `json:"day_night_mode" yaml:"day_night_mode"`
	NoiseReduction string `json:"noise_reduction" yaml:"noise_reduction"`
	SlowShutter    bool   `json:"slow_shutter" yaml:"slow_shutter"`
}

// ImageSettings is the picture tuning sub-group.
type ImageSettings struct {
	Sharpness    int    `json:"sharpness" yaml:"sharpness"`
	Contrast     int    `json:"contrast" yaml:"contrast"`
	Saturation   int    `json:"saturation" yaml:"saturation"`
	Brightness   int    `json:"brightness" yaml:"brightness"`
	WhiteBalance string `json:"white_balance" yaml:"white_balance"`
}

// CameraSettings groups the four configuration sub-groups. A nil sub-group
// means the backend does not expose it; this is distinct from a sub-group
// at its zero value, which is a real (if unlikely) configuration.
type CameraSettings struct {
	Stream   *StreamSettings   `json:"stream,omitempty" yaml:"stream,omitempty"`
	Exposure *ExposureSettings `json:"exposure,omitempty" yaml:"exposure,omitempty"`
	LowLight *LowLightSettings `json:"low_light,omitempty" yaml:"low_light,omitempty"`
	Image    *ImageSettings    `json:"image,omitempty" yaml:"image,omitempty"`
}

// Clone returns a deep copy so that callers can hand settings across
// goroutine boundaries without sharing mutable state.
func (s *CameraSettings) Clone() *CameraSettings {
	if s == nil {
		return nil
	}
	out := &CameraSettings{}
	if s.Stream != nil {
		cp := *s.Stream
		out.Stream = &cp
	}
	if s.Exposure != nil {
		cp := *s.Exposure
		out.Exposure = &cp
	}
	if s.LowLight != nil {
		cp := *s.LowLight
		out.LowLight = &cp
	}
	if s.Image != nil {
		cp := *s.Image
		out.Image = &cp
	}
	return out
}

// Complete reports whether every sub-group is present. An apply request
// must carry all four sub-groups; reads may return any subset.
func (s *CameraSettings) Complete() bool {
	return s != nil && s.Stream != nil && s.Exposure != nil &&
		s.LowLight != nil && s.Image != nil
}
