package dcp

import (
	"math"
	"strings"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// Wire representations of the device control documents. The device speaks
// kbps and upper-case mode markers; translation to and from the canonical
// model must round-trip losslessly for every value the device supports.

type wireStream struct {
	Resolution  string `json:"resolution"`
	Codec       string `json:"codec"`
	FrameRate   int    `json:"frame_rate"`
	BitrateKbps int    `json:"bitrate_kbps"`
	GOPLength   int    `json:"gop_length"`
	RateControl string `json:"rate_control"`
}

type wireExposure struct {
	Mode      string `json:"mode"`
	Shutter   string `json:"shutter"`
	Iris      string `json:"iris"`
	GainLimit int    `json:"gain_limit"`
	WDR       string `json:"wdr"`
	BLC       string `json:"blc"`
	HLC       string `json:"hlc"`
}

type wireLowLight struct {
	IRMode      string `json:"ir_mode"`
	IRLevel     int    `json:"ir_level"`
	DayNight    string `json:"day_night"`
	DNRLevel    string `json:"dnr_level"`
	SlowShutter string `json:"slow_shutter"`
}

type wireImage struct {
	Sharpness    int    `json:"sharpness"`
	Contrast     int    `json:"contrast"`
	Saturation   int    `json:"saturation"`
	Brightness   int    `json:"brightness"`
	WhiteBalance string `json:"white_balance"`
}

type wireSettings struct {
	Stream   *wireStream   `json:"stream,omitempty"`
	Exposure *wireExposure `json:"exposure,omitempty"`
	LowLight *wireLowLight `json:"lowlight,omitempty"`
	Image    *wireImage    `json:"image,omitempty"`
}

type wireFrameRateRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type wireGainRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type wireFeatures struct {
	WDR bool `json:"wdr"`
	IR  bool `json:"ir"`
	BLC bool `json:"blc"`
	HLC bool `json:"hlc"`
	PTZ bool `json:"ptz"`
	LPR bool `json:"lpr"`
}

type wireCapabilities struct {
	Resolutions    []string            `json:"resolutions"`
	Codecs         []string            `json:"codecs"`
	FrameRate      *wireFrameRateRange `json:"frame_rate,omitempty"`
	MaxBitrateKbps int                 `json:"max_bitrate_kbps"`
	WDRLevels      []string            `json:"wdr_levels"`
	ShutterModes   []string            `json:"shutter_modes"`
	Gain           *wireGainRange      `json:"gain,omitempty"`
	IRModes        []string            `json:"ir_modes"`
	DNRLevels      []string            `json:"dnr_levels"`
	Features       wireFeatures        `json:"features"`
}

// mbpsToKbps converts the canonical bitrate unit to the wire unit. Whole
// kbps resolution keeps the conversion exact for any canonical value with
// millibit precision.
func mbpsToKbps(mbps float64) int {
	return int(math.Round(mbps * 1000))
}

func kbpsToMbps(kbps int) float64 {
	return float64(kbps) / 1000
}

func boolToSwitch(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func switchToBool(s string) bool {
	return strings.EqualFold(s, "on")
}

func toWireStream(s *settings.StreamSettings) *wireStream {
	return &wireStream{
		Resolution:  s.Resolution,
		Codec:       s.Codec,
		FrameRate:   s.FPS,
		BitrateKbps: mbpsToKbps(s.BitrateMbps),
		GOPLength:   s.KeyframeInterval,
		RateControl: strings.ToUpper(string(s.BitrateMode)),
	}
}

func fromWireStream(w *wireStream) *settings.StreamSettings {
	return &settings.StreamSettings{
		Resolution:       w.Resolution,
		Codec:            w.Codec,
		FPS:              w.FrameRate,
		BitrateMbps:      kbpsToMbps(w.BitrateKbps),
		KeyframeInterval: w.GOPLength,
		BitrateMode:      settings.BitrateMode(strings.ToLower(w.RateControl)),
	}
}

func toWireExposure(s *settings.ExposureSettings) *wireExposure {
	return &wireExposure{
		Mode:      s.Mode,
		Shutter:   s.Shutter,
		Iris:      s.Iris,
		GainLimit: s.GainLimitDB,
		WDR:       s.WDRLevel,
		BLC:       boolToSwitch(s.BLC),
		HLC:       boolToSwitch(s.HLC),
	}
}

func fromWireExposure(w *wireExposure) *settings.ExposureSettings {
	return &settings.ExposureSettings{
		Mode:        w.Mode,
		Shutter:     w.Shutter,
		Iris:        w.Iris,
		GainLimitDB: w.GainLimit,
		WDRLevel:    w.WDR,
		BLC:         switchToBool(w.BLC),
		HLC:         switchToBool(w.HLC),
	}
}

func toWireLowLight(s *settings.LowLightSettings) *wireLowLight {
	return &wireLowLight{
		IRMode:      s.IRMode,
		IRLevel:     s.IRIntensity,
		DayNight:    s.DayNightMode,
		DNRLevel:    s.NoiseReduction,
		SlowShutter: boolToSwitch(s.SlowShutter),
	}
}

func fromWireLowLight(w *wireLowLight) *settings.LowLightSettings {
	return &settings.LowLightSettings{
		IRMode:         w.IRMode,
		IRIntensity:    w.IRLevel,
		DayNightMode:   w.DayNight,
		NoiseReduction: w.DNRLevel,
		SlowShutter:    switchToBool(w.SlowShutter),
	}
}

func toWireImage(s *settings.ImageSettings) *wireImage {
	return &wireImage{
		Sharpness:    s.Sharpness,
		Contrast:     s.Contrast,
		Saturation:   s.Saturation,
		Brightness:   s.Brightness,
		WhiteBalance: s.WhiteBalance,
	}
}

func fromWireImage(w *wireImage) *settings.ImageSettings {
	return &settings.ImageSettings{
		Sharpness:    w.Sharpness,
		Contrast:     w.Contrast,
		Saturation:   w.Saturation,
		Brightness:   w.Brightness,
		WhiteBalance: w.WhiteBalance,
	}
}

func fromWireSettings(w *wireSettings) *settings.CameraSettings {
	out := &settings.CameraSettings{}
	if w.Stream != nil {
		out.Stream = fromWireStream(w.Stream)
	}
	if w.Exposure != nil {
		out.Exposure = fromWireExposure(w.Exposure)
	}
	if w.LowLight != nil {
		out.LowLight = fromWireLowLight(w.LowLight)
	}
	if w.Image != nil {
		out.Image = fromWireImage(w.Image)
	}
	return out
}

// wireGroupPayload builds the wire document for a single sub-group. The
// bool result is false when the canonical settings do not carry that
// sub-group.
func wireGroupPayload(s *settings.CameraSettings, g adapter.SubGroup) (interface{}, bool) {
	if s == nil {
		return nil, false
	}
	switch g {
	case adapter.SubGroupStream:
		if s.Stream == nil {
			return nil, false
		}
		return toWireStream(s.Stream), true
	case adapter.SubGroupExposure:
		if s.Exposure == nil {
			return nil, false
		}
		return toWireExposure(s.Exposure), true
	case adapter.SubGroupLowLight:
		if s.LowLight == nil {
			return nil, false
		}
		return toWireLowLight(s.LowLight), true
	case adapter.SubGroupImage:
		if s.Image == nil {
			return nil, false
		}
		return toWireImage(s.Image), true
	}
	return nil, false
}

// normalizeCapabilities lifts the device capability document into the
// canonical capability set. Fields the document omits stay at their
// unconstrained zero values.
func normalizeCapabilities(w *wireCapabilities) *settings.CameraCapabilities {
	caps := &settings.CameraCapabilities{
		Resolutions:    w.Resolutions,
		Codecs:         w.Codecs,
		MaxBitrateMbps: kbpsToMbps(w.MaxBitrateKbps),
		WDRLevels:      w.WDRLevels,
		ShutterModes:   w.ShutterModes,
		IRModes:        w.IRModes,
		NoiseReduction: w.DNRLevels,
		HasWDR:         w.Features.WDR,
		HasIR:          w.Features.IR,
		HasBLC:         w.Features.BLC,
		HasHLC:         w.Features.HLC,
		HasPTZ:         w.Features.PTZ,
		LPRCapable:     w.Features.LPR,
	}
	if w.FrameRate != nil {
		caps.MinFPS = w.FrameRate.Min
		caps.MaxFPS = w.FrameRate.Max
	}
	if w.Gain != nil {
		caps.Gain = &settings.GainRange{MinDB: w.Gain.Min, MaxDB: w.Gain.Max}
	}
	return caps
}
