package vms

import (
	"strings"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// VMS settings records are camelCase JSON objects close to the canonical
// shape; bitrate is already Mbps, switches are booleans.

type vmsStream struct {
	Resolution       string  `json:"resolution"`
	Codec            string  `json:"codec"`
	Fps              int     `json:"fps"`
	BitrateMbps      float64 `json:"bitrateMbps"`
	KeyframeInterval int     `json:"keyframeInterval"`
	RateControl      string  `json:"rateControl"`
}

type vmsExposure struct {
	Mode         string `json:"mode"`
	ShutterSpeed string `json:"shutterSpeed"`
	Iris         string `json:"iris"`
	GainLimitDb  int    `json:"gainLimitDb"`
	WdrLevel     string `json:"wdrLevel"`
	BacklightComp bool  `json:"backlightComp"`
	HighlightComp bool  `json:"highlightComp"`
}

type vmsLowLight struct {
	IrMode         string `json:"irMode"`
	IrIntensity    int    `json:"irIntensity"`
	DayNightMode   string `json:"dayNightMode"`
	NoiseReduction string `json:"noiseReduction"`
	SlowShutter    bool   `json:"slowShutter"`
}

type vmsImage struct {
	Sharpness    int    `json:"sharpness"`
	Contrast     int    `json:"contrast"`
	Saturation   int    `json:"saturation"`
	Brightness   int    `json:"brightness"`
	WhiteBalance string `json:"whiteBalance"`
}

type vmsSettings struct {
	Stream   *vmsStream   `json:"stream,omitempty"`
	Exposure *vmsExposure `json:"exposure,omitempty"`
	LowLight *vmsLowLight `json:"lowLight,omitempty"`
	Image    *vmsImage    `json:"image,omitempty"`
}

type vmsCapabilities struct {
	Resolutions    []string `json:"resolutions"`
	Codecs         []string `json:"codecs"`
	MaxFps         int      `json:"maxFps"`
	MinFps         int      `json:"minFps"`
	MaxBitrateMbps float64  `json:"maxBitrateMbps"`
	WdrLevels      []string `json:"wdrLevels"`
	ShutterModes   []string `json:"shutterModes"`
	GainMinDb      *int     `json:"gainMinDb,omitempty"`
	GainMaxDb      *int     `json:"gainMaxDb,omitempty"`
	IrModes        []string `json:"irModes"`
	NoiseReduction []string `json:"noiseReductionLevels"`
	Features       struct {
		Wdr bool `json:"wdr"`
		Ir  bool `json:"ir"`
		Blc bool `json:"blc"`
		Hlc bool `json:"hlc"`
		Ptz bool `json:"ptz"`
		Lpr bool `json:"lpr"`
	} `json:"features"`
}

func vmsGroupName(g adapter.SubGroup) string {
	switch g {
	case adapter.SubGroupLowLight:
		return "lowLight"
	default:
		return string(g)
	}
}

func toVMSSettings(s *settings.CameraSettings) *vmsSettings {
	out := &vmsSettings{}
	if s == nil {
		return out
	}
	if s.Stream != nil {
		out.Stream = &vmsStream{
			Resolution:       s.Stream.Resolution,
			Codec:            s.Stream.Codec,
			Fps:              s.Stream.FPS,
			BitrateMbps:      s.Stream.BitrateMbps,
			KeyframeInterval: s.Stream.KeyframeInterval,
			RateControl:      strings.ToUpper(string(s.Stream.BitrateMode)),
		}
	}
	if s.Exposure != nil {
		out.Exposure = &vmsExposure{
			Mode:          s.Exposure.Mode,
			ShutterSpeed:  s.Exposure.Shutter,
			Iris:          s.Exposure.Iris,
			GainLimitDb:   s.Exposure.GainLimitDB,
			WdrLevel:      s.Exposure.WDRLevel,
			BacklightComp: s.Exposure.BLC,
			HighlightComp: s.Exposure.HLC,
		}
	}
	if s.LowLight != nil {
		out.LowLight = &vmsLowLight{
			IrMode:         s.LowLight.IRMode,
			IrIntensity:    s.LowLight.IRIntensity,
			DayNightMode:   s.LowLight.DayNightMode,
			NoiseReduction: s.LowLight.NoiseReduction,
			SlowShutter:    s.LowLight.SlowShutter,
		}
	}
	if s.Image != nil {
		out.Image = &vmsImage{
			Sharpness:    s.Image.Sharpness,
			Contrast:     s.Image.Contrast,
			Saturation:   s.Image.Saturation,
			Brightness:   s.Image.Brightness,
			WhiteBalance: s.Image.WhiteBalance,
		}
	}
	return out
}

func fromVMSSettings(v *vmsSettings) *settings.CameraSettings {
	out := &settings.CameraSettings{}
	if v.Stream != nil {
		out.Stream = &settings.StreamSettings{
			Resolution:       v.Stream.Resolution,
			Codec:            v.Stream.Codec,
			FPS:              v.Stream.Fps,
			BitrateMbps:      v.Stream.BitrateMbps,
			KeyframeInterval: v.Stream.KeyframeInterval,
			BitrateMode:      settings.BitrateMode(strings.ToLower(v.Stream.RateControl)),
		}
	}
	if v.Exposure != nil {
		out.Exposure = &settings.ExposureSettings{
			Mode:        v.Exposure.Mode,
			Shutter:     v.Exposure.ShutterSpeed,
			Iris:        v.Exposure.Iris,
			GainLimitDB: v.Exposure.GainLimitDb,
			WDRLevel:    v.Exposure.WdrLevel,
			BLC:         v.Exposure.BacklightComp,
			HLC:         v.Exposure.HighlightComp,
		}
	}
	if v.LowLight != nil {
		out.LowLight = &settings.LowLightSettings{
			IRMode:         v.LowLight.IrMode,
			IRIntensity:    v.LowLight.IrIntensity,
			DayNightMode:   v.LowLight.DayNightMode,
			NoiseReduction: v.LowLight.NoiseReduction,
			SlowShutter:    v.LowLight.SlowShutter,
		}
	}
	if v.Image != nil {
		out.Image = &settings.ImageSettings{
			Sharpness:    v.Image.Sharpness,
			Contrast:     v.Image.Contrast,
			Saturation:   v.Image.Saturation,
			Brightness:   v.Image.Brightness,
			WhiteBalance: v.Image.WhiteBalance,
		}
	}
	return out
}

func normalizeCapabilities(v *vmsCapabilities) *settings.CameraCapabilities {
	caps := &settings.CameraCapabilities{
		Resolutions:    v.Resolutions,
		Codecs:         v.Codecs,
		MaxFPS:         v.MaxFps,
		MinFPS:         v.MinFps,
		MaxBitrateMbps: v.MaxBitrateMbps,
		WDRLevels:      v.WdrLevels,
		ShutterModes:   v.ShutterModes,
		IRModes:        v.IrModes,
		NoiseReduction: v.NoiseReduction,
		HasWDR:         v.Features.Wdr,
		HasIR:          v.Features.Ir,
		HasBLC:         v.Features.Blc,
		HasHLC:         v.Features.Hlc,
		HasPTZ:         v.Features.Ptz,
		LPRCapable:     v.Features.Lpr,
	}
	if v.GainMinDb != nil && v.GainMaxDb != nil {
		caps.Gain = &settings.GainRange{MinDB: *v.GainMinDb, MaxDB: *v.GainMaxDb}
	}
	return caps
}
