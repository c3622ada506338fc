package settings

// GainRange bounds the sensor gain limit in decibels.
type GainRange struct {
	MinDB int `json:"min_db"`
	MaxDB int `json:"max_db"`
}

// CameraCapabilities is the canonical capability set produced by a backend
// adapter's capability normalizer. An empty slice, nil pointer, or zero
// numeric bound means the capability is unknown and must be treated as
// unconstrained. It never means unsupported; backends that know a feature
// is absent say so through the explicit feature flags.
type CameraCapabilities struct {
	Resolutions    []string  `json:"resolutions"`
	Codecs         []string  `json:"codecs"`
	MaxFPS         int       `json:"max_fps"`
	MinFPS         int       `json:"min_fps"`
	MaxBitrateMbps float64   `json:"max_bitrate_mbps"`
	WDRLevels      []string  `json:"wdr_levels"`
	ShutterModes   []string  `json:"shutter_modes"`
	Gain           *GainRange `json:"gain,omitempty"`
	IRModes        []string  `json:"ir_modes"`
	NoiseReduction []string  `json:"noise_reduction_levels"`

	HasWDR     bool `json:"has_wdr"`
	HasIR      bool `json:"has_ir"`
	HasBLC     bool `json:"has_blc"`
	HasHLC     bool `json:"has_hlc"`
	HasPTZ     bool `json:"has_ptz"`
	LPRCapable bool `json:"lpr_capable"`
}

// SupportsResolution reports membership in the supported resolution set,
// treating an unknown set as unconstrained.
func (c *CameraCapabilities) SupportsResolution(res string) bool {
	return memberOrUnconstrained(c.Resolutions, res)
}

// SupportsCodec reports membership in the supported codec set.
func (c *CameraCapabilities) SupportsCodec(codec string) bool {
	return memberOrUnconstrained(c.Codecs, codec)
}

func memberOrUnconstrained(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
