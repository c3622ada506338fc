package optimize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// clampToCapabilities repairs any recommended value that falls outside the
// camera's supported sets, substituting the nearest supported value and
// recording a warning per substitution. Unknown capability fields are
// unconstrained and never trigger a substitution.
func clampToCapabilities(s *settings.CameraSettings, caps *settings.CameraCapabilities, oc *settings.OptimizationContext) []string {
	warnings := []string{}
	if s == nil {
		return warnings
	}

	if s.Stream != nil {
		warnings = append(warnings, clampStream(s.Stream, caps, oc)...)
	}
	if s.Exposure != nil {
		warnings = append(warnings, clampExposure(s.Exposure, caps)...)
	}
	if s.LowLight != nil {
		warnings = append(warnings, clampLowLight(s.LowLight, caps)...)
	}

	return warnings
}

func clampStream(st *settings.StreamSettings, caps *settings.CameraCapabilities, oc *settings.OptimizationContext) []string {
	warnings := []string{}

	if len(caps.Resolutions) > 0 && !caps.SupportsResolution(st.Resolution) {
		nearest := nearestResolution(st.Resolution, caps.Resolutions)
		warnings = append(warnings, fmt.Sprintf("stream.resolution '%s' is not supported; substituted nearest supported '%s'", st.Resolution, nearest))
		st.Resolution = nearest
	}

	if len(caps.Codecs) > 0 && !caps.SupportsCodec(st.Codec) {
		warnings = append(warnings, fmt.Sprintf("stream.codec '%s' is not supported; substituted '%s'", st.Codec, caps.Codecs[0]))
		st.Codec = caps.Codecs[0]
	}

	if caps.MaxFPS > 0 && st.FPS > caps.MaxFPS {
		warnings = append(warnings, fmt.Sprintf("stream.fps %d exceeds supported max %d; clamped to %d", st.FPS, caps.MaxFPS, caps.MaxFPS))
		st.FPS = caps.MaxFPS
	}
	if caps.MinFPS > 0 && st.FPS < caps.MinFPS {
		warnings = append(warnings, fmt.Sprintf("stream.fps %d is below supported min %d; clamped to %d", st.FPS, caps.MinFPS, caps.MinFPS))
		st.FPS = caps.MinFPS
	}

	if caps.MaxBitrateMbps > 0 && st.BitrateMbps > caps.MaxBitrateMbps {
		warnings = append(warnings, fmt.Sprintf("stream.bitrate_mbps %.1f exceeds supported max %.1f; clamped to %.1f", st.BitrateMbps, caps.MaxBitrateMbps, caps.MaxBitrateMbps))
		st.BitrateMbps = caps.MaxBitrateMbps
	}

	if oc != nil && oc.BandwidthLimitMbps > 0 && st.BitrateMbps > oc.BandwidthLimitMbps {
		warnings = append(warnings, fmt.Sprintf("stream.bitrate_mbps %.1f exceeds bandwidth limit %.1f; clamped to %.1f", st.BitrateMbps, oc.BandwidthLimitMbps, oc.BandwidthLimitMbps))
		st.BitrateMbps = oc.BandwidthLimitMbps
	}

	return warnings
}

func clampExposure(ex *settings.ExposureSettings, caps *settings.CameraCapabilities) []string {
	warnings := []string{}

	if len(caps.WDRLevels) > 0 && !member(caps.WDRLevels, ex.WDRLevel) {
		nearest := caps.WDRLevels[0]
		warnings = append(warnings, fmt.Sprintf("exposure.wdr_level '%s' is not supported; substituted '%s'", ex.WDRLevel, nearest))
		ex.WDRLevel = nearest
	}

	if len(caps.ShutterModes) > 0 && !member(caps.ShutterModes, ex.Shutter) {
		nearest := caps.ShutterModes[0]
		warnings = append(warnings, fmt.Sprintf("exposure.shutter '%s' is not supported; substituted '%s'", ex.Shutter, nearest))
		ex.Shutter = nearest
	}

	if caps.Gain != nil {
		if ex.GainLimitDB > caps.Gain.MaxDB {
			warnings = append(warnings, fmt.Sprintf("exposure.gain_limit_db %d exceeds supported max %d; clamped to %d", ex.GainLimitDB, caps.Gain.MaxDB, caps.Gain.MaxDB))
			ex.GainLimitDB = caps.Gain.MaxDB
		}
		if ex.GainLimitDB < caps.Gain.MinDB {
			warnings = append(warnings, fmt.Sprintf("exposure.gain_limit_db %d is below supported min %d; clamped to %d", ex.GainLimitDB, caps.Gain.MinDB, caps.Gain.MinDB))
			ex.GainLimitDB = caps.Gain.MinDB
		}
	}

	return warnings
}

func clampLowLight(ll *settings.LowLightSettings, caps *settings.CameraCapabilities) []string {
	warnings := []string{}

	if len(caps.IRModes) > 0 && !member(caps.IRModes, ll.IRMode) {
		nearest := caps.IRModes[0]
		warnings = append(warnings, fmt.Sprintf("low_light.ir_mode '%s' is not supported; substituted '%s'", ll.IRMode, nearest))
		ll.IRMode = nearest
	}

	if len(caps.NoiseReduction) > 0 && !member(caps.NoiseReduction, ll.NoiseReduction) {
		nearest := caps.NoiseReduction[0]
		warnings = append(warnings, fmt.Sprintf("low_light.noise_reduction '%s' is not supported; substituted '%s'", ll.NoiseReduction, nearest))
		ll.NoiseReduction = nearest
	}

	return warnings
}

func member(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// nearestResolution picks the supported resolution closest in pixel count
// to the requested one. Unparseable resolution strings fall back to the
// first supported entry.
func nearestResolution(requested string, supported []string) string {
	reqPixels, ok := resolutionPixels(requested)
	if !ok {
		return supported[0]
	}

	best := supported[0]
	bestDelta := int64(-1)
	for _, res := range supported {
		pixels, ok := resolutionPixels(res)
		if !ok {
			continue
		}
		delta := reqPixels - pixels
		if delta < 0 {
			delta = -delta
		}
		if bestDelta < 0 || delta < bestDelta {
			best = res
			bestDelta = delta
		}
	}
	return best
}

func resolutionPixels(res string) (int64, bool) {
	parts := strings.SplitN(strings.ToLower(res), "x", 2)
	if len(parts) != 2 {
		return 0, false
	}
	w, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return 0, false
	}
	h, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, false
	}
	return w * h, true
}
