package job

import (
	"fmt"
	"math"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// Verify diffs the intended settings against a post-apply read-back,
// sub-group by sub-group. Only sub-groups that were actually applied are
// compared; a sub-group the backend left nil on read is excluded rather
// than counted as a mismatch, since the backend simply cannot show it.
// Numeric comparisons honor the backend's declared tolerance.
func Verify(intended *settings.CameraSettings, actual *settings.CameraSettings, applied []adapter.SubGroup, tol adapter.Tolerance) settings.VerificationResult {
	result := settings.VerificationResult{
		Available:  true,
		Mismatches: []settings.SettingMismatch{},
	}
	if actual == nil {
		actual = &settings.CameraSettings{}
	}

	for _, group := range applied {
		switch group {
		case adapter.SubGroupStream:
			if intended.Stream != nil && actual.Stream != nil {
				result.Mismatches = append(result.Mismatches, diffStream(intended.Stream, actual.Stream, tol)...)
			}
		case adapter.SubGroupExposure:
			if intended.Exposure != nil && actual.Exposure != nil {
				result.Mismatches = append(result.Mismatches, diffExposure(intended.Exposure, actual.Exposure)...)
			}
		case adapter.SubGroupLowLight:
			if intended.LowLight != nil && actual.LowLight != nil {
				result.Mismatches = append(result.Mismatches, diffLowLight(intended.LowLight, actual.LowLight)...)
			}
		case adapter.SubGroupImage:
			if intended.Image != nil && actual.Image != nil {
				result.Mismatches = append(result.Mismatches, diffImage(intended.Image, actual.Image)...)
			}
		}
	}

	result.Verified = len(result.Mismatches) == 0
	return result
}

func diffStream(want *settings.StreamSettings, got *settings.StreamSettings, tol adapter.Tolerance) []settings.SettingMismatch {
	m := []settings.SettingMismatch{}
	m = appendString(m, "stream", "resolution", want.Resolution, got.Resolution)
	m = appendString(m, "stream", "codec", want.Codec, got.Codec)
	m = appendIntTol(m, "stream", "fps", want.FPS, got.FPS, tol.FPS)
	m = appendFloatTol(m, "stream", "bitrate_mbps", want.BitrateMbps, got.BitrateMbps, tol.BitrateMbps)
	m = appendInt(m, "stream", "keyframe_interval", want.KeyframeInterval, got.KeyframeInterval)
	m = appendString(m, "stream", "bitrate_mode", string(want.BitrateMode), string(got.BitrateMode))
	return m
}

func diffExposure(want *settings.ExposureSettings, got *settings.ExposureSettings) []settings.SettingMismatch {
	m := []settings.SettingMismatch{}
	m = appendString(m, "exposure", "mode", want.Mode, got.Mode)
	m = appendString(m, "exposure", "shutter", want.Shutter, got.Shutter)
	m = appendString(m, "exposure", "iris", want.Iris, got.Iris)
	m = appendInt(m, "exposure", "gain_limit_db", want.GainLimitDB, got.GainLimitDB)
	m = appendString(m, "exposure", "wdr_level", want.WDRLevel, got.WDRLevel)
	m = appendBool(m, "exposure", "blc", want.BLC, got.BLC)
	m = appendBool(m, "exposure", "hlc", want.HLC, got.HLC)
	return m
}

func diffLowLight(want *settings.LowLightSettings, got *settings.LowLightSettings) []settings.SettingMismatch {
	m := []settings.SettingMismatch{}
	m = appendString(m, "low_light", "ir_mode", want.IRMode, got.IRMode)
	m = appendInt(m, "low_light", "ir_intensity", want.IRIntensity, got.IRIntensity)
	m = appendString(m, "low_light", "day_night_mode", want.DayNightMode, got.DayNightMode)
	m = appendString(m, "low_light", "noise_reduction", want.NoiseReduction, got.NoiseReduction)
	m = appendBool(m, "low_light", "slow_shutter", want.SlowShutter, got.SlowShutter)
	return m
}

func diffImage(want *settings.ImageSettings, got *settings.ImageSettings) []settings.SettingMismatch {
	m := []settings.SettingMismatch{}
	m = appendInt(m, "image", "sharpness", want.Sharpness, got.Sharpness)
	m = appendInt(m, "image", "contrast", want.Contrast, got.Contrast)
	m = appendInt(m, "image", "saturation", want.Saturation, got.Saturation)
	m = appendInt(m, "image", "brightness", want.Brightness, got.Brightness)
	m = appendString(m, "image", "white_balance", want.WhiteBalance, got.WhiteBalance)
	return m
}

func appendString(m []settings.SettingMismatch, category string, name string, want string, got string) []settings.SettingMismatch {
	if want == got {
		return m
	}
	return append(m, settings.SettingMismatch{Category: category, Name: name, Expected: want, Actual: got})
}

func appendBool(m []settings.SettingMismatch, category string, name string, want bool, got bool) []settings.SettingMismatch {
	if want == got {
		return m
	}
	return append(m, settings.SettingMismatch{Category: category, Name: name, Expected: fmt.Sprintf("%t", want), Actual: fmt.Sprintf("%t", got)})
}

func appendInt(m []settings.SettingMismatch, category string, name string, want int, got int) []settings.SettingMismatch {
	return appendIntTol(m, category, name, want, got, 0)
}

func appendIntTol(m []settings.SettingMismatch, category string, name string, want int, got int, tol int) []settings.SettingMismatch {
	delta := want - got
	if delta < 0 {
		delta = -delta
	}
	if delta <= tol {
		return m
	}
	return append(m, settings.SettingMismatch{Category: category, Name: name, Expected: fmt.Sprintf("%d", want), Actual: fmt.Sprintf("%d", got)})
}

func appendFloatTol(m []settings.SettingMismatch, category string, name string, want float64, got float64, tol float64) []settings.SettingMismatch {
	if math.Abs(want-got) <= tol {
		return m
	}
	return append(m, settings.SettingMismatch{Category: category, Name: name, Expected: fmt.Sprintf("%.3f", want), Actual: fmt.Sprintf("%.3f", got)})
}
