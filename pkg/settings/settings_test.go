package settings

import (
	"errors"
	"testing"
)

func fullSettings() *CameraSettings {
	return &CameraSettings{
		Stream: &StreamSettings{
			Resolution:       "1920x1080",
			Codec:            "h265",
			FPS:              15,
			BitrateMbps:      4.0,
			KeyframeInterval: 30,
			BitrateMode:      BitrateVariable,
		},
		Exposure: &ExposureSettings{
			Mode:        "auto",
			Shutter:     "auto",
			Iris:        "auto",
			GainLimitDB: 30,
			WDRLevel:    "off",
		},
		LowLight: &LowLightSettings{
			IRMode:         "auto",
			IRIntensity:    50,
			DayNightMode:   "auto",
			NoiseReduction: "medium",
			SlowShutter:    true,
		},
		Image: &ImageSettings{
			Sharpness:    50,
			Contrast:     50,
			Saturation:   50,
			Brightness:   50,
			WhiteBalance: "auto",
		},
	}
}

func TestCameraSettings_CloneIsDeep(t *testing.T) {
	orig := fullSettings()
	cp := orig.Clone()

	cp.Stream.FPS = 30
	cp.Exposure.GainLimitDB = 12
	cp.LowLight.IRMode = "off"
	cp.Image.Sharpness = 99

	if orig.Stream.FPS != 15 {
		t.Errorf("Expected original FPS 15 after mutating the clone, got %d", orig.Stream.FPS)
	}
	if orig.Exposure.GainLimitDB != 30 {
		t.Errorf("Expected original gain limit 30, got %d", orig.Exposure.GainLimitDB)
	}
	if orig.LowLight.IRMode != "auto" {
		t.Errorf("Expected original IR mode 'auto', got %s", orig.LowLight.IRMode)
	}
	if orig.Image.Sharpness != 50 {
		t.Errorf("Expected original sharpness 50, got %d", orig.Image.Sharpness)
	}
}

func TestCameraSettings_CloneNil(t *testing.T) {
	var s *CameraSettings
	if s.Clone() != nil {
		t.Error("Expected nil clone of nil settings")
	}
}

func TestCameraSettings_Complete(t *testing.T) {
	s := fullSettings()
	if !s.Complete() {
		t.Error("Expected full settings to be complete")
	}

	s.LowLight = nil
	if s.Complete() {
		t.Error("Expected settings with a missing sub-group to be incomplete")
	}

	var nilSettings *CameraSettings
	if nilSettings.Complete() {
		t.Error("Expected nil settings to be incomplete")
	}
}

func TestCameraCapabilities_UnknownFieldsAreUnconstrained(t *testing.T) {
	caps := &CameraCapabilities{}

	// An empty supported set means the capability is unknown, which must
	// never constrain a recommendation.
	if !caps.SupportsResolution("3840x2160") {
		t.Error("Expected empty resolution set to accept any resolution")
	}
	if !caps.SupportsCodec("h266") {
		t.Error("Expected empty codec set to accept any codec")
	}
}

func TestCameraCapabilities_MembershipWhenKnown(t *testing.T) {
	caps := &CameraCapabilities{
		Resolutions: []string{"1920x1080", "1280x720"},
		Codecs:      []string{"h264", "h265"},
	}

	if !caps.SupportsResolution("1920x1080") {
		t.Error("Expected listed resolution to be supported")
	}
	if caps.SupportsResolution("3840x2160") {
		t.Error("Expected unlisted resolution to be unsupported")
	}
	if !caps.SupportsCodec("h265") {
		t.Error("Expected listed codec to be supported")
	}
	if caps.SupportsCodec("mjpeg") {
		t.Error("Expected unlisted codec to be unsupported")
	}
}

func TestOptimizationContext_Validate(t *testing.T) {
	cases := []struct {
		name    string
		ctx     OptimizationContext
		wantErr bool
	}{
		{"zero values are unconstrained", OptimizationContext{}, false},
		{"sane limits", OptimizationContext{BandwidthLimitMbps: 8, RetentionDays: 30}, false},
		{"negative bandwidth", OptimizationContext{BandwidthLimitMbps: -1}, true},
		{"implausible bandwidth", OptimizationContext{BandwidthLimitMbps: 2000}, true},
		{"negative retention", OptimizationContext{RetentionDays: -1}, true},
		{"implausible retention", OptimizationContext{RetentionDays: 5000}, true},
	}

	for _, tc := range cases {
		err := tc.ctx.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected a validation error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr {
			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Errorf("%s: expected an InputError, got %T", tc.name, err)
			}
		}
	}
}
