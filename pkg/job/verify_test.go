package job

import (
	"testing"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

func verifySettings() *settings.CameraSettings {
	return &settings.CameraSettings{
		Stream: &settings.StreamSettings{
			Resolution:       "1920x1080",
			Codec:            "h265",
			FPS:              15,
			BitrateMbps:      4.0,
			KeyframeInterval: 30,
			BitrateMode:      settings.BitrateVariable,
		},
		Exposure: &settings.ExposureSettings{Mode: "auto", Shutter: "auto", Iris: "auto", GainLimitDB: 30, WDRLevel: "off"},
		LowLight: &settings.LowLightSettings{IRMode: "auto", IRIntensity: 50, DayNightMode: "auto", NoiseReduction: "medium"},
		Image:    &settings.ImageSettings{Sharpness: 50, Contrast: 50, Saturation: 50, Brightness: 50, WhiteBalance: "auto"},
	}
}

func TestVerify_ExactMatch(t *testing.T) {
	intended := verifySettings()
	actual := intended.Clone()

	res := Verify(intended, actual, adapter.SubGroups(), adapter.Tolerance{})
	if !res.Available {
		t.Error("Expected verification to be available")
	}
	if !res.Verified {
		t.Errorf("Expected an exact match to verify, mismatches: %v", res.Mismatches)
	}
}

func TestVerify_WithinTolerance(t *testing.T) {
	intended := verifySettings()
	actual := intended.Clone()
	actual.Stream.FPS = 14
	actual.Stream.BitrateMbps = 4.05

	tol := adapter.Tolerance{BitrateMbps: 0.1, FPS: 1}
	res := Verify(intended, actual, adapter.SubGroups(), tol)
	if !res.Verified {
		t.Errorf("Expected deviations within tolerance to verify, mismatches: %v", res.Mismatches)
	}
}

func TestVerify_MismatchOutsideTolerance(t *testing.T) {
	intended := verifySettings()
	actual := intended.Clone()
	actual.Stream.BitrateMbps = 4.5

	tol := adapter.Tolerance{BitrateMbps: 0.1, FPS: 1}
	res := Verify(intended, actual, adapter.SubGroups(), tol)
	if res.Verified {
		t.Fatal("Expected a bitrate deviation of 0.5 to fail verification")
	}
	if len(res.Mismatches) != 1 {
		t.Fatalf("Expected a single mismatch, got %v", res.Mismatches)
	}

	mm := res.Mismatches[0]
	if mm.Category != "stream" || mm.Name != "bitrate_mbps" {
		t.Errorf("Expected the stream bitrate mismatch, got %s.%s", mm.Category, mm.Name)
	}
}

func TestVerify_OnlyAppliedGroupsAreCompared(t *testing.T) {
	intended := verifySettings()
	actual := intended.Clone()
	actual.Exposure.GainLimitDB = 0
	actual.Image.Sharpness = 0

	// Only the stream sub-group was applied, so the exposure and image
	// deviations are irrelevant.
	res := Verify(intended, actual, []adapter.SubGroup{adapter.SubGroupStream}, adapter.Tolerance{})
	if !res.Verified {
		t.Errorf("Expected unapplied sub-groups to be excluded, mismatches: %v", res.Mismatches)
	}
}

func TestVerify_NilActualGroupIsExcluded(t *testing.T) {
	intended := verifySettings()
	actual := intended.Clone()
	actual.Stream = nil

	res := Verify(intended, actual, []adapter.SubGroup{adapter.SubGroupStream}, adapter.Tolerance{})
	if !res.Verified {
		t.Errorf("Expected a nil read-back sub-group to be excluded, mismatches: %v", res.Mismatches)
	}
}

func TestVerify_NilActualSettings(t *testing.T) {
	res := Verify(verifySettings(), nil, adapter.SubGroups(), adapter.Tolerance{})
	if !res.Available {
		t.Error("Expected verification to be available")
	}
	if !res.Verified {
		t.Errorf("Expected nothing to compare against, mismatches: %v", res.Mismatches)
	}
}
