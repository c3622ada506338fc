package dcp

import (
	"testing"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

func TestBitrateUnitConversionRoundTrips(t *testing.T) {
	// Every canonical value with millibit precision must survive the trip
	// through the device's kbps unit.
	cases := []float64{0.064, 0.5, 1.0, 2.048, 4.0, 6.5, 8.192, 16.0}

	for _, mbps := range cases {
		kbps := mbpsToKbps(mbps)
		back := kbpsToMbps(kbps)
		if back != mbps {
			t.Errorf("Expected %.3f Mbps to round-trip, got %.3f (via %d kbps)", mbps, back, kbps)
		}
	}
}

func TestStreamTranslationRoundTrips(t *testing.T) {
	orig := &settings.StreamSettings{
		Resolution:       "1920x1080",
		Codec:            "h265",
		FPS:              15,
		BitrateMbps:      4.096,
		KeyframeInterval: 30,
		BitrateMode:      settings.BitrateVariable,
	}

	back := fromWireStream(toWireStream(orig))
	if *back != *orig {
		t.Errorf("Expected stream settings to round-trip, got %+v", back)
	}
}

func TestStreamTranslationWireUnits(t *testing.T) {
	w := toWireStream(&settings.StreamSettings{
		BitrateMbps: 4.0,
		BitrateMode: settings.BitrateConstant,
	})

	if w.BitrateKbps != 4000 {
		t.Errorf("Expected 4000 kbps on the wire, got %d", w.BitrateKbps)
	}
	if w.RateControl != "CBR" {
		t.Errorf("Expected upper-case rate control 'CBR', got %s", w.RateControl)
	}
}

func TestExposureTranslationSwitchFields(t *testing.T) {
	orig := &settings.ExposureSettings{
		Mode:        "shutter-priority",
		Shutter:     "1/1000",
		Iris:        "auto",
		GainLimitDB: 18,
		WDRLevel:    "off",
		BLC:         true,
		HLC:         false,
	}

	w := toWireExposure(orig)
	if w.BLC != "on" || w.HLC != "off" {
		t.Errorf("Expected blc 'on' and hlc 'off' on the wire, got %s/%s", w.BLC, w.HLC)
	}

	back := fromWireExposure(w)
	if *back != *orig {
		t.Errorf("Expected exposure settings to round-trip, got %+v", back)
	}
}

func TestLowLightTranslationRoundTrips(t *testing.T) {
	orig := &settings.LowLightSettings{
		IRMode:         "on",
		IRIntensity:    80,
		DayNightMode:   "night",
		NoiseReduction: "high",
		SlowShutter:    false,
	}

	back := fromWireLowLight(toWireLowLight(orig))
	if *back != *orig {
		t.Errorf("Expected low light settings to round-trip, got %+v", back)
	}
}

func TestWireGroupPayloadFollowsSubGroupPresence(t *testing.T) {
	s := &settings.CameraSettings{
		Stream: &settings.StreamSettings{Resolution: "1920x1080"},
	}

	if _, ok := wireGroupPayload(s, adapter.SubGroupStream); !ok {
		t.Error("Expected a payload for a present sub-group")
	}
	if _, ok := wireGroupPayload(s, adapter.SubGroupExposure); ok {
		t.Error("Expected no payload for an absent sub-group")
	}
	if _, ok := wireGroupPayload(nil, adapter.SubGroupStream); ok {
		t.Error("Expected no payload for nil settings")
	}
}

func TestNormalizeCapabilities(t *testing.T) {
	w := &wireCapabilities{
		Resolutions:    []string{"1920x1080", "1280x720"},
		Codecs:         []string{"h264", "h265"},
		FrameRate:      &wireFrameRateRange{Min: 1, Max: 30},
		MaxBitrateKbps: 8000,
		Gain:           &wireGainRange{Min: 0, Max: 36},
		Features:       wireFeatures{WDR: true, IR: true, LPR: false},
	}

	caps := normalizeCapabilities(w)
	if caps.MaxBitrateMbps != 8.0 {
		t.Errorf("Expected max bitrate 8.0 Mbps, got %.1f", caps.MaxBitrateMbps)
	}
	if caps.MinFPS != 1 || caps.MaxFPS != 30 {
		t.Errorf("Expected fps range 1..30, got %d..%d", caps.MinFPS, caps.MaxFPS)
	}
	if caps.Gain == nil || caps.Gain.MaxDB != 36 {
		t.Errorf("Expected gain range up to 36 dB, got %+v", caps.Gain)
	}
	if !caps.HasWDR || !caps.HasIR || caps.LPRCapable {
		t.Error("Expected feature flags to carry over")
	}
}

func TestNormalizeCapabilitiesOmittedFieldsStayUnconstrained(t *testing.T) {
	caps := normalizeCapabilities(&wireCapabilities{})

	if caps.Gain != nil {
		t.Error("Expected omitted gain range to stay nil")
	}
	if caps.MaxFPS != 0 || caps.MaxBitrateMbps != 0 {
		t.Error("Expected omitted numeric bounds to stay at zero")
	}
	if !caps.SupportsResolution("3840x2160") {
		t.Error("Expected empty resolution set to accept any resolution")
	}
}
