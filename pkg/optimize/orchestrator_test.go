package optimize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// stubProvider replays a scripted sequence of results and errors.
type stubProvider struct {
	name    string
	results []*settings.OptimizationResult
	errs    []error
	calls   int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Capabilities() ProviderCapabilities {
	return ProviderCapabilities{}
}

func (p *stubProvider) Recommend(ctx context.Context, req *Request) (*settings.OptimizationResult, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.results) {
		return p.results[i], nil
	}
	return nil, fmt.Errorf("stub exhausted after %d calls", i)
}

func stubSettings() *settings.CameraSettings {
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

func stubResult(provider string, confidence float64) *settings.OptimizationResult {
	return &settings.OptimizationResult{
		Settings:   stubSettings(),
		Confidence: confidence,
		Provider:   provider,
		Warnings:   []string{},
	}
}

func optimizeRequest() *Request {
	return &Request{
		Camera: settings.CameraContext{
			ID:      "cam-01",
			Scene:   settings.SceneEntrance,
			Purpose: settings.PurposeOverview,
		},
	}
}

func TestOptimize_PrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: "primary", results: []*settings.OptimizationResult{stubResult("primary", 0.9)}}
	o := NewOrchestrator(primary, NewFallbackProvider())

	res, err := o.Optimize(context.Background(), optimizeRequest())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if res.Provider != "primary" {
		t.Errorf("Expected provider 'primary', got %s", res.Provider)
	}
	if res.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %.2f", res.Confidence)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings with unconstrained capabilities, got %v", res.Warnings)
	}
	if primary.calls != 1 {
		t.Errorf("Expected a single primary call, got %d", primary.calls)
	}
}

func TestOptimize_TransientFailureRetriesOnce(t *testing.T) {
	primary := &stubProvider{
		name:    "primary",
		errs:    []error{&TransientError{Reason: "rate-limited"}, nil},
		results: []*settings.OptimizationResult{nil, stubResult("primary", 0.85)},
	}
	o := NewOrchestrator(primary, NewFallbackProvider())

	res, err := o.Optimize(context.Background(), optimizeRequest())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if primary.calls != 2 {
		t.Errorf("Expected exactly one retry (2 calls), got %d", primary.calls)
	}
	if res.Provider != "primary" {
		t.Errorf("Expected the retried primary to answer, got %s", res.Provider)
	}
}

func TestOptimize_PermanentFailureFallsBackWithoutRetry(t *testing.T) {
	primary := &stubProvider{name: "primary", errs: []error{errors.New("schema rejected")}}
	o := NewOrchestrator(primary, NewFallbackProvider())

	res, err := o.Optimize(context.Background(), optimizeRequest())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if primary.calls != 1 {
		t.Errorf("Expected no retry on a permanent failure, got %d calls", primary.calls)
	}
	if res.Provider != FallbackProviderName {
		t.Errorf("Expected the fallback to answer, got %s", res.Provider)
	}
	if res.Confidence >= FallbackConfidenceCeiling {
		t.Errorf("Expected fallback confidence below %.2f, got %.2f", FallbackConfidenceCeiling, res.Confidence)
	}
}

func TestOptimize_InvalidPrimaryResultFallsBack(t *testing.T) {
	// Missing sub-groups fail result validation and count as a provider
	// failure.
	incomplete := &settings.OptimizationResult{
		Settings:   &settings.CameraSettings{Stream: stubSettings().Stream},
		Confidence: 0.9,
		Provider:   "primary",
	}
	primary := &stubProvider{name: "primary", results: []*settings.OptimizationResult{incomplete}}
	o := NewOrchestrator(primary, NewFallbackProvider())

	res, err := o.Optimize(context.Background(), optimizeRequest())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Provider != FallbackProviderName {
		t.Errorf("Expected the fallback to answer after an invalid primary result, got %s", res.Provider)
	}
}

func TestOptimize_BothProvidersFailing(t *testing.T) {
	primary := &stubProvider{name: "primary", errs: []error{errors.New("down")}}
	fallback := &stubProvider{name: "rules", errs: []error{errors.New("also down")}}
	o := NewOrchestrator(primary, fallback)

	if _, err := o.Optimize(context.Background(), optimizeRequest()); err == nil {
		t.Fatal("Expected an error when both providers fail")
	}
}

func TestOptimize_FallbackConfidenceIsCapped(t *testing.T) {
	primary := &stubProvider{name: "rules", errs: []error{errors.New("down")}}
	fallback := &stubProvider{name: "rules", results: []*settings.OptimizationResult{stubResult("rules", 0.95)}}
	o := NewOrchestrator(primary, fallback)

	res, err := o.Optimize(context.Background(), optimizeRequest())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Confidence >= FallbackConfidenceCeiling {
		t.Errorf("Expected fallback confidence capped below %.2f, got %.2f", FallbackConfidenceCeiling, res.Confidence)
	}
}

func TestOptimize_ClampsBitrateAgainstCapabilities(t *testing.T) {
	over := stubResult("primary", 0.9)
	over.Settings.Stream.BitrateMbps = 9.0
	primary := &stubProvider{name: "primary", results: []*settings.OptimizationResult{over}}
	o := NewOrchestrator(primary, NewFallbackProvider())

	req := optimizeRequest()
	req.Capabilities = settings.CameraCapabilities{MaxBitrateMbps: 6.0}

	res, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	if res.Settings.Stream.BitrateMbps != 6.0 {
		t.Errorf("Expected bitrate clamped to 6.0, got %.1f", res.Settings.Stream.BitrateMbps)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("Expected exactly one warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "bitrate_mbps") {
		t.Errorf("Expected a bitrate warning, got %q", res.Warnings[0])
	}
}

func TestOptimize_ClampsAgainstBandwidthLimit(t *testing.T) {
	over := stubResult("primary", 0.9)
	over.Settings.Stream.BitrateMbps = 4.0
	primary := &stubProvider{name: "primary", results: []*settings.OptimizationResult{over}}
	o := NewOrchestrator(primary, NewFallbackProvider())

	req := optimizeRequest()
	req.Optimization.BandwidthLimitMbps = 2.0

	res, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Settings.Stream.BitrateMbps != 2.0 {
		t.Errorf("Expected bitrate clamped to the bandwidth limit 2.0, got %.1f", res.Settings.Stream.BitrateMbps)
	}
}

func TestOptimize_SubstitutesNearestResolution(t *testing.T) {
	rec := stubResult("primary", 0.9)
	rec.Settings.Stream.Resolution = "2560x1440"
	primary := &stubProvider{name: "primary", results: []*settings.OptimizationResult{rec}}
	o := NewOrchestrator(primary, NewFallbackProvider())

	req := optimizeRequest()
	req.Capabilities = settings.CameraCapabilities{
		Resolutions: []string{"1280x720", "1920x1080"},
	}

	res, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if res.Settings.Stream.Resolution != "1920x1080" {
		t.Errorf("Expected nearest supported resolution 1920x1080, got %s", res.Settings.Stream.Resolution)
	}
}

func TestOptimize_RejectsInvalidRequests(t *testing.T) {
	o := NewOrchestrator(NewFallbackProvider(), NewFallbackProvider())

	cases := []struct {
		name string
		req  *Request
	}{
		{"missing camera id", &Request{Camera: settings.CameraContext{Scene: settings.SceneLobby, Purpose: settings.PurposeOverview}}},
		{"missing scene", &Request{Camera: settings.CameraContext{ID: "cam-01", Purpose: settings.PurposeOverview}}},
		{"missing purpose", &Request{Camera: settings.CameraContext{ID: "cam-01", Scene: settings.SceneLobby}}},
		{"negative bandwidth", &Request{
			Camera:       settings.CameraContext{ID: "cam-01", Scene: settings.SceneLobby, Purpose: settings.PurposeOverview},
			Optimization: settings.OptimizationContext{BandwidthLimitMbps: -1},
		}},
	}

	for _, tc := range cases {
		_, err := o.Optimize(context.Background(), tc.req)
		var inputErr *settings.InputError
		if !errors.As(err, &inputErr) {
			t.Errorf("%s: expected an InputError, got %v", tc.name, err)
		}
	}
}
