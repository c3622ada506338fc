package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// fakeAdapter is a scriptable backend for exercising the job state machine.
type fakeAdapter struct {
	mu sync.Mutex

	caps       *settings.CameraCapabilities
	capsErr    error
	current    *settings.CameraSettings
	currentErr error

	// applyResults overrides the per-group outcome; groups not present are
	// reported applied. applyErr, when set, fails every apply call.
	applyResults map[adapter.SubGroup]adapter.SubGroupResult
	applyErr     error
	applyDelay   time.Duration
	applyCalls   []adapter.SubGroup

	verifyActual *settings.CameraSettings
	verifyErr    error
}

func (f *fakeAdapter) Kind() adapter.Kind { return adapter.KindDCP }

func (f *fakeAdapter) Discover(ctx context.Context, params adapter.ScanParams) (<-chan adapter.DiscoveredCamera, error) {
	ch := make(chan adapter.DiscoveredCamera)
	close(ch)
	return ch, nil
}

func (f *fakeAdapter) GetCapabilities(ctx context.Context, h adapter.Handle) (*settings.CameraCapabilities, error) {
	if f.capsErr != nil {
		return nil, f.capsErr
	}
	if f.caps != nil {
		return f.caps, nil
	}
	return &settings.CameraCapabilities{}, nil
}

func (f *fakeAdapter) GetCurrentSettings(ctx context.Context, h adapter.Handle) (*settings.CameraSettings, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.current, nil
}

func (f *fakeAdapter) ApplySettings(ctx context.Context, h adapter.Handle, s *settings.CameraSettings) (*adapter.ApplyOutcome, error) {
	group, ok := extractedGroup(s)
	if !ok {
		return nil, fmt.Errorf("apply call carried no sub-group")
	}

	f.mu.Lock()
	f.applyCalls = append(f.applyCalls, group)
	delay := f.applyDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.applyErr != nil {
		return nil, f.applyErr
	}

	res, ok := f.applyResults[group]
	if !ok {
		res = adapter.SubGroupResult{State: adapter.ApplyApplied}
	}
	return &adapter.ApplyOutcome{
		Results: map[adapter.SubGroup]adapter.SubGroupResult{group: res},
	}, nil
}

func (f *fakeAdapter) VerifySettings(ctx context.Context, h adapter.Handle, intended *settings.CameraSettings) (*settings.CameraSettings, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	if f.verifyActual != nil {
		return f.verifyActual, nil
	}
	return intended.Clone(), nil
}

func (f *fakeAdapter) Tolerance() adapter.Tolerance {
	return adapter.Tolerance{BitrateMbps: 0.001}
}

func (f *fakeAdapter) calls() []adapter.SubGroup {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]adapter.SubGroup, len(f.applyCalls))
	copy(out, f.applyCalls)
	return out
}

func extractedGroup(s *settings.CameraSettings) (adapter.SubGroup, bool) {
	switch {
	case s == nil:
		return "", false
	case s.Stream != nil:
		return adapter.SubGroupStream, true
	case s.Exposure != nil:
		return adapter.SubGroupExposure, true
	case s.LowLight != nil:
		return adapter.SubGroupLowLight, true
	case s.Image != nil:
		return adapter.SubGroupImage, true
	}
	return "", false
}

func newTestEngine(ad adapter.Adapter) *Engine {
	return NewEngine(EngineOptions{
		Adapters:    map[adapter.Kind]adapter.Adapter{adapter.KindDCP: ad},
		StepTimeout: 2 * time.Second,
	})
}

func intendedSettings() *settings.CameraSettings {
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

// waitForTerminal polls the engine until the job reaches a terminal state.
func waitForTerminal(t *testing.T, e *Engine, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := e.GetJob(id)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if j.State.Terminal() {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return nil
}

func stepState(t *testing.T, j *Job, name StepName) Step {
	t.Helper()
	for _, st := range j.Steps {
		if st.Name == name {
			return st
		}
	}
	t.Fatalf("job %s has no step %s", j.ID, name)
	return Step{}
}

func TestEngine_CompletesSuccessfully(t *testing.T) {
	ad := &fakeAdapter{current: intendedSettings()}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{Address: "10.0.0.5"}, intendedSettings(), adapter.KindDCP, true)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.State != StateCompleted {
		t.Fatalf("Expected state completed, got %s (error: %s)", j.State, j.Error)
	}

	for _, name := range []StepName{StepConnect, StepSnapshot, StepApplyStream, StepApplyExposure, StepApplyLowLight, StepApplyImage, StepVerify} {
		if st := stepState(t, j, name); st.State != StepCompleted {
			t.Errorf("Expected step %s completed, got %s (%s)", name, st.State, st.Error)
		}
	}

	if j.Snapshot == nil {
		t.Error("Expected a pre-apply snapshot")
	}
	if j.Verification == nil || !j.Verification.Available || !j.Verification.Verified {
		t.Errorf("Expected a clean verification, got %+v", j.Verification)
	}
	if got := len(ad.calls()); got != 4 {
		t.Errorf("Expected one apply call per sub-group, got %d", got)
	}
}

func TestEngine_ConnectFailureAbortsBeforeAnyApply(t *testing.T) {
	ad := &fakeAdapter{capsErr: &adapter.ConnectError{Address: "10.0.0.5", Err: errors.New("connection refused")}}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, true)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.State != StateFailed {
		t.Fatalf("Expected state failed, got %s", j.State)
	}
	if !strings.HasPrefix(j.Error, "connect failed") {
		t.Errorf("Expected a connect failure message, got %q", j.Error)
	}

	if got := len(ad.calls()); got != 0 {
		t.Errorf("Expected zero sub-group attempts after a connect failure, got %d", got)
	}
	for _, name := range []StepName{StepApplyStream, StepApplyExposure, StepApplyLowLight, StepApplyImage, StepVerify} {
		if st := stepState(t, j, name); st.State != StepSkipped {
			t.Errorf("Expected step %s skipped, got %s", name, st.State)
		}
	}
}

func TestEngine_RejectsConcurrentJobForSameCamera(t *testing.T) {
	ad := &fakeAdapter{applyDelay: 100 * time.Millisecond}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	if _, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false); !errors.Is(err, ErrJobBusy) {
		t.Errorf("Expected ErrJobBusy for the same camera, got %v", err)
	}

	// A different camera is unaffected.
	other, err := e.StartJob(context.Background(), "cam-02", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false)
	if err != nil {
		t.Fatalf("StartJob for a different camera failed: %v", err)
	}

	waitForTerminal(t, e, id)
	waitForTerminal(t, e, other)

	// Once terminal, the camera slot is free again.
	rerun, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false)
	if err != nil {
		t.Fatalf("Expected the camera to be free after a terminal job: %v", err)
	}
	waitForTerminal(t, e, rerun)
}

func TestEngine_UnsupportedSubGroupsGivePartial(t *testing.T) {
	ad := &fakeAdapter{
		applyResults: map[adapter.SubGroup]adapter.SubGroupResult{
			adapter.SubGroupExposure: {State: adapter.ApplySkipped, Error: "exposure control not exposed"},
			adapter.SubGroupLowLight: {State: adapter.ApplySkipped, Error: "no IR hardware"},
			adapter.SubGroupImage:    {State: adapter.ApplySkipped, Error: "image tuning not exposed"},
		},
	}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, true)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.State != StatePartial {
		t.Fatalf("Expected state partial, got %s", j.State)
	}

	if st := stepState(t, j, StepApplyStream); st.State != StepCompleted {
		t.Errorf("Expected the stream apply to complete, got %s", st.State)
	}
	for _, name := range []StepName{StepApplyExposure, StepApplyLowLight, StepApplyImage} {
		if st := stepState(t, j, name); st.State != StepSkipped {
			t.Errorf("Expected step %s skipped, got %s", name, st.State)
		}
	}

	// Verification only covers the applied sub-group, so it comes back
	// clean.
	if j.Verification == nil || !j.Verification.Verified {
		t.Errorf("Expected a clean verification over the applied sub-group, got %+v", j.Verification)
	}
}

func TestEngine_SubGroupFailureDoesNotBlockOthers(t *testing.T) {
	ad := &fakeAdapter{
		applyResults: map[adapter.SubGroup]adapter.SubGroupResult{
			adapter.SubGroupExposure: {State: adapter.ApplyFailed, Error: "device rejected the document"},
		},
	}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.State != StatePartial {
		t.Fatalf("Expected state partial, got %s", j.State)
	}
	if got := len(ad.calls()); got != 4 {
		t.Errorf("Expected all four sub-groups attempted, got %d", got)
	}
	if st := stepState(t, j, StepApplyExposure); st.State != StepFailed {
		t.Errorf("Expected the exposure apply to fail, got %s", st.State)
	}
	if st := stepState(t, j, StepApplyImage); st.State != StepCompleted {
		t.Errorf("Expected the image apply to complete, got %s", st.State)
	}
}

func TestEngine_AllAppliesFailingGivesFailed(t *testing.T) {
	ad := &fakeAdapter{applyErr: errors.New("device rebooting")}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.State != StateFailed {
		t.Fatalf("Expected state failed, got %s", j.State)
	}
	if j.Error != "no settings sub-group was applied" {
		t.Errorf("Unexpected job error: %q", j.Error)
	}
}

func TestEngine_VerificationMismatchGivesPartial(t *testing.T) {
	actual := intendedSettings()
	actual.Stream.BitrateMbps = 4.5

	ad := &fakeAdapter{verifyActual: actual}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, true)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.State != StatePartial {
		t.Fatalf("Expected state partial on a verification mismatch, got %s", j.State)
	}
	if j.Verification == nil || j.Verification.Verified {
		t.Fatalf("Expected a failed verification, got %+v", j.Verification)
	}
	if len(j.Verification.Mismatches) != 1 {
		t.Errorf("Expected a single mismatch, got %v", j.Verification.Mismatches)
	}
}

func TestEngine_VerificationReadFailureIsUnavailable(t *testing.T) {
	ad := &fakeAdapter{verifyErr: errors.New("read-back timed out")}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, true)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.Verification == nil || j.Verification.Available {
		t.Errorf("Expected verification to be unavailable, got %+v", j.Verification)
	}
	if st := stepState(t, j, StepVerify); st.State != StepFailed {
		t.Errorf("Expected the verify step to fail, got %s", st.State)
	}

	// A failed read-back never fails the job itself.
	if j.State != StateCompleted {
		t.Errorf("Expected state completed despite the failed read-back, got %s", j.State)
	}
}

func TestEngine_VerifyNotRequested(t *testing.T) {
	ad := &fakeAdapter{}
	e := newTestEngine(ad)

	id, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false)
	if err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j := waitForTerminal(t, e, id)
	if j.State != StateCompleted {
		t.Fatalf("Expected state completed, got %s", j.State)
	}
	if st := stepState(t, j, StepVerify); st.State != StepSkipped {
		t.Errorf("Expected the verify step skipped, got %s", st.State)
	}
	if j.Verification != nil {
		t.Errorf("Expected no verification result, got %+v", j.Verification)
	}
}

func TestEngine_StartJobValidation(t *testing.T) {
	e := newTestEngine(&fakeAdapter{})

	var inputErr *settings.InputError

	if _, err := e.StartJob(context.Background(), "", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false); !errors.As(err, &inputErr) {
		t.Errorf("Expected an InputError for an empty camera id, got %v", err)
	}

	incomplete := intendedSettings()
	incomplete.Image = nil
	if _, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, incomplete, adapter.KindDCP, false); !errors.As(err, &inputErr) {
		t.Errorf("Expected an InputError for incomplete settings, got %v", err)
	}

	if _, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.Kind("nope"), false); !errors.As(err, &inputErr) {
		t.Errorf("Expected an InputError for an unknown backend, got %v", err)
	}
}

func TestEngine_GetJobUnknownId(t *testing.T) {
	e := newTestEngine(&fakeAdapter{})
	if _, err := e.GetJob("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

// recordingNotifier captures terminal notifications.
type recordingNotifier struct {
	done chan *Job
}

func (n *recordingNotifier) NotifyJobDone(j *Job) { n.done <- j }

func TestEngine_NotifiesOnTerminalState(t *testing.T) {
	notifier := &recordingNotifier{done: make(chan *Job, 1)}
	e := NewEngine(EngineOptions{
		Adapters:    map[adapter.Kind]adapter.Adapter{adapter.KindDCP: &fakeAdapter{}},
		StepTimeout: 2 * time.Second,
		Notifier:    notifier,
	})

	if _, err := e.StartJob(context.Background(), "cam-01", adapter.Handle{}, intendedSettings(), adapter.KindDCP, false); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	select {
	case j := <-notifier.done:
		if !j.State.Terminal() {
			t.Errorf("Expected a terminal job in the notification, got %s", j.State)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a terminal notification")
	}
}
