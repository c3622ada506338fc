package settings

import (
	"fmt"
	"time"
)

// OptimizationContext carries the operator-supplied constraints for a
// single optimization request.
type OptimizationContext struct {
	// Upstream bandwidth budget for this camera's stream. Zero means
	// unconstrained.
	BandwidthLimitMbps float64 `json:"bandwidth_limit_mbps"`

	// Desired recording retention in days. Zero means unconstrained.
	RetentionDays int `json:"retention_days"`

	// Optional still frame of the scene, forwarded to vision-capable
	// providers.
	SceneImage []byte `json:"scene_image,omitempty"`

	// Free-text operator notes.
	Notes string `json:"notes"`
}

// Validate checks the optimization context for range sanity. Violations
// are input errors, never provider errors.
func (oc *OptimizationContext) Validate() error {
	if oc.BandwidthLimitMbps < 0 {
		return &InputError{Field: "bandwidth_limit_mbps", Reason: fmt.Sprintf("must be >= 0, got %.2f", oc.BandwidthLimitMbps)}
	}
	if oc.BandwidthLimitMbps > 1000 {
		return &InputError{Field: "bandwidth_limit_mbps", Reason: fmt.Sprintf("implausible limit %.2f Mbps", oc.BandwidthLimitMbps)}
	}
	if oc.RetentionDays < 0 {
		return &InputError{Field: "retention_days", Reason: fmt.Sprintf("must be >= 0, got %d", oc.RetentionDays)}
	}
	if oc.RetentionDays > 3650 {
		return &InputError{Field: "retention_days", Reason: fmt.Sprintf("implausible retention %d days", oc.RetentionDays)}
	}
	return nil
}

// OptimizationResult is the outcome of one optimization request. It is
// created once by the orchestrator and never mutated afterwards; consumers
// that need to adjust the settings must work on a Clone.
type OptimizationResult struct {
	Settings    *CameraSettings `json:"settings"`
	Confidence  float64         `json:"confidence"`
	Provider    string          `json:"provider"`
	Warnings    []string        `json:"warnings"`
	Explanation string          `json:"explanation"`
	Duration    time.Duration   `json:"duration"`
}

// SettingMismatch records a single field that read back differently from
// what was applied. Produced only by the verification engine.
type SettingMismatch struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// VerificationResult summarizes the post-apply read-back comparison.
// Available is false when the re-query itself failed; in that case the
// mismatch list carries no meaning.
type VerificationResult struct {
	Available  bool              `json:"available"`
	Verified   bool              `json:"verified"`
	Mismatches []SettingMismatch `json:"mismatches"`
}

// InputError indicates a malformed or out-of-range request. It is never
// retried and surfaces to the caller immediately.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input field '%s': %s", e.Field, e.Reason)
}
