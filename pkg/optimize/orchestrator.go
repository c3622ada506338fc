package optimize

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// FallbackConfidenceCeiling caps confidence reported by the fallback
// provider. Primary-provider results routinely score above it, so callers
// can spot a degraded recommendation without inspecting the provider field.
const FallbackConfidenceCeiling = 0.70

// Orchestrator runs the provider chain: primary, one retry on transient
// failure, then the deterministic fallback. Provider failures never reach
// the caller unless both providers fail.
type Orchestrator struct {
	primary  Provider
	fallback Provider
}

// NewOrchestrator wires the provider chain. The fallback must be a pure
// function of its inputs; it is the availability floor.
func NewOrchestrator(primary Provider, fallback Provider) *Orchestrator {
	return &Orchestrator{primary: primary, fallback: fallback}
}

// Optimize validates the request, obtains a recommendation through the
// provider chain, and clamps it against the camera's capabilities. Input
// errors surface immediately; everything else degrades to a valid,
// capability-safe result.
func (o *Orchestrator) Optimize(ctx context.Context, req *Request) (*settings.OptimizationResult, error) {
	started := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	result, err := o.recommendWithRetry(ctx, o.primary, req)
	if err != nil {
		log.Printf("primary provider '%s' failed, degrading to fallback: %v\n", o.primary.Name(), err)

		result, err = o.fallback.Recommend(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain a recommendation from both providers: %v", err)
		}
		if err := validateResult(result); err != nil {
			return nil, fmt.Errorf("failed to obtain a recommendation from both providers: fallback produced invalid result: %v", err)
		}
	}

	// Clamp against capabilities regardless of which provider answered.
	warnings := clampToCapabilities(result.Settings, &req.Capabilities, &req.Optimization)
	result.Warnings = append(result.Warnings, warnings...)

	if result.Provider == o.fallback.Name() && result.Confidence >= FallbackConfidenceCeiling {
		result.Confidence = FallbackConfidenceCeiling - 0.01
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}

	result.Duration = time.Since(started)
	return result, nil
}

// recommendWithRetry invokes the provider, retrying exactly once with
// unchanged parameters when the failure class is transient. A result that
// fails schema validation counts as a provider failure.
func (o *Orchestrator) recommendWithRetry(ctx context.Context, p Provider, req *Request) (*settings.OptimizationResult, error) {
	result, err := p.Recommend(ctx, req)
	if err != nil && IsTransient(err) {
		log.Printf("provider '%s' hit a transient failure, retrying once: %v\n", p.Name(), err)
		result, err = p.Recommend(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	if err := validateResult(result); err != nil {
		return nil, fmt.Errorf("provider '%s' returned an invalid result: %v", p.Name(), err)
	}
	return result, nil
}

func validateRequest(req *Request) error {
	if req == nil {
		return &settings.InputError{Field: "request", Reason: "missing request"}
	}
	if req.Camera.ID == "" {
		return &settings.InputError{Field: "camera.id", Reason: "must not be empty"}
	}
	if req.Camera.Scene == "" {
		return &settings.InputError{Field: "camera.scene", Reason: "must not be empty"}
	}
	if req.Camera.Purpose == "" {
		return &settings.InputError{Field: "camera.purpose", Reason: "must not be empty"}
	}
	return req.Optimization.Validate()
}

// validateResult enforces the result schema: a complete settings object
// and a confidence inside [0, 1].
func validateResult(res *settings.OptimizationResult) error {
	if res == nil {
		return fmt.Errorf("nil result")
	}
	if !res.Settings.Complete() {
		return fmt.Errorf("recommended settings are missing sub-groups")
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		return fmt.Errorf("confidence %.3f outside [0, 1]", res.Confidence)
	}
	if res.Provider == "" {
		return fmt.Errorf("missing provider identifier")
	}
	return nil
}
