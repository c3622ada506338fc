// The optimize package produces capability-safe settings recommendations.
// A primary vision-capable provider is consulted first; a deterministic
// rule-based provider is the availability floor behind it.
package optimize

import (
	"context"
	"errors"
	"fmt"

	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// Request bundles everything a provider may consider for one
// recommendation.
type Request struct {
	Camera       settings.CameraContext       `json:"camera"`
	Capabilities settings.CameraCapabilities  `json:"capabilities"`
	Current      *settings.CameraSettings     `json:"current,omitempty"`
	Optimization settings.OptimizationContext `json:"optimization"`
}

// ProviderCapabilities declares what a provider can make use of.
type ProviderCapabilities struct {
	// Vision is true when the provider can consume a scene image.
	Vision bool
}

// Provider produces a settings recommendation. Implementations must not
// mutate the request.
type Provider interface {
	// Name identifies the provider in results and logs.
	Name() string

	// Capabilities declares the provider's input support.
	Capabilities() ProviderCapabilities

	// Recommend produces a recommendation. Transient failures (timeouts,
	// rate limits, transport errors) must be reported as *TransientError
	// so the orchestrator knows a retry is worthwhile.
	Recommend(ctx context.Context, req *Request) (*settings.OptimizationResult, error)
}

// TransientError marks a provider failure that a single retry may clear.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient provider failure (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transient provider failure (%s)", e.Reason)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transient provider failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
