package interfaces

import (
	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

type OptimizeRequest struct {
	Camera       settings.CameraContext       `json:"camera"`
	Capabilities *settings.CameraCapabilities `json:"capabilities,omitempty"`
	Current      *settings.CameraSettings     `json:"current,omitempty"`
	Optimization settings.OptimizationContext `json:"optimization"`

	// Optional backend reference; when capabilities or current settings
	// are omitted, the server queries them through this adapter.
	Backend adapter.Kind    `json:"backend,omitempty"`
	Handle  *adapter.Handle `json:"handle,omitempty"`
}

type OptimizeResponse struct {
	Result *settings.OptimizationResult `json:"result"`
}
