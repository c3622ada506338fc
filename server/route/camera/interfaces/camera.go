package interfaces

import (
	"github.com/bneidlinger/cam-whisperer/database"
	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

type DiscoverRequest struct {
	Backend        adapter.Kind `json:"backend"`
	Network        string       `json:"network,omitempty"`
	TimeoutSeconds int          `json:"timeout_seconds,omitempty"`
	PageSize       int          `json:"page_size,omitempty"`
}

type DiscoverResponse struct {
	Cameras []adapter.DiscoveredCamera `json:"cameras"`
}

type CapabilitiesRequest struct {
	Backend adapter.Kind   `json:"backend"`
	Handle  adapter.Handle `json:"handle"`
}

type CapabilitiesResponse struct {
	Capabilities *settings.CameraCapabilities `json:"capabilities"`
}

type SettingsRequest struct {
	Backend adapter.Kind   `json:"backend"`
	Handle  adapter.Handle `json:"handle"`
}

type SettingsResponse struct {
	Settings *settings.CameraSettings `json:"settings"`
}

type InventoryRequest struct {
	Limit int `json:"limit"`
}

type InventoryResponse struct {
	Cameras []database.CameraEntry `json:"cameras"`
}
