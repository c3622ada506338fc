// The adapter package defines the backend-neutral contract for talking to
// cameras. Two implementations exist: dcp speaks the device's own discovery
// and control protocol directly, vms goes through a video management
// system's REST API. The job engine only ever sees this interface.
package adapter

import (
	"context"
	"time"

	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// Kind names a backend adapter implementation. Adapter selection is always
// an explicit parameter; it is never inferred from camera metadata.
type Kind string

const (
	KindDCP Kind = "dcp"
	KindVMS Kind = "vms"
)

// Credentials for authenticating against a camera or VMS.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Handle addresses one camera through a backend. For the VMS backend the
// physical address alone is not enough; VMSID carries the VMS-internal
// camera identifier.
type Handle struct {
	Address     string      `json:"address"`
	Credentials Credentials `json:"credentials"`
	VMSID       string      `json:"vms_id,omitempty"`
}

// ScanParams bounds a discovery run. Timeout is mandatory; a scan that
// reaches it returns whatever was found so far rather than failing.
type ScanParams struct {
	// Network to probe, for backends that do a broadcast scan.
	Network string `json:"network"`

	// Hard deadline for the whole scan.
	Timeout time.Duration `json:"timeout"`

	// Page size for backends that enumerate an inventory.
	PageSize int `json:"page_size"`
}

// DiscoveredCamera is one discovery hit.
type DiscoveredCamera struct {
	Address  string `json:"address"`
	Vendor   string `json:"vendor"`
	Model    string `json:"model"`
	Serial   string `json:"serial"`
	Firmware string `json:"firmware"`
	VMSID    string `json:"vms_id,omitempty"`
}

// SubGroup names one of the four canonical settings sub-groups.
type SubGroup string

const (
	SubGroupStream   SubGroup = "stream"
	SubGroupExposure SubGroup = "exposure"
	SubGroupLowLight SubGroup = "low_light"
	SubGroupImage    SubGroup = "image"
)

// SubGroups returns the sub-groups in canonical apply order.
func SubGroups() []SubGroup {
	return []SubGroup{SubGroupStream, SubGroupExposure, SubGroupLowLight, SubGroupImage}
}

// Extract returns only the named sub-group from s, nil sub-group included.
func Extract(s *settings.CameraSettings, g SubGroup) *settings.CameraSettings {
	if s == nil {
		return &settings.CameraSettings{}
	}
	out := &settings.CameraSettings{}
	switch g {
	case SubGroupStream:
		out.Stream = s.Stream
	case SubGroupExposure:
		out.Exposure = s.Exposure
	case SubGroupLowLight:
		out.LowLight = s.LowLight
	case SubGroupImage:
		out.Image = s.Image
	}
	return out
}

// ApplyState is the per-sub-group outcome of an apply call.
type ApplyState string

const (
	ApplyApplied ApplyState = "applied"
	ApplySkipped ApplyState = "skipped-unsupported"
	ApplyFailed  ApplyState = "failed"
)

// SubGroupResult carries the outcome and, for failures, the reason.
type SubGroupResult struct {
	State ApplyState `json:"state"`
	Error string     `json:"error,omitempty"`
}

// ApplyOutcome maps each attempted sub-group to its result. A sub-group is
// either written in full or not at all; there is no partial sub-group.
type ApplyOutcome struct {
	Results map[SubGroup]SubGroupResult `json:"results"`
}

// Tolerance declares how sloppily a backend reads numeric settings back.
// Verification must compare within these bounds; several backends round
// bitrate to the nearest native unit.
type Tolerance struct {
	BitrateMbps float64
	FPS         int
}

// Adapter is the backend contract. All calls are one-shot network
// operations honoring the caller's context deadline; none of them keep
// state between invocations.
type Adapter interface {
	// Kind identifies the implementation.
	Kind() Kind

	// Discover probes for cameras, sending results on the returned channel
	// as they arrive. The channel is closed once the scan finishes or the
	// timeout elapses; results produced before a timeout are kept. The
	// sequence cannot be restarted.
	Discover(ctx context.Context, params ScanParams) (<-chan DiscoveredCamera, error)

	// GetCapabilities queries and normalizes the camera's capability set.
	GetCapabilities(ctx context.Context, h Handle) (*settings.CameraCapabilities, error)

	// GetCurrentSettings reads back the live configuration. Sub-groups the
	// backend cannot expose come back nil, never zero-valued.
	GetCurrentSettings(ctx context.Context, h Handle) (*settings.CameraSettings, error)

	// ApplySettings writes the sub-groups present in s, reporting a
	// per-sub-group outcome.
	ApplySettings(ctx context.Context, h Handle, s *settings.CameraSettings) (*ApplyOutcome, error)

	// VerifySettings re-reads the configuration for post-apply comparison.
	// The comparison itself happens in the verification engine.
	VerifySettings(ctx context.Context, h Handle, intended *settings.CameraSettings) (*settings.CameraSettings, error)

	// Tolerance declares this backend's numeric read-back slack.
	Tolerance() Tolerance
}
