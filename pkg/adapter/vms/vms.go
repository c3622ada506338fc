// The vms package implements the backend adapter for cameras managed by a
// video management system. All operations go through the VMS REST API;
// the VMS, not this code, ultimately talks to the camera, so an applied
// outcome means accepted-by-VMS and only verification confirms the device.
package vms

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

const (
	defaultPageSize    = 50
	defaultHTTPTimeout = 15 * time.Second
)

type Options struct {
	// BaseURL of the VMS web endpoint, e.g. https://vms.local:8443/api/v1.
	BaseURL  string
	Username string
	Password string

	// On-prem VMS installs routinely run on self-signed certificates.
	InsecureTLS bool

	HTTPTimeout time.Duration
}

// Adapter drives cameras through the VMS REST API.
type Adapter struct {
	http *resty.Client
	opts Options
}

// New creates a VMS adapter with digest credentials.
func New(opts Options) *Adapter {
	if opts.HTTPTimeout == 0 {
		opts.HTTPTimeout = defaultHTTPTimeout
	}

	r := resty.New()
	r.SetBaseURL(opts.BaseURL)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	r.SetDigestAuth(opts.Username, opts.Password)
	r.SetTimeout(opts.HTTPTimeout)
	if opts.InsecureTLS {
		r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	return &Adapter{http: r, opts: opts}
}

func (a *Adapter) Kind() adapter.Kind { return adapter.KindVMS }

// Tolerance is loose on bitrate; the VMS rounds reported rates to one
// decimal, and fps to the nearest whole frame.
func (a *Adapter) Tolerance() adapter.Tolerance {
	return adapter.Tolerance{BitrateMbps: 0.1, FPS: 1}
}

type cameraRecord struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Vendor          string `json:"vendor"`
	Model           string `json:"model"`
	Serial          string `json:"serial"`
	FirmwareVersion string `json:"firmwareVersion"`
	IPAddress       string `json:"ipAddress"`
}

type cameraListResponse struct {
	Result struct {
		Cameras       []cameraRecord `json:"cameras"`
		NextPageToken string         `json:"nextPageToken"`
	} `json:"result"`
}

// Discover pages through the VMS camera inventory. This is a listing call
// against the VMS's own registry, not a network probe; results stream into
// the channel page by page, and pagination errors after the first page
// keep whatever was already produced.
func (a *Adapter) Discover(ctx context.Context, params adapter.ScanParams) (<-chan adapter.DiscoveredCamera, error) {
	pageSize := params.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	cancel := context.CancelFunc(func() {})
	if params.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
	}

	// Fetch the first page synchronously so unreachable or unauthorized
	// targets fail the call instead of producing an empty scan.
	first, err := a.listPage(ctx, pageSize, "")
	if err != nil {
		cancel()
		return nil, err
	}

	ch := make(chan adapter.DiscoveredCamera)
	go func() {
		defer close(ch)
		defer cancel()

		page := first
		for {
			for _, rec := range page.Result.Cameras {
				cam := adapter.DiscoveredCamera{
					Address:  rec.IPAddress,
					Vendor:   rec.Vendor,
					Model:    rec.Model,
					Serial:   rec.Serial,
					Firmware: rec.FirmwareVersion,
					VMSID:    rec.ID,
				}
				select {
				case ch <- cam:
				case <-ctx.Done():
					return
				}
			}

			token := page.Result.NextPageToken
			if token == "" {
				return
			}

			next, err := a.listPage(ctx, pageSize, token)
			if err != nil {
				log.Printf("camera inventory pagination stopped early: %v\n", err)
				return
			}
			page = next
		}
	}()

	return ch, nil
}

func (a *Adapter) listPage(ctx context.Context, pageSize int, token string) (*cameraListResponse, error) {
	respData := &cameraListResponse{}
	req := a.http.R().
		SetContext(ctx).
		SetQueryParam("pageSize", fmt.Sprintf("%d", pageSize)).
		SetResult(respData)
	if token != "" {
		req.SetQueryParam("pageToken", token)
	}

	resp, err := req.Get("/cameras")
	if err := a.classify(resp, err); err != nil {
		return nil, err
	}
	return respData, nil
}

type capabilitiesResponse struct {
	Result vmsCapabilities `json:"result"`
}

// GetCapabilities queries the VMS capability record for one camera and
// normalizes it.
func (a *Adapter) GetCapabilities(ctx context.Context, h adapter.Handle) (*settings.CameraCapabilities, error) {
	id, err := cameraID(h)
	if err != nil {
		return nil, err
	}

	respData := &capabilitiesResponse{}
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(respData).
		Get(fmt.Sprintf("/cameras/%s/capabilities", id))
	if err := a.classify(resp, err); err != nil {
		return nil, err
	}

	return normalizeCapabilities(&respData.Result), nil
}

type settingsResponse struct {
	Result vmsSettings `json:"result"`
}

// GetCurrentSettings reads the configuration the VMS holds for the camera.
// Sub-groups the VMS does not expose for this model come back nil.
func (a *Adapter) GetCurrentSettings(ctx context.Context, h adapter.Handle) (*settings.CameraSettings, error) {
	id, err := cameraID(h)
	if err != nil {
		return nil, err
	}

	respData := &settingsResponse{}
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(respData).
		Get(fmt.Sprintf("/cameras/%s/settings", id))
	if err := a.classify(resp, err); err != nil {
		return nil, err
	}

	return fromVMSSettings(&respData.Result), nil
}

type patchResponse struct {
	Result struct {
		Groups  map[string]string `json:"groups"`
		Reasons map[string]string `json:"reasons"`
	} `json:"result"`
}

// ApplySettings patches the supplied sub-groups. The VMS reports a status
// per group; ACCEPTED means the VMS took the change, not that the device
// has it yet.
func (a *Adapter) ApplySettings(ctx context.Context, h adapter.Handle, s *settings.CameraSettings) (*adapter.ApplyOutcome, error) {
	id, err := cameraID(h)
	if err != nil {
		return nil, err
	}

	respData := &patchResponse{}
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(toVMSSettings(s)).
		SetResult(respData).
		Patch(fmt.Sprintf("/cameras/%s/settings", id))
	if err := a.classify(resp, err); err != nil {
		return nil, err
	}

	outcome := &adapter.ApplyOutcome{Results: map[adapter.SubGroup]adapter.SubGroupResult{}}
	for _, group := range adapter.SubGroups() {
		status, ok := respData.Result.Groups[vmsGroupName(group)]
		if !ok {
			continue
		}
		reason := respData.Result.Reasons[vmsGroupName(group)]

		switch status {
		case "ACCEPTED", "APPLIED":
			outcome.Results[group] = adapter.SubGroupResult{State: adapter.ApplyApplied}
		case "UNSUPPORTED":
			outcome.Results[group] = adapter.SubGroupResult{State: adapter.ApplySkipped, Error: reason}
		default:
			outcome.Results[group] = adapter.SubGroupResult{State: adapter.ApplyFailed, Error: reason}
		}
	}

	return outcome, nil
}

// VerifySettings re-reads the settings record. Because applies are
// VMS-moderated, this read is the only confirmation that a change reached
// the device.
func (a *Adapter) VerifySettings(ctx context.Context, h adapter.Handle, intended *settings.CameraSettings) (*settings.CameraSettings, error) {
	return a.GetCurrentSettings(ctx, h)
}

func cameraID(h adapter.Handle) (string, error) {
	if h.VMSID == "" {
		return "", fmt.Errorf("handle for '%s' is missing the VMS camera id", h.Address)
	}
	return h.VMSID, nil
}

// classify folds resty transport and HTTP status failures into the adapter
// error taxonomy.
func (a *Adapter) classify(resp *resty.Response, err error) error {
	if err != nil {
		return &adapter.ConnectError{Address: a.opts.BaseURL, Err: err}
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return &adapter.AuthError{Address: a.opts.BaseURL}
	}
	if resp.IsError() {
		return fmt.Errorf("vms returned non-OK response code %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
