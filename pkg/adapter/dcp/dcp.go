// The dcp package implements the backend adapter for cameras that speak
// the direct device-control protocol: UDP broadcast discovery plus a
// per-operation HTTP control exchange. No persistent session is assumed;
// every operation opens its own connection.
package dcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

const (
	// Well-known discovery port devices listen on.
	probePort = 3702

	// Probe payload marker; devices ignore datagrams without it.
	probeMagic = "dcp-discover/1"

	defaultHTTPTimeout = 10 * time.Second
	defaultScanTimeout = 5 * time.Second
)

type Options struct {
	// HTTPTimeout bounds each control exchange when the caller's context
	// carries no deadline of its own.
	HTTPTimeout time.Duration
}

// Adapter speaks the direct device-control protocol.
type Adapter struct {
	opts Options
}

// New creates a direct-device adapter.
func New(opts Options) *Adapter {
	if opts.HTTPTimeout == 0 {
		opts.HTTPTimeout = defaultHTTPTimeout
	}
	return &Adapter{opts: opts}
}

func (a *Adapter) Kind() adapter.Kind { return adapter.KindDCP }

// Tolerance reflects the wire format's kbps granularity; a bitrate read
// back may differ by up to one native unit.
func (a *Adapter) Tolerance() adapter.Tolerance {
	return adapter.Tolerance{BitrateMbps: 0.001}
}

type probeRequest struct {
	Probe string `json:"probe"`
}

type probeReply struct {
	Address  string `json:"address"`
	Vendor   string `json:"vendor"`
	Model    string `json:"model"`
	Serial   string `json:"serial"`
	Firmware string `json:"firmware"`
}

// Discover broadcasts a probe datagram and collects replies until the scan
// timeout elapses. Replies already collected survive the timeout; the
// returned channel is closed once the listener winds down.
func (a *Adapter) Discover(ctx context.Context, params adapter.ScanParams) (<-chan adapter.DiscoveredCamera, error) {
	timeout := params.Timeout
	if timeout == 0 {
		timeout = defaultScanTimeout
	}

	// Resolve the broadcast target. A bare network address gets the
	// well-known probe port appended.
	target := params.Network
	if target == "" {
		target = "255.255.255.255"
	}
	if _, _, err := net.SplitHostPort(target); err != nil {
		target = fmt.Sprintf("%s:%d", target, probePort)
	}
	raddr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve broadcast target '%s': %v", target, err)
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to open probe socket: %v", err)
	}

	payload, err := json.Marshal(probeRequest{Probe: probeMagic})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to serialize probe payload: %v", err)
	}
	if _, err := conn.WriteTo(payload, raddr); err != nil {
		conn.Close()
		return nil, &adapter.ConnectError{Address: target, Err: err}
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetReadDeadline(deadline)

	ch := make(chan adapter.DiscoveredCamera)
	go func() {
		defer close(ch)
		defer conn.Close()

		buf := make([]byte, 2048)
		for {
			n, from, err := conn.ReadFrom(buf)
			if err != nil {
				// Deadline reached or the socket closed; the scan is over.
				return
			}

			reply := probeReply{}
			if err := json.Unmarshal(buf[:n], &reply); err != nil {
				log.Printf("ignoring malformed probe reply from %s: %v\n", from, err)
				continue
			}
			if reply.Address == "" {
				// Some devices omit the address field; fall back to the
				// datagram's source.
				host, _, _ := net.SplitHostPort(from.String())
				reply.Address = host
			}

			cam := adapter.DiscoveredCamera{
				Address:  reply.Address,
				Vendor:   reply.Vendor,
				Model:    reply.Model,
				Serial:   reply.Serial,
				Firmware: reply.Firmware,
			}
			select {
			case ch <- cam:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// GetCapabilities queries the device capability document and normalizes it
// into the canonical capability set.
func (a *Adapter) GetCapabilities(ctx context.Context, h adapter.Handle) (*settings.CameraCapabilities, error) {
	body, err := a.invoke(ctx, h, http.MethodGet, "capabilities", nil)
	if err != nil {
		return nil, err
	}

	wire := wireCapabilities{}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to deserialize capability document: %v", err)
	}
	return normalizeCapabilities(&wire), nil
}

// GetCurrentSettings reads the live configuration. Sub-groups absent from
// the device reply come back nil.
func (a *Adapter) GetCurrentSettings(ctx context.Context, h adapter.Handle) (*settings.CameraSettings, error) {
	body, err := a.invoke(ctx, h, http.MethodGet, "settings", nil)
	if err != nil {
		return nil, err
	}

	wire := wireSettings{}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to deserialize settings document: %v", err)
	}
	return fromWireSettings(&wire), nil
}

// ApplySettings writes each supplied sub-group with its own exchange. The
// device applies a sub-group document atomically, so a failed exchange
// leaves that sub-group untouched.
func (a *Adapter) ApplySettings(ctx context.Context, h adapter.Handle, s *settings.CameraSettings) (*adapter.ApplyOutcome, error) {
	outcome := &adapter.ApplyOutcome{Results: map[adapter.SubGroup]adapter.SubGroupResult{}}

	for _, group := range adapter.SubGroups() {
		payload, ok := wireGroupPayload(s, group)
		if !ok {
			continue
		}

		_, err := a.invoke(ctx, h, http.MethodPut, "settings/"+groupPath(group), payload)
		switch {
		case err == nil:
			outcome.Results[group] = adapter.SubGroupResult{State: adapter.ApplyApplied}
		case isUnsupported(err):
			outcome.Results[group] = adapter.SubGroupResult{State: adapter.ApplySkipped, Error: err.Error()}
		default:
			outcome.Results[group] = adapter.SubGroupResult{State: adapter.ApplyFailed, Error: err.Error()}
		}
	}

	return outcome, nil
}

// VerifySettings re-reads the configuration; the diff belongs to the
// verification engine.
func (a *Adapter) VerifySettings(ctx context.Context, h adapter.Handle, intended *settings.CameraSettings) (*settings.CameraSettings, error) {
	return a.GetCurrentSettings(ctx, h)
}

func groupPath(g adapter.SubGroup) string {
	switch g {
	case adapter.SubGroupLowLight:
		return "lowlight"
	default:
		return string(g)
	}
}

func isUnsupported(err error) bool {
	_, ok := err.(*adapter.UnsupportedError)
	return ok
}

// invoke performs one control exchange against the device. Each exchange
// uses a fresh client; devices in this class drop idle connections fast
// enough that pooling buys nothing.
func (a *Adapter) invoke(ctx context.Context, h adapter.Handle, method string, path string, body interface{}) ([]byte, error) {
	endpoint := fmt.Sprintf("http://%s/api/v1/%s", h.Address, path)

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request body: %v", err)
		}
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to construct request context: %v", err)
	}
	req.SetBasicAuth(h.Credentials.Username, h.Credentials.Password)
	req.Header.Set("Content-Type", "application/json")

	client := http.Client{Timeout: a.opts.HTTPTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &adapter.ConnectError{Address: h.Address, Err: err}
	}
	defer resp.Body.Close()

	resBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &adapter.AuthError{Address: h.Address}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotImplemented:
		return nil, &adapter.UnsupportedError{Op: method + " " + path, Reason: fmt.Sprintf("device returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("device returned non-OK response code %d: %s", resp.StatusCode, string(resBody))
	}

	return resBody, nil
}
