package optimize

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nfnt/resize"

	"github.com/bneidlinger/cam-whisperer/pkg/settings"

	// Scene snapshots arrive as jpeg or png depending on the camera.
	_ "image/png"
)

// VisionProviderName identifies the reasoning-service provider in results.
const VisionProviderName = "vision"

// Largest scene-image width shipped to the reasoning service. Anything
// wider gets downscaled; the model gains nothing from full sensor frames.
const maxSceneImageWidth = 640

type VisionOptions struct {
	// Endpoint of the reasoning service, e.g. https://reason.internal/v1.
	Endpoint string
	APIKey   string

	// Model name the service should run. Empty uses the service default.
	Model string

	HTTPTimeout time.Duration
}

// VisionProvider asks a vision-capable reasoning service for a
// recommendation. Transport failures, timeouts, and rate limits surface as
// transient errors so the orchestrator retries once before falling back.
type VisionProvider struct {
	http *resty.Client
	opts VisionOptions
}

// NewVisionProvider creates the reasoning-service-backed provider.
func NewVisionProvider(opts VisionOptions) *VisionProvider {
	if opts.HTTPTimeout == 0 {
		opts.HTTPTimeout = 60 * time.Second
	}

	r := resty.New()
	r.SetBaseURL(opts.Endpoint)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	r.SetAuthToken(opts.APIKey)
	r.SetTimeout(opts.HTTPTimeout)

	return &VisionProvider{http: r, opts: opts}
}

func (p *VisionProvider) Name() string { return VisionProviderName }

func (p *VisionProvider) Capabilities() ProviderCapabilities {
	return ProviderCapabilities{Vision: true}
}

type analyzeRequest struct {
	Model        string                       `json:"model,omitempty"`
	Camera       settings.CameraContext       `json:"camera"`
	Capabilities settings.CameraCapabilities  `json:"capabilities"`
	Current      *settings.CameraSettings     `json:"current,omitempty"`
	Constraints  analyzeConstraints           `json:"constraints"`
	SceneImage   string                       `json:"scene_image,omitempty"`
}

type analyzeConstraints struct {
	BandwidthLimitMbps float64 `json:"bandwidth_limit_mbps"`
	RetentionDays      int     `json:"retention_days"`
	Notes              string  `json:"notes"`
}

type analyzeResponse struct {
	Settings    *settings.CameraSettings `json:"settings"`
	Confidence  *float64                 `json:"confidence"`
	Explanation string                   `json:"explanation"`
}

// Recommend ships the scene context (and downscaled snapshot, when one was
// provided) to the reasoning service and validates the structured reply.
func (p *VisionProvider) Recommend(ctx context.Context, req *Request) (*settings.OptimizationResult, error) {
	payload := analyzeRequest{
		Model:        p.opts.Model,
		Camera:       req.Camera,
		Capabilities: req.Capabilities,
		Current:      req.Current,
		Constraints: analyzeConstraints{
			BandwidthLimitMbps: req.Optimization.BandwidthLimitMbps,
			RetentionDays:      req.Optimization.RetentionDays,
			Notes:              req.Optimization.Notes,
		},
	}

	if len(req.Optimization.SceneImage) > 0 {
		encoded, err := encodeSceneImage(req.Optimization.SceneImage)
		if err != nil {
			// A bad snapshot should not sink the whole request; the model
			// still has the textual scene context.
			log.Printf("dropping unusable scene image for camera '%s': %v\n", req.Camera.ID, err)
		} else {
			payload.SceneImage = encoded
		}
	}

	respData := &analyzeResponse{}
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(respData).
		Post("/analyze")
	if err != nil {
		return nil, &TransientError{Reason: "transport", Err: err}
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return nil, &TransientError{Reason: "rate-limited"}
	case resp.StatusCode() == http.StatusRequestTimeout || resp.StatusCode() >= 500:
		return nil, &TransientError{Reason: fmt.Sprintf("service returned %d", resp.StatusCode())}
	case resp.IsError():
		return nil, fmt.Errorf("reasoning service rejected the request with code %d: %s", resp.StatusCode(), resp.String())
	}

	if respData.Settings == nil || !respData.Settings.Complete() {
		return nil, fmt.Errorf("reasoning service reply is missing settings sub-groups")
	}
	if respData.Confidence == nil {
		return nil, fmt.Errorf("reasoning service reply is missing a confidence value")
	}

	return &settings.OptimizationResult{
		Settings:    respData.Settings,
		Confidence:  *respData.Confidence,
		Provider:    VisionProviderName,
		Warnings:    []string{},
		Explanation: respData.Explanation,
	}, nil
}

// encodeSceneImage re-encodes the snapshot as a bounded-width jpeg and
// base64-encodes it for transport.
func encodeSceneImage(raw []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode scene image: %v", err)
	}

	if img.Bounds().Dx() > maxSceneImageWidth {
		img = resize.Resize(maxSceneImageWidth, 0, img, resize.Lanczos3)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("failed to encode scene image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
