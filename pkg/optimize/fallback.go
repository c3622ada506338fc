package optimize

import (
	"context"
	"fmt"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

//go:embed rules.yaml
var rawRules []byte

// FallbackProviderName identifies the rule-based provider in results.
const FallbackProviderName = "rules"

const (
	fallbackBaseConfidence = 0.50
	fallbackOverlayBonus   = 0.05
)

type ruleRow struct {
	Explanation string                   `yaml:"explanation"`
	Settings    *settings.CameraSettings `yaml:"settings"`
}

type ruleTable struct {
	Base     ruleRow                            `yaml:"base"`
	Scenes   map[settings.SceneType]ruleRow     `yaml:"scenes"`
	Purposes map[settings.CameraPurpose]ruleRow `yaml:"purposes"`
}

// FallbackProvider is the deterministic rule-based recommendation source.
// It is a pure function of the request: no network, no clock, no failure
// mode. It exists so that Optimize can always return something sane when
// the reasoning service is down.
type FallbackProvider struct {
	rules ruleTable
}

// NewFallbackProvider parses the embedded rule table. The table ships with
// the binary, so a parse failure is a build defect and panics at startup.
func NewFallbackProvider() *FallbackProvider {
	t := ruleTable{}
	if err := yaml.Unmarshal(rawRules, &t); err != nil {
		panic(fmt.Sprintf("embedded rule table is malformed: %v", err))
	}
	if !t.Base.Settings.Complete() {
		panic("embedded rule table base profile must carry all four sub-groups")
	}
	return &FallbackProvider{rules: t}
}

func (p *FallbackProvider) Name() string { return FallbackProviderName }

func (p *FallbackProvider) Capabilities() ProviderCapabilities {
	return ProviderCapabilities{Vision: false}
}

// Recommend composes the base profile with the scene and purpose overlays,
// purpose winning over scene at sub-group granularity.
func (p *FallbackProvider) Recommend(ctx context.Context, req *Request) (*settings.OptimizationResult, error) {
	composed := p.rules.Base.Settings.Clone()
	confidence := fallbackBaseConfidence
	explanations := []string{p.rules.Base.Explanation}

	if row, ok := p.rules.Scenes[req.Camera.Scene]; ok {
		overlay(composed, row.Settings)
		confidence += fallbackOverlayBonus
		explanations = append(explanations, row.Explanation)
	}
	if row, ok := p.rules.Purposes[req.Camera.Purpose]; ok {
		overlay(composed, row.Settings)
		confidence += fallbackOverlayBonus
		explanations = append(explanations, row.Explanation)
	}

	return &settings.OptimizationResult{
		Settings:    composed,
		Confidence:  confidence,
		Provider:    FallbackProviderName,
		Warnings:    []string{},
		Explanation: strings.Join(explanations, "; "),
	}, nil
}

// overlay replaces whole sub-groups of dst with those present in src.
func overlay(dst *settings.CameraSettings, src *settings.CameraSettings) {
	if src == nil {
		return
	}
	if src.Stream != nil {
		cp := *src.Stream
		dst.Stream = &cp
	}
	if src.Exposure != nil {
		cp := *src.Exposure
		dst.Exposure = &cp
	}
	if src.LowLight != nil {
		cp := *src.LowLight
		dst.LowLight = &cp
	}
	if src.Image != nil {
		cp := *src.Image
		dst.Image = &cp
	}
}
