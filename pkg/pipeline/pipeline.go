// The pipeline package assembles the optimization-and-apply core from
// configuration: provider chain, backend adapters, job engine, and the
// optional persistence and notification hooks. The server routes and the
// CLI both consume this one composition root.
package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/go-pg/pg/v10"

	"github.com/bneidlinger/cam-whisperer/database"
	"github.com/bneidlinger/cam-whisperer/internal/config"
	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/adapter/dcp"
	"github.com/bneidlinger/cam-whisperer/pkg/adapter/vms"
	"github.com/bneidlinger/cam-whisperer/pkg/job"
	"github.com/bneidlinger/cam-whisperer/pkg/notify"
	"github.com/bneidlinger/cam-whisperer/pkg/optimize"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// Pipeline bundles the core components behind the exposed operations.
type Pipeline struct {
	Orchestrator *optimize.Orchestrator
	Engine       *job.Engine
	Adapters     map[adapter.Kind]adapter.Adapter

	// Store is nil when persistence is not configured.
	Store *database.Store
}

// New wires the pipeline from configuration. Missing optional sections
// (VMS, telegram, postgres) disable their features with a log line rather
// than failing startup; the direct-device adapter and the rule fallback
// are always available.
func New(cfg *config.Config) (*Pipeline, error) {
	adapters := map[adapter.Kind]adapter.Adapter{
		adapter.KindDCP: dcp.New(dcp.Options{}),
	}

	if cfg.VMSBaseURL != "" {
		adapters[adapter.KindVMS] = vms.New(vms.Options{
			BaseURL:     cfg.VMSBaseURL,
			Username:    cfg.VMSUsername,
			Password:    cfg.VMSPassword,
			InsecureTLS: true,
		})
	} else {
		log.Println("VMS backend not configured; vms adapter disabled")
	}

	fallback := optimize.NewFallbackProvider()
	var primary optimize.Provider = fallback
	if cfg.VisionEndpoint != "" {
		primary = optimize.NewVisionProvider(optimize.VisionOptions{
			Endpoint: cfg.VisionEndpoint,
			APIKey:   cfg.VisionAPIKey,
			Model:    cfg.VisionModel,
		})
	} else {
		log.Println("reasoning service not configured; optimizing with the rule fallback only")
	}
	orchestrator := optimize.NewOrchestrator(primary, fallback)

	engineOpts := job.EngineOptions{Adapters: adapters}

	if cfg.TelegramToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("failed to instantiate the telegram notifier: %v", err)
		}
		engineOpts.Notifier = notifier
	}

	var store *database.Store
	if cfg.PostgresAddr != "" {
		db, err := database.NewConnection(&pg.Options{
			Addr:     cfg.PostgresAddr,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			Database: cfg.PostgresDatabase,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %v", err)
		}
		store = database.NewStore(db)
		engineOpts.Archiver = store
	} else {
		log.Println("postgres not configured; inventory and job history persistence disabled")
	}

	return &Pipeline{
		Orchestrator: orchestrator,
		Engine:       job.NewEngine(engineOpts),
		Adapters:     adapters,
		Store:        store,
	}, nil
}

// Adapter resolves an adapter kind, surfacing unknown kinds as input
// errors.
func (p *Pipeline) Adapter(kind adapter.Kind) (adapter.Adapter, error) {
	ad, ok := p.Adapters[kind]
	if !ok {
		return nil, &settings.InputError{Field: "backend", Reason: fmt.Sprintf("unknown or unconfigured adapter kind '%s'", kind)}
	}
	return ad, nil
}

// Discover runs a scan on the chosen backend and drains the lazy result
// sequence into a slice, recording hits in the inventory when persistence
// is on. Partial results survive a timeout by construction.
func (p *Pipeline) Discover(ctx context.Context, kind adapter.Kind, params adapter.ScanParams) ([]adapter.DiscoveredCamera, error) {
	ad, err := p.Adapter(kind)
	if err != nil {
		return nil, err
	}

	ch, err := ad.Discover(ctx, params)
	if err != nil {
		return nil, err
	}

	cams := []adapter.DiscoveredCamera{}
	for cam := range ch {
		cams = append(cams, cam)
	}

	if p.Store != nil && len(cams) > 0 {
		if err := p.Store.RecordDiscovery(kind, cams); err != nil {
			log.Printf("failed to record discovery results: %v\n", err)
		}
	}

	return cams, nil
}
