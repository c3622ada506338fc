package route

import (
	"fmt"

	mux "github.com/gorilla/mux"

	"github.com/bneidlinger/cam-whisperer/pkg/pipeline"
	"github.com/bneidlinger/cam-whisperer/server/route/camera"
	"github.com/bneidlinger/cam-whisperer/server/route/job"
	"github.com/bneidlinger/cam-whisperer/server/route/optimize"
	"github.com/bneidlinger/cam-whisperer/server/route/ping"
)

func InitRootRoute(r *mux.Router, p *pipeline.Pipeline) error {
	// Ping endpoint.
	pingSubrouter := r.PathPrefix("/ping").Subrouter()
	ping.CreateRoute(pingSubrouter)

	// Optimization endpoint.
	optimizeSubrouter := r.PathPrefix("/optimize").Subrouter()
	if err := optimize.CreateRoutes(optimizeSubrouter, p); err != nil {
		return fmt.Errorf("failed to create optimize routes: %v", err)
	}

	// Camera passthrough endpoints.
	cameraSubrouter := r.PathPrefix("/camera").Subrouter()
	if err := camera.CreateRoutes(cameraSubrouter, p); err != nil {
		return fmt.Errorf("failed to create camera routes: %v", err)
	}

	// Apply-job endpoints.
	jobSubrouter := r.PathPrefix("/job").Subrouter()
	if err := job.CreateRoutes(jobSubrouter, p); err != nil {
		return fmt.Errorf("failed to create job routes: %v", err)
	}

	return nil
}
