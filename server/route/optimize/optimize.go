package optimize

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	opt "github.com/bneidlinger/cam-whisperer/pkg/optimize"
	"github.com/bneidlinger/cam-whisperer/pkg/pipeline"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
	"github.com/bneidlinger/cam-whisperer/server/route/optimize/interfaces"
)

var pipe *pipeline.Pipeline

// POST endpoint producing a capability-safe settings recommendation.
// Expects the request to be of type OptimizeRequest.
// Returns an OptimizeResponse.
func postOptimizeHandler(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req := interfaces.OptimizeRequest{}
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		log.Printf("Failed to de-serialize optimize request: %v\n", err)
		http.Error(w, "failed to de-serialize request body", http.StatusBadRequest)
		return
	}

	optReq := opt.Request{
		Camera:       req.Camera,
		Current:      req.Current,
		Optimization: req.Optimization,
	}
	if req.Capabilities != nil {
		optReq.Capabilities = *req.Capabilities
	}

	// Fill the capability and current-settings gaps through the referenced
	// backend when the caller did not supply them.
	if req.Handle != nil {
		ad, err := pipe.Adapter(req.Backend)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.Capabilities == nil {
			caps, err := ad.GetCapabilities(r.Context(), *req.Handle)
			if err != nil {
				log.Printf("Failed to query capabilities for optimize request: %v\n", err)
				http.Error(w, "failed to query camera capabilities", http.StatusBadGateway)
				return
			}
			optReq.Capabilities = *caps
		}
		if req.Current == nil {
			current, err := ad.GetCurrentSettings(r.Context(), *req.Handle)
			if err != nil {
				log.Printf("Failed to query current settings for optimize request: %v\n", err)
			} else {
				optReq.Current = current
			}
		}
	}

	result, err := pipe.Orchestrator.Optimize(r.Context(), &optReq)
	if err != nil {
		var inputErr *settings.InputError
		if errors.As(err, &inputErr) {
			http.Error(w, inputErr.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Optimize request failed: %v\n", err)
		http.Error(w, "failed to produce a recommendation", http.StatusBadGateway)
		return
	}

	respBody, err := json.Marshal(interfaces.OptimizeResponse{Result: result})
	if err != nil {
		log.Printf("Failed to serialize optimize response: %v\n", err)
		http.Error(w, "failed to serialize response body", http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(respBody)
}

// CreateRoutes registers the optimize endpoints.
func CreateRoutes(r *mux.Router, p *pipeline.Pipeline) error {
	pipe = p
	r.HandleFunc("", postOptimizeHandler).Methods("POST")
	return nil
}
