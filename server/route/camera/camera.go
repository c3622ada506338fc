package camera

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/pipeline"
	"github.com/bneidlinger/cam-whisperer/server/route/camera/interfaces"
)

var pipe *pipeline.Pipeline

// POST endpoint running a bounded discovery scan on the chosen backend.
// Expects the request to be of type DiscoverRequest.
// Returns a DiscoverResponse; partial results survive a scan timeout.
func postDiscoverHandler(w http.ResponseWriter, r *http.Request) {
	req := interfaces.DiscoverRequest{}
	if !readRequest(w, r, &req) {
		return
	}

	params := adapter.ScanParams{
		Network:  req.Network,
		PageSize: req.PageSize,
	}
	if req.TimeoutSeconds > 0 {
		params.Timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	cams, err := pipe.Discover(r.Context(), req.Backend, params)
	if err != nil {
		writeAdapterError(w, "discovery failed", err)
		return
	}

	writeResponse(w, interfaces.DiscoverResponse{Cameras: cams})
}

// POST endpoint querying the normalized capability set of one camera.
func postCapabilitiesHandler(w http.ResponseWriter, r *http.Request) {
	req := interfaces.CapabilitiesRequest{}
	if !readRequest(w, r, &req) {
		return
	}

	ad, err := pipe.Adapter(req.Backend)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	caps, err := ad.GetCapabilities(r.Context(), req.Handle)
	if err != nil {
		writeAdapterError(w, "capability query failed", err)
		return
	}

	writeResponse(w, interfaces.CapabilitiesResponse{Capabilities: caps})
}

// POST endpoint reading the camera's live settings.
func postSettingsHandler(w http.ResponseWriter, r *http.Request) {
	req := interfaces.SettingsRequest{}
	if !readRequest(w, r, &req) {
		return
	}

	ad, err := pipe.Adapter(req.Backend)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := ad.GetCurrentSettings(r.Context(), req.Handle)
	if err != nil {
		writeAdapterError(w, "settings query failed", err)
		return
	}

	writeResponse(w, interfaces.SettingsResponse{Settings: current})
}

// GET endpoint listing the persisted camera inventory.
func getInventoryHandler(w http.ResponseWriter, r *http.Request) {
	if pipe.Store == nil {
		http.Error(w, "camera inventory persistence is not configured", http.StatusNotFound)
		return
	}

	req := interfaces.InventoryRequest{}
	if !readRequest(w, r, &req) {
		return
	}
	if req.Limit == 0 {
		req.Limit = 10
	}

	cams, err := pipe.Store.ListCameras(req.Limit)
	if err != nil {
		log.Printf("Failed to query camera inventory: %v\n", err)
		http.Error(w, "failed to query camera inventory", http.StatusInternalServerError)
		return
	}

	writeResponse(w, interfaces.InventoryResponse{Cameras: cams})
}

func readRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	bodyBytes, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return false
	}
	if len(bodyBytes) == 0 {
		return true
	}
	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		log.Printf("Failed to de-serialize request: %v\n", err)
		http.Error(w, "failed to de-serialize request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeResponse(w http.ResponseWriter, resp interface{}) {
	respBody, err := json.Marshal(resp)
	if err != nil {
		log.Printf("Failed to serialize response: %v\n", err)
		http.Error(w, "failed to serialize response body", http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.Write(respBody)
}

func writeAdapterError(w http.ResponseWriter, message string, err error) {
	log.Printf("%s: %v\n", message, err)

	var authErr *adapter.AuthError
	if errors.As(err, &authErr) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	var connectErr *adapter.ConnectError
	if errors.As(err, &connectErr) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	http.Error(w, message, http.StatusBadRequest)
}

// CreateRoutes registers the camera endpoints.
func CreateRoutes(r *mux.Router, p *pipeline.Pipeline) error {
	pipe = p
	r.HandleFunc("/discover", postDiscoverHandler).Methods("POST")
	r.HandleFunc("/capabilities", postCapabilitiesHandler).Methods("POST")
	r.HandleFunc("/settings", postSettingsHandler).Methods("POST")
	r.HandleFunc("/inventory", getInventoryHandler).Methods("GET")
	return nil
}
