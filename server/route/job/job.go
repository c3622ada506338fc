package job

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	jobengine "github.com/bneidlinger/cam-whisperer/pkg/job"
	"github.com/bneidlinger/cam-whisperer/pkg/pipeline"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
	"github.com/bneidlinger/cam-whisperer/server/route/job/interfaces"
)

var pipe *pipeline.Pipeline

// POST endpoint starting an apply job.
// Expects the request to be of type StartJobRequest.
// Returns a StartJobResponse carrying the new job id; a camera with an
// active job yields 409.
func postStartJobHandler(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req := interfaces.StartJobRequest{}
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		log.Printf("Failed to de-serialize start-job request: %v\n", err)
		http.Error(w, "failed to de-serialize request body", http.StatusBadRequest)
		return
	}

	jobID, err := pipe.Engine.StartJob(r.Context(), req.CameraID, req.Handle, req.Intended, req.Backend, req.Verify)
	if err != nil {
		if errors.Is(err, jobengine.ErrJobBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		var inputErr *settings.InputError
		if errors.As(err, &inputErr) {
			http.Error(w, inputErr.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Failed to start apply job: %v\n", err)
		http.Error(w, "failed to start apply job", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(interfaces.StartJobResponse{JobID: jobID})
	if err != nil {
		http.Error(w, "failed to serialize response body", http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(respBody)
}

// GET endpoint returning a read-only job snapshot.
func getJobStatusHandler(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	j, err := pipe.Engine.GetJob(jobID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respBody, err := json.Marshal(interfaces.JobStatusResponse{Job: j})
	if err != nil {
		http.Error(w, "failed to serialize response body", http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(respBody)
}

// CreateRoutes registers the job endpoints.
func CreateRoutes(r *mux.Router, p *pipeline.Pipeline) error {
	pipe = p
	r.HandleFunc("/start", postStartJobHandler).Methods("POST")
	r.HandleFunc("/status/{id}", getJobStatusHandler).Methods("GET")
	return nil
}
