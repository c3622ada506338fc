package interfaces

import (
	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/job"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

type StartJobRequest struct {
	CameraID string                   `json:"camera_id"`
	Backend  adapter.Kind             `json:"backend"`
	Handle   adapter.Handle           `json:"handle"`
	Intended *settings.CameraSettings `json:"intended"`
	Verify   bool                     `json:"verify"`
}

type StartJobResponse struct {
	JobID string `json:"job_id"`
}

type JobStatusResponse struct {
	Job *job.Job `json:"job"`
}
