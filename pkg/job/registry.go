package job

import (
	"fmt"
	"sync"
)

// ErrJobBusy is returned when a camera already has a non-terminal job. New
// requests are rejected, never queued.
var ErrJobBusy = fmt.Errorf("camera already has an active apply job")

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = fmt.Errorf("no such job")

// Registry is the engine's only shared mutable state: the job map and the
// per-camera exclusivity table. Each map is guarded by its own RWMutex
// held only for map surgery, so reads stay concurrent and no lock ever
// spans a network operation or another camera's work.
type Registry struct {
	jobsMu sync.RWMutex
	jobs   map[string]*Job

	camerasMu sync.Mutex
	// camera id -> job id currently holding the camera.
	cameras map[string]string
}

// NewRegistry creates an empty registry. Engines own their registry
// instance; there is deliberately no package-level singleton so tests can
// run isolated engines side by side.
func NewRegistry() *Registry {
	return &Registry{
		jobs:    make(map[string]*Job),
		cameras: make(map[string]string),
	}
}

// acquireCamera claims the per-camera exclusivity slot for jobID.
func (r *Registry) acquireCamera(cameraID string, jobID string) error {
	r.camerasMu.Lock()
	defer r.camerasMu.Unlock()

	if holder, held := r.cameras[cameraID]; held {
		return fmt.Errorf("%w: job '%s' holds camera '%s'", ErrJobBusy, holder, cameraID)
	}
	r.cameras[cameraID] = jobID
	return nil
}

// releaseCamera frees the camera slot, but only if jobID still holds it.
func (r *Registry) releaseCamera(cameraID string, jobID string) {
	r.camerasMu.Lock()
	defer r.camerasMu.Unlock()

	if r.cameras[cameraID] == jobID {
		delete(r.cameras, cameraID)
	}
}

// put registers a job record.
func (r *Registry) put(j *Job) {
	r.jobsMu.Lock()
	defer r.jobsMu.Unlock()
	r.jobs[j.ID] = j
}

// get returns the live record; callers outside the engine must Clone.
func (r *Registry) get(id string) (*Job, bool) {
	r.jobsMu.RLock()
	defer r.jobsMu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}

// update runs fn against the live job record under the registry's write
// lock, keeping every state transition atomic with respect to readers.
func (r *Registry) update(id string, fn func(*Job)) {
	r.jobsMu.Lock()
	defer r.jobsMu.Unlock()
	if j, ok := r.jobs[id]; ok {
		fn(j)
	}
}

// snapshot returns a deep copy of the job for external consumption.
func (r *Registry) snapshot(id string) (*Job, error) {
	r.jobsMu.RLock()
	defer r.jobsMu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j.Clone(), nil
}
