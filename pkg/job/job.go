// The job package owns the apply-job state machine: connect, snapshot,
// apply each settings sub-group, verify. Jobs transition only inside this
// package; everything callers see is a snapshot copy.
package job

import (
	"time"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

// State is the job-level lifecycle state.
type State string

const (
	StatePending    State = "pending"
	StateInProgress State = "in_progress"
	StateVerifying  State = "verifying"
	StateCompleted  State = "completed"
	StatePartial    State = "partial"
	StateFailed     State = "failed"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StatePartial || s == StateFailed
}

// StepName names one step in the fixed apply sequence.
type StepName string

const (
	StepConnect       StepName = "connect"
	StepSnapshot      StepName = "snapshot"
	StepApplyStream   StepName = "apply-stream"
	StepApplyExposure StepName = "apply-exposure"
	StepApplyLowLight StepName = "apply-low-light"
	StepApplyImage    StepName = "apply-image"
	StepVerify        StepName = "verify"
)

// applyStepFor maps a settings sub-group to its apply step.
func applyStepFor(g adapter.SubGroup) StepName {
	switch g {
	case adapter.SubGroupStream:
		return StepApplyStream
	case adapter.SubGroupExposure:
		return StepApplyExposure
	case adapter.SubGroupLowLight:
		return StepApplyLowLight
	default:
		return StepApplyImage
	}
}

// StepState is the per-step lifecycle state.
type StepState string

const (
	StepPending    StepState = "pending"
	StepInProgress StepState = "in_progress"
	StepCompleted  StepState = "completed"
	StepFailed     StepState = "failed"
	StepSkipped    StepState = "skipped"
)

// Step records one step's outcome inside a job.
type Step struct {
	Name  StepName  `json:"name"`
	State StepState `json:"state"`
	Error string    `json:"error,omitempty"`
}

// Job is one apply request's full record. Only the engine mutates it; the
// registry hands out deep copies.
type Job struct {
	ID       string       `json:"id"`
	CameraID string       `json:"camera_id"`
	Backend  adapter.Kind `json:"backend"`

	Intended      *settings.CameraSettings `json:"intended"`
	VerifyApplied bool                     `json:"verify_applied"`

	State State  `json:"state"`
	Steps []Step `json:"steps"`
	Error string `json:"error,omitempty"`

	// Snapshot of the configuration before any apply step ran.
	Snapshot *settings.CameraSettings `json:"snapshot,omitempty"`

	Verification *settings.VerificationResult `json:"verification,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy safe to hand outside the engine.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Intended = j.Intended.Clone()
	cp.Snapshot = j.Snapshot.Clone()
	cp.Steps = make([]Step, len(j.Steps))
	copy(cp.Steps, j.Steps)
	if j.Verification != nil {
		v := *j.Verification
		v.Mismatches = make([]settings.SettingMismatch, len(j.Verification.Mismatches))
		copy(v.Mismatches, j.Verification.Mismatches)
		cp.Verification = &v
	}
	return &cp
}

// step returns a pointer into the job's step list by name.
func (j *Job) step(name StepName) *Step {
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			return &j.Steps[i]
		}
	}
	return nil
}
