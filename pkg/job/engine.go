package job

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
)

const (
	defaultStepTimeout = 30 * time.Second
)

// Notifier receives terminal job states. Implementations must not block
// for long; the engine calls them on the job goroutine.
type Notifier interface {
	NotifyJobDone(j *Job)
}

// Archiver persists terminal job records. Failures are logged, never
// propagated into the job outcome.
type Archiver interface {
	ArchiveJob(j *Job) error
}

type EngineOptions struct {
	Adapters map[adapter.Kind]adapter.Adapter

	// StepTimeout bounds each adapter call. Zero uses the default.
	StepTimeout time.Duration

	// JobTimeout bounds the whole job. Zero derives it from the step
	// timeout and the fixed step count.
	JobTimeout time.Duration

	// Optional hooks.
	Notifier Notifier
	Archiver Archiver
}

// Engine sequences apply jobs. Each engine owns its registry; concurrent
// jobs for different cameras run freely while jobs for the same camera id
// are rejected as busy.
type Engine struct {
	reg  *Registry
	opts EngineOptions
}

// NewEngine creates an apply-job engine with its own registry.
func NewEngine(opts EngineOptions) *Engine {
	if opts.StepTimeout == 0 {
		opts.StepTimeout = defaultStepTimeout
	}
	if opts.JobTimeout == 0 {
		// connect + snapshot + four applies + verify.
		opts.JobTimeout = 7 * opts.StepTimeout
	}
	return &Engine{
		reg:  NewRegistry(),
		opts: opts,
	}
}

// StartJob validates the request, claims the camera, registers a pending
// job, and launches the state machine. It returns the job id immediately;
// progress is observed through GetJob.
func (e *Engine) StartJob(ctx context.Context, cameraID string, h adapter.Handle, intended *settings.CameraSettings, kind adapter.Kind, verify bool) (string, error) {
	if cameraID == "" {
		return "", &settings.InputError{Field: "camera_id", Reason: "must not be empty"}
	}
	if !intended.Complete() {
		return "", &settings.InputError{Field: "intended", Reason: "apply requires all four settings sub-groups"}
	}
	ad, ok := e.opts.Adapters[kind]
	if !ok {
		return "", &settings.InputError{Field: "backend", Reason: fmt.Sprintf("unknown adapter kind '%s'", kind)}
	}

	j := &Job{
		ID:            uuid.NewString(),
		CameraID:      cameraID,
		Backend:       kind,
		Intended:      intended.Clone(),
		VerifyApplied: verify,
		State:         StatePending,
		Steps: []Step{
			{Name: StepConnect, State: StepPending},
			{Name: StepSnapshot, State: StepPending},
			{Name: StepApplyStream, State: StepPending},
			{Name: StepApplyExposure, State: StepPending},
			{Name: StepApplyLowLight, State: StepPending},
			{Name: StepApplyImage, State: StepPending},
			{Name: StepVerify, State: StepPending},
		},
		CreatedAt: time.Now(),
	}

	if err := e.reg.acquireCamera(cameraID, j.ID); err != nil {
		return "", err
	}
	e.reg.put(j)

	go e.run(j.ID, cameraID, h, ad)
	return j.ID, nil
}

// GetJob returns a read-only snapshot of the job record.
func (e *Engine) GetJob(id string) (*Job, error) {
	return e.reg.snapshot(id)
}

// run drives one job through the fixed step sequence. It owns the job's
// lifetime: the camera slot is released and hooks fire exactly once, on
// the way out.
func (e *Engine) run(jobID string, cameraID string, h adapter.Handle, ad adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), e.opts.JobTimeout)
	defer cancel()

	defer func() {
		e.reg.releaseCamera(cameraID, jobID)

		done, err := e.reg.snapshot(jobID)
		if err != nil {
			return
		}
		log.Printf("job[%s] for camera '%s' finished in state '%s'\n", jobID, cameraID, done.State)
		if e.opts.Archiver != nil {
			if err := e.opts.Archiver.ArchiveJob(done); err != nil {
				log.Printf("failed to archive job[%s]: %v\n", jobID, err)
			}
		}
		if e.opts.Notifier != nil {
			e.opts.Notifier.NotifyJobDone(done)
		}
	}()

	e.reg.update(jobID, func(j *Job) {
		j.State = StateInProgress
		j.StartedAt = time.Now()
	})

	// Connect. A connect failure aborts the job before any sub-group is
	// attempted.
	if err := e.runStep(ctx, jobID, StepConnect, func(stepCtx context.Context) error {
		_, err := ad.GetCapabilities(stepCtx, h)
		return err
	}); err != nil {
		e.finish(jobID, StateFailed, fmt.Sprintf("connect failed: %v", err), true)
		return
	}

	// Snapshot the current configuration. Losing the snapshot is not
	// fatal; the applies are still worth attempting.
	_ = e.runStep(ctx, jobID, StepSnapshot, func(stepCtx context.Context) error {
		current, err := ad.GetCurrentSettings(stepCtx, h)
		if err != nil {
			return err
		}
		e.reg.update(jobID, func(j *Job) { j.Snapshot = current })
		return nil
	})

	// Apply each sub-group independently; one failure never blocks the
	// next sub-group.
	rec, _ := e.reg.snapshot(jobID)
	for _, group := range adapter.SubGroups() {
		stepName := applyStepFor(group)

		if ctx.Err() != nil {
			e.reg.update(jobID, func(j *Job) {
				st := j.step(stepName)
				st.State = StepFailed
				st.Error = "job timeout exceeded"
			})
			continue
		}

		e.applySubGroup(ctx, jobID, ad, h, rec.Intended, group)
	}

	if ctx.Err() != nil {
		e.finish(jobID, StateFailed, "job timeout exceeded", false)
		return
	}

	if rec.VerifyApplied {
		e.verify(ctx, jobID, ad, h, rec.Intended)
	} else {
		e.reg.update(jobID, func(j *Job) {
			st := j.step(StepVerify)
			st.State = StepSkipped
			st.Error = "verification not requested"
		})
	}

	e.finalize(jobID)
}

// runStep executes one adapter call under the step timeout, recording the
// step's lifecycle in the job.
func (e *Engine) runStep(ctx context.Context, jobID string, name StepName, fn func(context.Context) error) error {
	e.reg.update(jobID, func(j *Job) { j.step(name).State = StepInProgress })

	stepCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
	defer cancel()

	err := fn(stepCtx)
	e.reg.update(jobID, func(j *Job) {
		st := j.step(name)
		if err != nil {
			st.State = StepFailed
			st.Error = err.Error()
		} else {
			st.State = StepCompleted
		}
	})
	return err
}

// applySubGroup performs one sub-group write and maps the adapter outcome
// onto the step record.
func (e *Engine) applySubGroup(ctx context.Context, jobID string, ad adapter.Adapter, h adapter.Handle, intended *settings.CameraSettings, group adapter.SubGroup) {
	stepName := applyStepFor(group)
	e.reg.update(jobID, func(j *Job) { j.step(stepName).State = StepInProgress })

	stepCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
	defer cancel()

	outcome, err := ad.ApplySettings(stepCtx, h, adapter.Extract(intended, group))

	e.reg.update(jobID, func(j *Job) {
		st := j.step(stepName)

		if err != nil {
			var unsupported *adapter.UnsupportedError
			if errors.As(err, &unsupported) {
				st.State = StepSkipped
				st.Error = err.Error()
			} else {
				st.State = StepFailed
				st.Error = err.Error()
			}
			return
		}

		res, ok := outcome.Results[group]
		if !ok {
			st.State = StepSkipped
			st.Error = "backend reported no outcome for this sub-group"
			return
		}
		switch res.State {
		case adapter.ApplyApplied:
			st.State = StepCompleted
		case adapter.ApplySkipped:
			st.State = StepSkipped
			st.Error = res.Error
		default:
			st.State = StepFailed
			st.Error = res.Error
		}
	})
}

// verify re-reads the applied state and diffs it against the intent. A
// failed re-read marks verification unavailable; it never fails the job.
func (e *Engine) verify(ctx context.Context, jobID string, ad adapter.Adapter, h adapter.Handle, intended *settings.CameraSettings) {
	e.reg.update(jobID, func(j *Job) {
		j.State = StateVerifying
		j.step(StepVerify).State = StepInProgress
	})

	stepCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
	defer cancel()

	actual, err := ad.VerifySettings(stepCtx, h, intended)
	if err != nil {
		log.Printf("job[%s] verification read failed: %v\n", jobID, err)
		e.reg.update(jobID, func(j *Job) {
			j.Verification = &settings.VerificationResult{Available: false}
			st := j.step(StepVerify)
			st.State = StepFailed
			st.Error = err.Error()
		})
		return
	}

	e.reg.update(jobID, func(j *Job) {
		result := Verify(intended, actual, appliedGroups(j), ad.Tolerance())
		j.Verification = &result
		j.step(StepVerify).State = StepCompleted
	})
}

// appliedGroups lists the sub-groups whose apply step completed.
func appliedGroups(j *Job) []adapter.SubGroup {
	groups := []adapter.SubGroup{}
	for _, g := range adapter.SubGroups() {
		if st := j.step(applyStepFor(g)); st != nil && st.State == StepCompleted {
			groups = append(groups, g)
		}
	}
	return groups
}

// finish forces a terminal state, optionally marking the untouched apply
// steps skipped (the connect-failure path, where no sub-group was ever
// attempted).
func (e *Engine) finish(jobID string, state State, message string, skipRemaining bool) {
	e.reg.update(jobID, func(j *Job) {
		j.State = state
		j.Error = message
		j.CompletedAt = time.Now()

		if skipRemaining {
			for i := range j.Steps {
				if j.Steps[i].State == StepPending {
					j.Steps[i].State = StepSkipped
					j.Steps[i].Error = "not attempted"
				}
			}
		}
	})
}

// finalize derives the terminal state from the per-step outcomes and the
// verification result.
func (e *Engine) finalize(jobID string) {
	e.reg.update(jobID, func(j *Job) {
		applied, skipped, failed := 0, 0, 0
		for _, g := range adapter.SubGroups() {
			switch j.step(applyStepFor(g)).State {
			case StepCompleted:
				applied++
			case StepSkipped:
				skipped++
			case StepFailed:
				failed++
			}
		}

		mismatches := 0
		if j.Verification != nil && j.Verification.Available {
			mismatches = len(j.Verification.Mismatches)
		}

		switch {
		case applied == 0:
			j.State = StateFailed
			j.Error = "no settings sub-group was applied"
		case skipped == 0 && failed == 0 && mismatches == 0:
			j.State = StateCompleted
		default:
			j.State = StatePartial
		}
		j.CompletedAt = time.Now()
	})
}
