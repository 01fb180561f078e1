// Package jobs tracks long-running admin maintenance operations so
// clients can poll them to completion. State is in-memory only: jobs
// are ephemeral by contract, bounded by a retention window.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies one class of maintenance operation. At most one job
// of a given kind may be active (pending or running) at a time.
type Kind string

const (
	KindRefresh      Kind = "refresh"
	KindThumbnails   Kind = "generate-thumbnails"
	KindDislikePurge Kind = "delete-dislike-content"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	// ErrConflict indicates a job of the same kind is already active.
	ErrConflict = errors.New("job of this kind already active")
	// ErrNotFound indicates the job id is unknown or already cleared.
	ErrNotFound = errors.New("job not found")
	// ErrInvalidTransition indicates the requested state change is not
	// legal from the job's current status.
	ErrInvalidTransition = errors.New("invalid job transition")
)

// Job is the externally visible state of one maintenance operation.
// Total is meaningful only when TotalKnown is set; a scan does not know
// its total until it has enumerated the work.
type Job struct {
	ID         string    `json:"job_id"`
	Kind       Kind      `json:"kind"`
	Status     Status    `json:"status"`
	Processed  int       `json:"processed"`
	Total      int       `json:"total"`
	TotalKnown bool      `json:"total_known"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

func (j Job) terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

type trackedJob struct {
	Job
	lastAdvance time.Time
	observedAt  time.Time
}

// Terminal jobs linger briefly after the first poll observes them, so
// a client re-polling after a transient failure still sees the result.
const observedLinger = 5 * time.Minute

// Tracker is the per-kind state machine behind the admin endpoints.
// All transitions happen under one mutex, so two concurrent Start calls
// for the same kind cannot both win.
type Tracker struct {
	mu     sync.Mutex
	active map[Kind]string
	byID   map[string]*trackedJob
	latest map[Kind]string

	retention    time.Duration
	stallTimeout time.Duration
	nowFunc      func() time.Time
}

// NewTracker constructs a Tracker with the given retention window and
// stall timeout.
func NewTracker(retention, stallTimeout time.Duration) *Tracker {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if stallTimeout <= 0 {
		stallTimeout = 10 * time.Minute
	}
	return &Tracker{
		active:       make(map[Kind]string),
		byID:         make(map[string]*trackedJob),
		latest:       make(map[Kind]string),
		retention:    retention,
		stallTimeout: stallTimeout,
		nowFunc:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers a new pending job of the given kind. It fails with
// ErrConflict while a job of that kind is pending or running.
func (t *Tracker) Start(kind Kind) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()

	if _, busy := t.active[kind]; busy {
		return Job{}, ErrConflict
	}

	now := t.nowFunc()
	job := &trackedJob{
		Job: Job{
			ID:        uuid.NewString(),
			Kind:      kind,
			Status:    StatusPending,
			StartedAt: now,
		},
		lastAdvance: now,
	}

	t.active[kind] = job.ID
	t.byID[job.ID] = job
	t.latest[kind] = job.ID

	return job.Job, nil
}

// Poll returns the job's current state. Polling is read-only and safe
// to repeat; observing a terminal job starts its linger countdown.
func (t *Tracker) Poll(jobID string) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()

	job, ok := t.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}

	if job.terminal() && job.observedAt.IsZero() {
		job.observedAt = t.nowFunc()
	}

	return job.Job, nil
}

// Latest returns the active or most recent job of a kind, if any is
// still tracked. Status endpoints use this so clients need not keep
// job ids across page reloads.
func (t *Tracker) Latest(kind Kind) (Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()

	id, ok := t.latest[kind]
	if !ok {
		return Job{}, false
	}
	job, ok := t.byID[id]
	if !ok {
		return Job{}, false
	}

	if job.terminal() && job.observedAt.IsZero() {
		job.observedAt = t.nowFunc()
	}

	return job.Job, true
}

// Advance reports worker progress. The first Advance moves a pending
// job to running. totalKnown may flip to true once the worker has
// enumerated its work.
func (t *Tracker) Advance(jobID string, processed, total int, totalKnown bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()

	job, ok := t.byID[jobID]
	if !ok {
		return ErrNotFound
	}

	switch job.Status {
	case StatusPending:
		job.Status = StatusRunning
	case StatusRunning:
	default:
		return ErrInvalidTransition
	}

	job.Processed = processed
	job.Total = total
	job.TotalKnown = totalKnown
	job.lastAdvance = t.nowFunc()
	return nil
}

// Complete marks a running job successful and frees the kind's slot.
func (t *Tracker) Complete(jobID string) error {
	return t.finish(jobID, StatusCompleted, "")
}

// Fail marks a running job failed with detail and frees the kind's slot.
func (t *Tracker) Fail(jobID, detail string) error {
	return t.finish(jobID, StatusFailed, detail)
}

func (t *Tracker) finish(jobID string, status Status, detail string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()

	job, ok := t.byID[jobID]
	if !ok {
		return ErrNotFound
	}

	if job.Status != StatusRunning {
		return ErrInvalidTransition
	}

	job.Status = status
	job.Error = detail
	job.FinishedAt = t.nowFunc()
	delete(t.active, job.Kind)
	return nil
}

// sweepLocked fails stalled jobs and clears expired terminal ones.
// Runs under the tracker mutex on every public call; the maps stay
// small (a handful of kinds) so the linear pass is cheap.
func (t *Tracker) sweepLocked() {
	now := t.nowFunc()

	for id, job := range t.byID {
		if job.Status == StatusRunning && now.Sub(job.lastAdvance) > t.stallTimeout {
			job.Status = StatusFailed
			job.Error = "stalled: no progress reported within " + t.stallTimeout.String()
			job.FinishedAt = now
			delete(t.active, job.Kind)
		}

		if !job.terminal() {
			continue
		}

		expired := now.Sub(job.FinishedAt) > t.retention
		observed := !job.observedAt.IsZero() && now.Sub(job.observedAt) > observedLinger
		if expired || observed {
			delete(t.byID, id)
			if t.latest[job.Kind] == id {
				delete(t.latest, job.Kind)
			}
		}
	}
}
