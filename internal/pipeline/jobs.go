package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Phase is the stage an upload has reached.
type Phase string

const (
	PhaseSaving     Phase = "saving"
	PhaseParsing    Phase = "parsing"
	PhaseGenerating Phase = "generating"
	PhaseStoring    Phase = "storing"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// Job tracks one upload while it is processed and for a while after.
type Job struct {
	mu sync.Mutex

	ID          string
	Filename    string
	Phase       Phase
	Attempts    int
	Err         string
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newJob(id, filename string) *Job {
	now := time.Now()
	return &Job{ID: id, Filename: filename, Phase: PhaseSaving, CreatedAt: now, UpdatedAt: now}
}

// SetPhase updates the phase atomically.
func (j *Job) SetPhase(p Phase) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Phase = p
	j.UpdatedAt = time.Now()
}

// Fail records the error and marks the job failed.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Phase = PhaseFailed
	j.Err = err.Error()
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one model call.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.UpdatedAt = time.Now()
}

func (j *Job) setHash(h string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = h
}

func (j *Job) finished() bool {
	return j.Phase == PhaseDone || j.Phase == PhaseFailed
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"file_id"`
	Filename    string    `json:"filename"`
	Phase       Phase     `json:"phase"`
	Attempts    int       `json:"llm_attempts"`
	Error       string    `json:"error,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Phase:       j.Phase,
		Attempts:    j.Attempts,
		Error:       j.Err,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// JobStore is a thread-safe registry of recent uploads with TTL eviction of
// finished jobs.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns snapshots of all tracked jobs, newest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	out := make([]JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Snapshot())
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

// Cleanup removes finished jobs not updated within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.finished() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
