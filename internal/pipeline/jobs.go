package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docbind/internal/validate"
)

// JobStatus represents the state of a build job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusBuilding  JobStatus = "building"
	StatusExporting JobStatus = "exporting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks a single queued build.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"build_id"`
	Format string    `json:"format"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	result      []byte
	contentType string
	digest      string
	headings    int
	violations  []validate.Violation
	errors      []string
}

// NewJob creates a queued job for the given export format.
func NewJob(format string) *Job {
	now := time.Now()
	return &Job{
		ID:        NewBuildID(),
		Format:    format,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// SetViolations records the validator output of a rejected build.
func (j *Job) SetViolations(vs []validate.Violation) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.violations = append([]validate.Violation(nil), vs...)
	j.UpdatedAt = time.Now()
}

// SetResult stores the exported document.
func (j *Job) SetResult(data []byte, contentType, digest string, headings int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = data
	j.contentType = contentType
	j.digest = digest
	j.headings = headings
	j.UpdatedAt = time.Now()
}

// Result returns the exported bytes and their content type. ok is false
// until the job has completed.
func (j *Job) Result() (data []byte, contentType string, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusCompleted {
		return nil, "", false
	}
	return j.result, j.contentType, true
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string               `json:"build_id"`
	Format     string               `json:"format"`
	Status     JobStatus            `json:"status"`
	Phase      string               `json:"phase"`
	Digest     string               `json:"digest,omitempty"`
	Headings   int                  `json:"headings"`
	Bytes      int                  `json:"bytes"`
	Violations []validate.Violation `json:"violations"`
	Errors     []string             `json:"errors"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	vs := append([]validate.Violation{}, j.violations...)
	return JobSnapshot{
		ID:         j.ID,
		Format:     j.Format,
		Status:     j.Status,
		Phase:      j.Phase,
		Digest:     j.digest,
		Headings:   j.headings,
		Bytes:      len(j.result),
		Violations: vs,
		Errors:     errs,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
