// Package joblog keeps the progress lines of running download jobs so a
// browser can poll them while the archive streams.
package joblog

import (
	"context"
	"sync"
	"time"
)

// Result is one poll response.
type Result struct {
	Lines    []string `json:"lines"`
	Finished bool     `json:"finished"`
	Next     int      `json:"next"`
}

// Job holds the lines of one job.
type Job struct {
	lines    []string
	finished bool
	touched  time.Time
}

// Store is an in-memory map of job id to lines. It is safe for concurrent
// use.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job), now: time.Now}
}

// Touch creates the job if needed. An existing job keeps its lines.
func (s *Store) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked(id)
}

func (s *Store) touchLocked(id string) *Job {
	job, ok := s.jobs[id]
	if !ok {
		job = &Job{}
		s.jobs[id] = job
	}
	job.touched = s.now()
	return job
}

// Append adds lines to the job, creating it when missing.
func (s *Store) Append(id string, lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.touchLocked(id)
	job.lines = append(job.lines, lines...)
}

// Finish marks the job complete.
func (s *Store) Finish(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked(id).finished = true
}

// Poll returns the lines from index from onwards. Unknown jobs report
// finished with nothing to read. A finished job is dropped once a poll finds
// nothing left to return.
func (s *Store) Poll(id string, from int) Result {
	if from < 0 {
		from = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Result{Lines: []string{}, Finished: true, Next: from}
	}
	var lines []string
	if from < len(job.lines) {
		lines = append([]string(nil), job.lines[from:]...)
	} else {
		lines = []string{}
	}
	if job.finished && len(lines) == 0 {
		delete(s.jobs, id)
	} else {
		job.touched = s.now()
	}
	return Result{Lines: lines, Finished: job.finished, Next: from + len(lines)}
}

// Len reports the number of tracked jobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Sweep drops jobs idle for longer than ttl and returns how many went.
func (s *Store) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, job := range s.jobs {
		if job.touched.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval, ttl time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ttl)
		}
	}
}
