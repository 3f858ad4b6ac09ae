package joblog

import "sync"

// Recorder feeds one job's lines into a Store from a single goroutine, so
// the producer never contends on the store lock.
type Recorder struct {
	store *Store
	id    string
	lines chan string
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewRecorder touches the job and starts its writer goroutine.
func NewRecorder(store *Store, id string) *Recorder {
	store.Touch(id)
	r := &Recorder{
		store: store,
		id:    id,
		lines: make(chan string, 64),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer close(r.done)
	for line := range r.lines {
		r.store.Append(r.id, line)
	}
}

// ID returns the job id.
func (r *Recorder) ID() string { return r.id }

// Log queues a line. Lines logged after Close are dropped.
func (r *Recorder) Log(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.lines <- line
}

// Close flushes queued lines, appends final when non-empty and marks the job
// finished. Further calls are no-ops.
func (r *Recorder) Close(final string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.lines)
	r.mu.Unlock()

	<-r.done
	if final != "" {
		r.store.Append(r.id, final)
	}
	r.store.Finish(r.id)
}
