package submit

import (
	"sync"
	"time"
)

// ResultPath returns the result view path for a task.
func ResultPath(taskID string) string {
	return "/analysis/" + taskID
}

// Redirector schedules navigation to a task's result view after a fixed
// delay so the success state has a moment to register. Another id arriving
// before the timer fires reschedules to the newest id with the full delay;
// whichever id is pending when the timer fires wins, and navigation happens
// exactly once.
type Redirector struct {
	delay    time.Duration
	navigate func(path string)

	mu        sync.Mutex
	timer     *time.Timer
	pending   string
	navigated bool
	stopped   bool
}

// NewRedirector builds a redirector calling navigate with the result path.
func NewRedirector(delay time.Duration, navigate func(path string)) *Redirector {
	return &Redirector{delay: delay, navigate: navigate}
}

// Schedule arms (or re-arms) navigation for the given task id.
func (r *Redirector) Schedule(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.navigated || r.stopped {
		return
	}
	r.pending = taskID
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.delay, r.fire)
}

func (r *Redirector) fire() {
	r.mu.Lock()
	if r.navigated || r.stopped {
		r.mu.Unlock()
		return
	}
	r.navigated = true
	taskID := r.pending
	r.mu.Unlock()
	r.navigate(ResultPath(taskID))
}

// Stop cancels any pending navigation.
func (r *Redirector) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
}
