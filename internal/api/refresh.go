package api

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// RefreshStatus reports the progress of the last bulk refresh
type RefreshStatus struct {
	Running    bool       `json:"running"`
	Current    int        `json:"current"`
	Total      int        `json:"total"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// refreshTracker lets one bulk refresh run at a time and records its progress
type refreshTracker struct {
	mu     sync.Mutex
	status RefreshStatus
}

// start marks a refresh as running. It returns false if one already is.
func (t *refreshTracker) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Running {
		return false
	}
	now := time.Now()
	t.status = RefreshStatus{Running: true, StartedAt: &now}
	return true
}

// report is the progress callback handed to the service
func (t *refreshTracker) report(current, total int) {
	t.mu.Lock()
	t.status.Current = current
	t.status.Total = total
	t.mu.Unlock()
	log.Infof("refresh progress %d/%d", current, total)
}

func (t *refreshTracker) finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.status.Running = false
	t.status.FinishedAt = &now
	if err != nil {
		t.status.Error = err.Error()
	}
}

func (t *refreshTracker) snapshot() RefreshStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
