package orchestrators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gymhub/internal/domain/audit"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seqIDs returns a generator yielding prefix-1, prefix-2, ...
func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// recordingAudit implements AuditSaver for testing.
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (r *recordingAudit) Save(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingAudit) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

// countingCounter implements EventCounter for testing.
type countingCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingCounter() *countingCounter {
	return &countingCounter{counts: map[string]int{}}
}

func (c *countingCounter) Count(event string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event] += n
}

func (c *countingCounter) get(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[event]
}

var superAdmin = Actor{ID: "sa-1", Email: "root@gym.test", Role: "superadmin"}
