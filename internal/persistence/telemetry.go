// Package persistence holds everything the core writes to local disk:
// the crash-recovery session file, the bounded telemetry retry queue,
// and the queryable trade/session store.
package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// TelemetryEvent is one record queued for egress to the external store —
// a trade (real or paper) or a lifecycle/risk/error event.
type TelemetryEvent struct {
	Type      string          `json:"type"` // "trade" | "session" | "risk" | "error"
	Data      json.RawMessage `json:"data"`
	QueuedAt  time.Time       `json:"queued_at"`
	Attempts  int             `json:"attempts"`
}

// TelemetryQueue is a bounded retry queue kept as a single JSON array
// file, rewritten on every change. Persistence failures are logged and
// counted, never allowed to block trading — the queue just grows (up to
// its cap, past which the oldest event is dropped) and drains on its own
// cadence. Events are not deduplicated.
type TelemetryQueue struct {
	path     string
	capacity int
}

func NewTelemetryQueue(path string, capacity int) (*TelemetryQueue, error) {
	if capacity <= 0 {
		capacity = 1000
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &TelemetryQueue{path: path, capacity: capacity}, nil
}

// Enqueue appends an event, dropping the oldest pending event if the
// queue is already at capacity.
func (q *TelemetryQueue) Enqueue(eventType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	pending, err := q.loadPending()
	if err != nil {
		return err
	}
	ev := TelemetryEvent{Type: eventType, Data: raw, QueuedAt: time.Now().UTC()}
	pending = append(pending, ev)
	if len(pending) > q.capacity {
		pending = pending[len(pending)-q.capacity:]
	}
	return q.writeAll(pending)
}

// Drain attempts to deliver every pending event via send, removing any
// that succeed. send's errors are not fatal — the event stays queued
// for the next drain cycle.
func (q *TelemetryQueue) Drain(send func(TelemetryEvent) error) (delivered, remaining int, err error) {
	pending, err := q.loadPending()
	if err != nil {
		return 0, 0, err
	}
	var kept []TelemetryEvent
	for _, ev := range pending {
		if sendErr := send(ev); sendErr != nil {
			ev.Attempts++
			kept = append(kept, ev)
			continue
		}
		delivered++
	}
	if err := q.writeAll(kept); err != nil {
		return delivered, len(kept), err
	}
	return delivered, len(kept), nil
}

func (q *TelemetryQueue) loadPending() ([]TelemetryEvent, error) {
	b, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	var out []TelemetryEvent
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *TelemetryQueue) writeAll(events []TelemetryEvent) error {
	b, err := json.Marshal(events)
	if err != nil {
		return err
	}
	return os.WriteFile(q.path, b, 0644)
}
