package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Rajchodisetti/oracle-core/internal/observ"
)

type SessionStatus string

const (
	SessionRunning SessionStatus = "RUNNING"
	SessionStopped SessionStatus = "STOPPED"
)

type SessionEndReason string

const (
	EndNormal    SessionEndReason = "NORMAL"
	EndEmergency SessionEndReason = "EMERGENCY"
	EndDayChange SessionEndReason = "DAY_CHANGE"
	EndRecovered SessionEndReason = "RECOVERED"
	EndManual    SessionEndReason = "MANUAL"
	EndUnknown   SessionEndReason = "UNKNOWN"
)

// Session is the process-wide singleton lifecycle record.
type Session struct {
	ID             string           `json:"id"`
	StartTime      time.Time        `json:"start_time"`
	InitialBalance float64          `json:"initial_balance"`
	Symbols        []string         `json:"symbols"`
	Status         SessionStatus    `json:"status"`
	EndReason      SessionEndReason `json:"end_reason,omitempty"`
	LastHeartbeat  time.Time        `json:"last_heartbeat"`
}

// SessionManager persists the session record locally for crash-recovery
// detection, and determines day-boundary crossings.
type SessionManager struct {
	statePath string
	session   Session
}

func NewSessionManager(stateDir string) *SessionManager {
	return &SessionManager{statePath: filepath.Join(stateDir, ".session_state")}
}

// Start recovers a RUNNING session from disk if one exists, or mints a
// fresh one. Returns the active session and whether it was recovered.
func (sm *SessionManager) Start(initialBalance float64, symbols []string) (Session, bool, error) {
	if existing, err := sm.load(); err == nil && existing.Status == SessionRunning {
		observ.Log("session_recovered", map[string]any{"session_id": existing.ID})
		sm.session = existing
		sm.session.LastHeartbeat = time.Now().UTC()
		return sm.session, true, sm.save()
	}

	sm.session = Session{
		ID:             uuid.NewString(),
		StartTime:      time.Now().UTC(),
		InitialBalance: initialBalance,
		Symbols:        symbols,
		Status:         SessionRunning,
		LastHeartbeat:  time.Now().UTC(),
	}
	return sm.session, false, sm.save()
}

func (sm *SessionManager) Heartbeat() error {
	sm.session.LastHeartbeat = time.Now().UTC()
	return sm.save()
}

// End marks the session STOPPED with the given reason and persists it —
// a stopped session on disk is never recovered on the next startup.
func (sm *SessionManager) End(reason SessionEndReason) error {
	sm.session.Status = SessionStopped
	sm.session.EndReason = reason
	return sm.save()
}

// CheckDayBoundary reports whether now has crossed into a new UTC day
// since the session started.
func (sm *SessionManager) CheckDayBoundary(now time.Time) bool {
	start := dayStart(sm.session.StartTime)
	return dayStart(now).After(start)
}

func dayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func (sm *SessionManager) Current() Session { return sm.session }

func (sm *SessionManager) load() (Session, error) {
	b, err := os.ReadFile(sm.statePath)
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (sm *SessionManager) save() error {
	if err := os.MkdirAll(filepath.Dir(sm.statePath), 0755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(sm.session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sm.statePath, b, 0644)
}
