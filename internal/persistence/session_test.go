package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMintsFreshSessionWhenNoneOnDisk(t *testing.T) {
	sm := NewSessionManager(t.TempDir())
	sess, recovered, err := sm.Start(10000, []string{"EURUSD"})
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, SessionRunning, sess.Status)
	assert.NotEmpty(t, sess.ID)
}

func TestStartRecoversRunningSessionFromDisk(t *testing.T) {
	dir := t.TempDir()
	sm1 := NewSessionManager(dir)
	first, _, err := sm1.Start(10000, []string{"EURUSD"})
	require.NoError(t, err)

	sm2 := NewSessionManager(dir)
	second, recovered, err := sm2.Start(5000, nil)
	require.NoError(t, err)
	assert.True(t, recovered)
	assert.Equal(t, first.ID, second.ID)
}

func TestStartDoesNotRecoverStoppedSession(t *testing.T) {
	dir := t.TempDir()
	sm1 := NewSessionManager(dir)
	sm1.Start(10000, nil)
	require.NoError(t, sm1.End(EndNormal))

	sm2 := NewSessionManager(dir)
	_, recovered, err := sm2.Start(10000, nil)
	require.NoError(t, err)
	assert.False(t, recovered)
}

func TestHeartbeatUpdatesLastHeartbeat(t *testing.T) {
	sm := NewSessionManager(t.TempDir())
	sm.Start(10000, nil)
	before := sm.Current().LastHeartbeat
	time.Sleep(time.Millisecond)
	require.NoError(t, sm.Heartbeat())
	assert.True(t, sm.Current().LastHeartbeat.After(before) || sm.Current().LastHeartbeat.Equal(before))
}

func TestEndMarksSessionStoppedWithReason(t *testing.T) {
	sm := NewSessionManager(t.TempDir())
	sm.Start(10000, nil)
	require.NoError(t, sm.End(EndDayChange))
	assert.Equal(t, SessionStopped, sm.Current().Status)
	assert.Equal(t, EndDayChange, sm.Current().EndReason)
}

func TestCheckDayBoundaryDetectsUTCDayChange(t *testing.T) {
	sm := NewSessionManager(t.TempDir())
	sm.Start(10000, nil)

	sameDay := dayStart(sm.Current().StartTime).Add(23 * time.Hour)
	assert.False(t, sm.CheckDayBoundary(sameDay))

	nextDay := sm.Current().StartTime.Add(25 * time.Hour)
	assert.True(t, sm.CheckDayBoundary(nextDay))
}
