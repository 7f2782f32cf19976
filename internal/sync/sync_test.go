package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepFlatFirstSignalLatchesWithoutOpening(t *testing.T) {
	s := New()
	dec, shouldOpen := s.Step(false, 0, 1)
	assert.Equal(t, WAITSYNC, dec)
	assert.False(t, shouldOpen)
	assert.True(t, s.WaitingSync())
	assert.Equal(t, 1, s.LatchedDirection())
}

func TestStepFlatRepeatedSameDirectionStaysLatched(t *testing.T) {
	s := New()
	s.Step(false, 0, 1)
	dec, shouldOpen := s.Step(false, 0, 1)
	assert.Equal(t, WAITSYNC, dec)
	assert.False(t, shouldOpen)
}

func TestStepFlatDirectionEdgeOpens(t *testing.T) {
	s := New()
	s.Step(false, 0, 1) // latches LONG, no open
	dec, shouldOpen := s.Step(false, 0, -1)
	assert.Equal(t, OPEN, dec)
	assert.True(t, shouldOpen)
	assert.False(t, s.WaitingSync())
}

func TestStepFlatSignalDropsToZeroClearsLatch(t *testing.T) {
	s := New()
	s.Step(false, 0, 1)
	dec, shouldOpen := s.Step(false, 0, 0)
	assert.Equal(t, NOOP, dec)
	assert.False(t, shouldOpen)
	assert.False(t, s.WaitingSync())
	assert.Zero(t, s.LatchedDirection())
}

func TestStepS2FlatBrokerLatchesThenOpensOnNextEdgeAfterWait(t *testing.T) {
	// S2: broker stays flat for bars 1-4. Bar 1 latches LONG, bar 2
	// holds the latch, bar 3's return to WAIT confirms sync without
	// opening, and bar 4's SHORT signal must open directly rather than
	// re-latching.
	cases := []struct {
		bar          int
		signalDir    int
		wantDecision Decision
		wantOpen     bool
		wantWaiting  bool
	}{
		{1, 1, WAITSYNC, false, true},
		{2, 1, WAITSYNC, false, true},
		{3, 0, NOOP, false, false},
		{4, -1, OPEN, true, false},
	}

	s := New()
	for _, c := range cases {
		dec, shouldOpen := s.Step(false, 0, c.signalDir)
		assert.Equal(t, c.wantDecision, dec, "bar %d", c.bar)
		assert.Equal(t, c.wantOpen, shouldOpen, "bar %d", c.bar)
		assert.Equal(t, c.wantWaiting, s.WaitingSync(), "bar %d", c.bar)
	}
}

func TestStepFlatNoSignalStaysNoop(t *testing.T) {
	s := New()
	dec, shouldOpen := s.Step(false, 0, 0)
	assert.Equal(t, NOOP, dec)
	assert.False(t, shouldOpen)
	assert.False(t, s.WaitingSync())
}

func TestStepRealMatchesSignalIsNoop(t *testing.T) {
	s := New()
	dec, shouldOpen := s.Step(true, 1, 1)
	assert.Equal(t, NOOP, dec)
	assert.False(t, shouldOpen)
}

func TestStepRealOpposesSignalCloses(t *testing.T) {
	s := New()
	dec, shouldOpen := s.Step(true, 1, -1)
	assert.Equal(t, CLOSE, dec)
	assert.False(t, shouldOpen)
}

func TestStepRealButSignalFlatCloses(t *testing.T) {
	s := New()
	dec, shouldOpen := s.Step(true, 1, 0)
	assert.Equal(t, CLOSE, dec)
	assert.False(t, shouldOpen)
}

func TestResetClearsLatch(t *testing.T) {
	s := New()
	s.Step(false, 0, 1)
	s.Reset()
	assert.False(t, s.WaitingSync())
	assert.Zero(t, s.LatchedDirection())
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "NOOP", NOOP.String())
	assert.Equal(t, "OPEN", OPEN.String())
	assert.Equal(t, "CLOSE", CLOSE.String())
	assert.Equal(t, "WAIT_SYNC", WAITSYNC.String())
}
