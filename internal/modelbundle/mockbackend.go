package modelbundle

import "math"

// mockBackend is a deterministic InferenceBackend used by tests and by
// the mock broker's demo configuration. It derives its outputs from the
// feature vectors themselves rather than from the opaque blobs, so the
// same input always produces the same decision without touching any real
// model runtime.
type mockBackend struct {
	numStates int
}

// NewMockBackendFactory returns a BackendFactory building a deterministic
// stub backend; the blobs are accepted but ignored, and the state count
// comes from the bundle's own metadata.
func NewMockBackendFactory() BackendFactory {
	return func(meta Metadata, hmmBlob, policyBlob []byte) (InferenceBackend, error) {
		numStates := meta.HMM.NumStates
		if numStates <= 0 {
			numStates = 1
		}
		return &mockBackend{numStates: numStates}, nil
	}
}

func (m *mockBackend) HMMPredict(f [3]float64) int {
	score := f[0] + f[1] + f[2]
	idx := int(math.Round((score + 3) / 6 * float64(m.numStates-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= m.numStates {
		idx = m.numStates - 1
	}
	return idx
}

func (m *mockBackend) PolicyPredict(f []float64, deterministic bool) int {
	if len(f) == 0 {
		return 0
	}
	momentum := f[0]
	switch {
	case momentum > 0.3:
		return 3 // LONG_STRONG
	case momentum > 0.1:
		return 2 // LONG_MODERATE
	case momentum > 0.02:
		return 1 // LONG_WEAK
	case momentum < -0.3:
		return 6 // SHORT_STRONG
	case momentum < -0.1:
		return 5 // SHORT_MODERATE
	case momentum < -0.02:
		return 4 // SHORT_WEAK
	default:
		return 0 // WAIT
	}
}
