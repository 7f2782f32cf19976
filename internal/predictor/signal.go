package predictor

import (
	"time"

	"github.com/Rajchodisetti/oracle-core/internal/vposition"
)

// Signal is the predictor's per-bar emission: the decoded action plus
// the state the policy conditioned on.
type Signal struct {
	Symbol     string
	Action     vposition.Action
	Direction  int
	Intensity  int
	HMMState   int
	VirtualPnL float64
	ClosePrice float64
	Timestamp  time.Time
}
