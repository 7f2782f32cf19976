package barmodel

import "github.com/Rajchodisetti/oracle-core/internal/errs"

// DefaultCapacity is the default bounded window size, large enough to
// cover the widest indicator lookback used by the feature engine.
const DefaultCapacity = 350

// Buffer is a bounded FIFO of bars for a single symbol. Not safe for
// concurrent use — each symbol's buffer has exactly one writer.
type Buffer struct {
	capacity int
	bars     []Bar
	lastTime int64
	hasLast  bool
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity, bars: make([]Bar, 0, capacity)}
}

// Push appends a bar, evicting the oldest once capacity is reached. Bars
// must strictly increase in time; a non-increasing timestamp is rejected
// rather than silently reordered.
func (b *Buffer) Push(bar Bar) error {
	if b.hasLast && bar.Time <= b.lastTime {
		return errs.New(errs.OutOfOrderBar, "bar time not after last buffered bar")
	}
	if len(b.bars) == b.capacity {
		copy(b.bars, b.bars[1:])
		b.bars = b.bars[:len(b.bars)-1]
	}
	b.bars = append(b.bars, bar)
	b.lastTime = bar.Time
	b.hasLast = true
	return nil
}

func (b *Buffer) Len() int { return len(b.bars) }

// Ready reports whether the buffer holds a full window.
func (b *Buffer) Ready() bool { return len(b.bars) >= b.capacity }

// Snapshot returns the buffered bars oldest-first. The caller must not
// mutate the result.
func (b *Buffer) Snapshot() []Bar {
	return b.bars
}

// Closes projects the close-price column of the snapshot, a shape the
// feature engine's rolling windows operate over directly.
func (b *Buffer) Closes() []float64 {
	out := make([]float64, len(b.bars))
	for i, bar := range b.bars {
		out[i] = bar.Close
	}
	return out
}
