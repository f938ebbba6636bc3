package clock

import (
	"math"
	"sync"
	"time"
)

// Millis is a non-wrapping monotonic millisecond timestamp.
type Millis uint64

// Duration converts a time.Duration into milliseconds, truncating.
func Duration(d time.Duration) Millis {
	if d <= 0 {
		return 0
	}
	return Millis(d / time.Millisecond)
}

func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

type Source interface {
	Now() Millis
}

// Extender turns a wrapping 32-bit millisecond counter into a 64-bit one.
// It has to be sampled at least once per wrap period (~49.7 days).
type Extender struct {
	read func() uint32

	l    sync.Mutex
	low  uint32
	high uint32
}

func NewExtender(read func() uint32) *Extender {
	return &Extender{read: read}
}

func (e *Extender) Now() Millis {
	e.l.Lock()
	defer e.l.Unlock()

	low := e.read()
	if low < e.low {
		e.high++
	}
	e.low = low

	return Millis(uint64(e.high)<<32 | uint64(low))
}

// System counts milliseconds since its creation on Go's monotonic clock.
type System struct {
	*Extender
}

func NewSystem() *System {
	start := time.Now()
	return &System{NewExtender(func() uint32 {
		return uint32(uint64(time.Since(start).Milliseconds()) & math.MaxUint32)
	})}
}

// Manual is a Source moved by hand, for tests and simulations.
type Manual struct {
	l   sync.Mutex
	now Millis
}

func NewManual(start Millis) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() Millis {
	m.l.Lock()
	defer m.l.Unlock()
	return m.now
}

func (m *Manual) Set(now Millis) {
	m.l.Lock()
	m.now = now
	m.l.Unlock()
}

func (m *Manual) Advance(d Millis) Millis {
	m.l.Lock()
	defer m.l.Unlock()
	m.now += d
	return m.now
}
