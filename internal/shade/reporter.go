package shade

import (
	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/sirupsen/logrus"
)

const (
	DefaultReportInterval clock.Millis = 500
	DefaultQuickRecheck   clock.Millis = 100
)

// Sink receives the values automation clients observe.
type Sink interface {
	PublishPosition(position float64)
	// PublishTarget mirrors the position into the target value after manual motion.
	PublishTarget(position float64)
	PublishPhase(phase Phase, settled Settled)
}

// Sinks fans every publish out to all of its members.
type Sinks []Sink

func (s Sinks) PublishPosition(position float64) {
	for _, sink := range s {
		sink.PublishPosition(position)
	}
}

func (s Sinks) PublishTarget(position float64) {
	for _, sink := range s {
		sink.PublishTarget(position)
	}
}

func (s Sinks) PublishPhase(phase Phase, settled Settled) {
	for _, sink := range s {
		sink.PublishPhase(phase, settled)
	}
}

// Status is a snapshot of what the controller reports.
type Status struct {
	Position float64
	Phase    Phase
	Settled  Settled
	// Manual is set when the last state change came from a physical source.
	Manual bool
}

// Reporter rate limits publishes to a single pending deadline.
type Reporter struct {
	sink     Sink
	interval clock.Millis
	quick    clock.Millis

	armed    bool
	deadline clock.Millis

	positionSent bool
	position     float64
	targetSent   bool
	target       float64
	phaseSent    bool
	phase        Phase
	settled      Settled
}

func NewReporter(sink Sink, interval, quick clock.Millis) *Reporter {
	if interval == 0 {
		interval = DefaultReportInterval
	}
	if quick == 0 {
		quick = DefaultQuickRecheck
	}
	return &Reporter{sink: sink, interval: interval, quick: quick}
}

// Arm schedules a publish one interval from now unless one is already pending.
func (r *Reporter) Arm(now clock.Millis) {
	if r.armed {
		return
	}
	r.armed = true
	r.deadline = now + r.interval
}

// Expedite pulls the pending publish in to the quick recheck delay.
func (r *Reporter) Expedite(now clock.Millis) {
	deadline := now + r.quick
	if !r.armed || deadline < r.deadline {
		r.armed = true
		r.deadline = deadline
	}
}

func (r *Reporter) Deadline() (clock.Millis, bool) {
	return r.deadline, r.armed
}

// Tick publishes st if the deadline passed and reports whether it did.
func (r *Reporter) Tick(now clock.Millis, st Status) bool {
	if !r.armed || now < r.deadline {
		return false
	}

	r.armed = false
	r.Publish(st)
	return true
}

// Publish sends whatever changed since the last publish.
func (r *Reporter) Publish(st Status) {
	if !r.positionSent || r.position != st.Position {
		logrus.Debugf("report position %.1f", st.Position)
		r.sink.PublishPosition(st.Position)
		r.position = st.Position
		r.positionSent = true
	}

	if st.Manual && (!r.targetSent || r.target != st.Position) {
		r.sink.PublishTarget(st.Position)
		r.target = st.Position
		r.targetSent = true
	}

	if !r.phaseSent || r.phase != st.Phase || r.settled != st.Settled {
		logrus.Debugf("report phase %s (%s)", st.Phase, st.Settled)
		r.sink.PublishPhase(st.Phase, st.Settled)
		r.phase = st.Phase
		r.settled = st.Settled
		r.phaseSent = true
	}
}

// Forget makes the next publish send every value again, e.g. after a reconnect.
func (r *Reporter) Forget() {
	r.positionSent = false
	r.targetSent = false
	r.phaseSent = false
}
