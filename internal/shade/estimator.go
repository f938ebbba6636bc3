package shade

import "github.com/jkaflik/shade2mqtt/internal/clock"

const DefaultTravelTime clock.Millis = 10 * 1000

func Clamp(position float64) float64 {
	if position > FullOpenPosition {
		return FullOpenPosition
	}
	if position < FullClosePosition {
		return FullClosePosition
	}
	return position
}

// Advance moves position along direction for elapsed milliseconds at the
// nominal rate of a full traversal in openTime or closeTime.
func Advance(position float64, direction Direction, elapsed, openTime, closeTime clock.Millis) float64 {
	switch direction {
	case Opening:
		position += float64(elapsed) * FullScale / float64(openTime)
	case Closing:
		position -= float64(elapsed) * FullScale / float64(closeTime)
	}
	return Clamp(position)
}

// Estimator integrates motion time into a position.
type Estimator struct {
	Position  float64
	OpenTime  clock.Millis
	CloseTime clock.Millis
}

func NewEstimator(openTime, closeTime clock.Millis) Estimator {
	if openTime == 0 {
		openTime = DefaultTravelTime
	}
	if closeTime == 0 {
		closeTime = DefaultTravelTime
	}
	return Estimator{Position: FullOpenPosition, OpenTime: openTime, CloseTime: closeTime}
}

func (e *Estimator) Advance(direction Direction, elapsed clock.Millis) float64 {
	e.Position = Advance(e.Position, direction, elapsed, e.OpenTime, e.CloseTime)
	return e.Position
}

// TravelTime is how long a full traversal in direction takes.
func (e *Estimator) TravelTime(direction Direction) clock.Millis {
	if direction == Closing {
		return e.CloseTime
	}
	return e.OpenTime
}
