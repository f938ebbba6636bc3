package shade

import (
	"math/rand"
	"testing"

	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name      string
		position  float64
		direction Direction
		elapsed   clock.Millis
		want      float64
	}{
		{"no motion keeps position", 42, DirectionNone, 5000, 42},
		{"opening for a second", 50, Opening, 1000, 60},
		{"closing for half the travel", 100, Closing, 5000, 50},
		{"opening clamps at fully open", 95, Opening, 2000, FullOpenPosition},
		{"closing clamps at fully closed", 5, Closing, 2000, FullClosePosition},
		{"zero elapsed keeps position", 30, Closing, 0, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(tt.position, tt.direction, tt.elapsed, DefaultTravelTime, DefaultTravelTime)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAdvanceUsesDirectionalTravelTime(t *testing.T) {
	assert.InDelta(t, 60, Advance(50, Opening, 1000, 10000, 20000), 1e-9)
	assert.InDelta(t, 45, Advance(50, Closing, 1000, 10000, 20000), 1e-9)
}

func TestAdvanceStaysInRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	position := FullOpenPosition
	directions := []Direction{DirectionNone, Opening, Closing}

	for i := 0; i < 10000; i++ {
		position = Advance(position, directions[r.Intn(3)], clock.Millis(r.Intn(3000)), 7000, 13000)
		assert.GreaterOrEqual(t, position, FullClosePosition)
		assert.LessOrEqual(t, position, FullOpenPosition)
	}
}

func TestEstimator(t *testing.T) {
	e := NewEstimator(0, 20000)
	assert.Equal(t, FullOpenPosition, e.Position)
	assert.Equal(t, DefaultTravelTime, e.TravelTime(Opening))
	assert.Equal(t, clock.Millis(20000), e.TravelTime(Closing))

	assert.InDelta(t, 75, e.Advance(Closing, 5000), 1e-9)
	assert.InDelta(t, 75, e.Position, 1e-9)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, FullOpenPosition, Clamp(120))
	assert.Equal(t, FullClosePosition, Clamp(-3))
	assert.Equal(t, 33.3, Clamp(33.3))
	assert.Equal(t, Clamp(Clamp(250)), Clamp(250))
}
