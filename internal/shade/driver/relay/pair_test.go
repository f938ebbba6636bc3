package relay

import (
	"errors"
	"testing"

	"github.com/jkaflik/shade2mqtt/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPair(t *testing.T) (*Pair, *[]string) {
	p, writes, _ := newTestPairLines(t)
	return p, writes
}

func newTestPairLines(t *testing.T) (*Pair, *[]string, [2]*recordingLine) {
	writes := []string{}
	lines := [2]*recordingLine{{name: "dir", writes: &writes}, {name: "en", writes: &writes}}
	direction, err := NewOutput("direction", lines[0], false)
	require.NoError(t, err)
	enable, err := NewOutput("enable", lines[1], false)
	require.NoError(t, err)
	writes = writes[:0]

	return NewPair(direction, enable, DefaultSettle), &writes, lines
}

func TestPairProgram(t *testing.T) {
	t.Run("enabling with a direction change defers enable", func(t *testing.T) {
		p, writes := newTestPair(t)

		p.Program(0, true, true)
		p.Update(0)
		assert.Equal(t, []string{"dir=high"}, *writes)
		assert.False(t, p.Enable())

		p.Update(DefaultSettle - 1)
		assert.Equal(t, []string{"dir=high"}, *writes)

		p.Update(DefaultSettle)
		assert.Equal(t, []string{"dir=high", "en=high"}, *writes)
	})

	t.Run("disabling with a direction change defers direction", func(t *testing.T) {
		p, writes := newTestPair(t)
		p.Program(0, true, true)
		p.Update(100)
		*writes = (*writes)[:0]

		p.Program(200, false, false)
		p.Update(200)
		assert.Equal(t, []string{"en=low"}, *writes)
		assert.True(t, p.Direction())

		p.Update(200 + DefaultSettle)
		assert.Equal(t, []string{"en=low", "dir=low"}, *writes)
	})

	t.Run("single line change is immediate", func(t *testing.T) {
		p, writes := newTestPair(t)

		p.Program(0, false, true)
		assert.Equal(t, []string{"en=high"}, *writes)
		assert.True(t, p.Enable())

		p.Program(50, false, false)
		assert.Equal(t, []string{"en=high", "en=low"}, *writes)
	})

	t.Run("reversal under power drops enable around the direction flip", func(t *testing.T) {
		p, writes := newTestPair(t)
		p.Program(0, false, true)
		*writes = (*writes)[:0]

		p.Program(100, true, true)
		p.Update(100)
		assert.Equal(t, []string{"en=low"}, *writes)

		p.Update(100 + DefaultSettle)
		assert.Equal(t, []string{"en=low", "dir=high"}, *writes)

		p.Update(100 + 2*DefaultSettle - 1)
		assert.Equal(t, []string{"en=low", "dir=high"}, *writes)

		p.Update(100 + 2*DefaultSettle)
		assert.Equal(t, []string{"en=low", "dir=high", "en=high"}, *writes)
	})

	t.Run("identical program is a no-op, even with a write still pending", func(t *testing.T) {
		p, writes := newTestPair(t)

		p.Program(0, true, true)
		p.Program(2, true, true)
		p.Program(4, true, true)
		assert.Equal(t, []string{"dir=high"}, *writes)

		p.Update(DefaultSettle)
		assert.Equal(t, []string{"dir=high", "en=high"}, *writes)

		p.Program(20, true, true)
		p.Update(40)
		assert.Equal(t, []string{"dir=high", "en=high"}, *writes)
	})

	t.Run("new program replaces an unfinished one", func(t *testing.T) {
		p, writes := newTestPair(t)

		p.Program(0, true, true)
		p.Program(3, false, false)
		for now := clock.Millis(3); now < 50; now++ {
			p.Update(now)
		}

		assert.Equal(t, []string{"dir=high", "dir=low"}, *writes)
		assert.False(t, p.Enable())
		assert.False(t, p.Direction())
	})

	t.Run("direction is never flipped while enable is high", func(t *testing.T) {
		p, _ := newTestPair(t)
		programs := []struct {
			at             clock.Millis
			direction, ena bool
		}{
			{0, true, true},
			{30, false, true},
			{31, true, true},
			{60, false, false},
			{64, true, true},
			{100, false, true},
		}

		prevDirection := p.Direction()
		next := 0
		for now := clock.Millis(0); now < 200; now++ {
			if next < len(programs) && programs[next].at == now {
				p.Program(now, programs[next].direction, programs[next].ena)
				next++
			}
			p.Update(now)
			if p.Direction() != prevDirection {
				assert.False(t, p.Enable(), "direction flipped under power at %d", now)
				prevDirection = p.Direction()
			}
		}

		assert.False(t, p.Direction())
		assert.True(t, p.Enable())
	})

	t.Run("restart right after a stop waits for the settle time", func(t *testing.T) {
		p, writes := newTestPair(t)

		p.Program(0, true, true)
		p.Update(DefaultSettle)
		p.Program(20, false, false)
		p.Program(23, false, true)
		assert.Equal(t, []string{"dir=high", "en=high", "en=low"}, *writes)

		p.Update(20 + DefaultSettle - 1)
		assert.True(t, p.Direction(), "direction held until enable has been low for the settle time")

		p.Update(20 + DefaultSettle)
		assert.False(t, p.Direction())
		assert.False(t, p.Enable())

		p.Update(20 + 2*DefaultSettle)
		assert.Equal(t, []string{"dir=high", "en=high", "en=low", "dir=low", "en=high"}, *writes)
		assert.True(t, p.Settled())
	})
}

func TestPairRetriesFailedWrites(t *testing.T) {
	t.Run("failed release keeps direction and is retried", func(t *testing.T) {
		p, writes, lines := newTestPairLines(t)
		p.Program(0, true, true)
		p.Update(DefaultSettle)
		*writes = (*writes)[:0]

		lines[1].fail = errors.New("i2c")
		p.Program(100, false, false)
		for now := clock.Millis(100); now < 150; now++ {
			p.Update(now)
		}
		assert.Empty(t, *writes)
		assert.True(t, p.Enable())
		assert.True(t, p.Direction(), "direction never flips while enable is high")
		assert.False(t, p.Settled())

		lines[1].fail = nil
		p.Update(150)
		assert.Equal(t, []string{"en=low"}, *writes)

		p.Update(150 + DefaultSettle)
		assert.Equal(t, []string{"en=low", "dir=low"}, *writes)
		assert.True(t, p.Settled())
	})

	t.Run("failed direction write holds enable back", func(t *testing.T) {
		p, writes, lines := newTestPairLines(t)

		lines[0].fail = errors.New("i2c")
		p.Program(0, true, true)
		p.Update(50)
		assert.Empty(t, *writes)
		assert.False(t, p.Enable())

		lines[0].fail = nil
		p.Update(60)
		p.Update(60 + DefaultSettle - 1)
		assert.Equal(t, []string{"dir=high"}, *writes)

		p.Update(60 + DefaultSettle)
		assert.Equal(t, []string{"dir=high", "en=high"}, *writes)
	})
}
