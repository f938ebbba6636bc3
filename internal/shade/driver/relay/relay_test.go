package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingLine keeps every physical write, in order.
type recordingLine struct {
	name   string
	writes *[]string
	fail   error
}

func (l *recordingLine) High() error {
	if l.fail != nil {
		return l.fail
	}
	*l.writes = append(*l.writes, l.name+"=high")
	return nil
}

func (l *recordingLine) Low() error {
	if l.fail != nil {
		return l.fail
	}
	*l.writes = append(*l.writes, l.name+"=low")
	return nil
}

func TestNewOutputReleasesLine(t *testing.T) {
	var writes []string

	t.Run("active high starts low", func(t *testing.T) {
		writes = nil
		o, err := NewOutput("enable", &recordingLine{name: "en", writes: &writes}, false)
		require.NoError(t, err)
		assert.False(t, o.Level())
		assert.Equal(t, []string{"en=low"}, writes)
	})

	t.Run("active low starts high", func(t *testing.T) {
		writes = nil
		_, err := NewOutput("enable", &recordingLine{name: "en", writes: &writes}, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"en=high"}, writes)
	})

	t.Run("failing line is reported", func(t *testing.T) {
		_, err := NewOutput("enable", &recordingLine{name: "en", writes: &writes, fail: errors.New("i2c")}, false)
		assert.Error(t, err)
	})
}

func TestOutputSet(t *testing.T) {
	var writes []string
	line := &recordingLine{name: "dir", writes: &writes}
	o, err := NewOutput("direction", line, false)
	require.NoError(t, err)
	writes = nil

	t.Run("same level is not written again", func(t *testing.T) {
		require.NoError(t, o.Set(false))
		assert.Empty(t, writes)
	})

	t.Run("new level is written", func(t *testing.T) {
		require.NoError(t, o.Set(true))
		assert.Equal(t, []string{"dir=high"}, writes)
		assert.True(t, o.Level())
	})

	t.Run("failed write keeps the previous level", func(t *testing.T) {
		line.fail = errors.New("bus error")
		assert.Error(t, o.Set(false))
		assert.Error(t, o.Set(false))
		assert.True(t, o.Level())

		line.fail = nil
		require.NoError(t, o.Set(false))
		assert.False(t, o.Level())
	})
}

func TestDumb(t *testing.T) {
	r := &Dumb{Name: "enable"}
	assert.NoError(t, r.High())
	assert.True(t, r.IsHigh())
	assert.NoError(t, r.Low())
	assert.False(t, r.IsHigh())
}
