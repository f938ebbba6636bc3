package indicator

import (
	"sync/atomic"
)

// Connectivity tracks broker readiness. It is written from MQTT client
// callbacks and read by the controller goroutine.
type Connectivity struct {
	ready         atomic.Bool
	hadConnection atomic.Bool
}

func (c *Connectivity) Connected() {
	c.ready.Store(true)
	c.hadConnection.Store(true)
}

func (c *Connectivity) Lost() {
	c.ready.Store(false)
}

func (c *Connectivity) Ready() bool {
	return c.ready.Load()
}

// HadConnection reports whether the broker was reached at least once.
func (c *Connectivity) HadConnection() bool {
	return c.hadConnection.Load()
}
