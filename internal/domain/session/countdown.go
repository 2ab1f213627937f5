package session

// Countdown tracks one timed drawing window. Every Start or Invalidate bumps
// the epoch, so ticks stamped with an older epoch are recognised as stale.
type Countdown struct {
	epoch   uint64
	start   float64
	total   float64
	running bool
}

// Start begins a new window at now and returns its epoch.
func (c *Countdown) Start(now, total float64) uint64 {
	c.epoch++
	c.start = now
	c.total = total
	c.running = true
	return c.epoch
}

// Stop halts the current window without changing the epoch.
func (c *Countdown) Stop() { c.running = false }

// Invalidate halts the current window and orphans any pending ticks.
func (c *Countdown) Invalidate() {
	c.epoch++
	c.running = false
}

// Epoch returns the current epoch.
func (c *Countdown) Epoch() uint64 { return c.epoch }

// Running reports whether a window is active.
func (c *Countdown) Running() bool { return c.running }

// Current reports whether a tick stamped with epoch belongs to the active window.
func (c *Countdown) Current(epoch uint64) bool {
	return c.running && epoch == c.epoch
}

// Remaining returns the time left at now, clamped at zero.
func (c *Countdown) Remaining(now float64) float64 {
	left := c.total - (now - c.start)
	if left < 0 {
		return 0
	}
	if left > c.total {
		return c.total
	}
	return left
}
