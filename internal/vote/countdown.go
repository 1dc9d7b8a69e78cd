package vote

type CountdownState int

const (
	CountdownIdle CountdownState = iota
	CountdownRunning
	CountdownExpired
	CountdownCancelled
)

func (s CountdownState) String() string {
	switch s {
	case CountdownIdle:
		return "idle"
	case CountdownRunning:
		return "running"
	case CountdownExpired:
		return "expired"
	case CountdownCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Countdown is a one-second repeating timer advanced by explicit Tick calls
// from the host loop. It never sleeps and never spawns goroutines.
type Countdown struct {
	state     CountdownState
	remaining int
	onTick    func(remaining int)
	onExpire  func()
}

// Start arms the countdown for the given number of ticks. A countdown that is
// still running is cancelled first, so at most one is ever live.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.Cancel()

	c.state = CountdownRunning
	c.remaining = seconds
	c.onTick = onTick
	c.onExpire = onExpire
}

// Tick reports the current remaining value to onTick, then decrements it.
// Reaching zero moves the countdown to expired before onExpire runs.
func (c *Countdown) Tick() {
	if c.state != CountdownRunning {
		return
	}

	if c.remaining > 0 {
		if c.onTick != nil {
			c.onTick(c.remaining)
		}
		// onTick may have cancelled us
		if c.state != CountdownRunning {
			return
		}
		c.remaining--
	}

	if c.remaining <= 0 {
		onExpire := c.onExpire
		c.release(CountdownExpired)
		if onExpire != nil {
			onExpire()
		}
	}
}

// Cancel stops a running countdown. onExpire is guaranteed not to fire
// afterwards. Cancelling an idle, expired or cancelled countdown does nothing.
func (c *Countdown) Cancel() {
	if c.state != CountdownRunning {
		return
	}
	c.release(CountdownCancelled)
}

func (c *Countdown) release(final CountdownState) {
	c.state = final
	c.remaining = -1
	c.onTick = nil
	c.onExpire = nil
}

func (c *Countdown) State() CountdownState {
	return c.state
}

func (c *Countdown) Running() bool {
	return c.state == CountdownRunning
}

// Remaining returns the ticks left, or -1 when the countdown is not running.
func (c *Countdown) Remaining() int {
	if c.state != CountdownRunning {
		return -1
	}
	return c.remaining
}
