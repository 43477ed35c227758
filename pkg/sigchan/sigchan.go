package sigchan

// Chan is a non-blocking signal channel: it announces that something happened
// without carrying data. Emits while the buffer is full are coalesced.
type Chan struct {
	c chan struct{}
}

// New creates a signal channel with the given buffer size.
func New(bufferSize int) *Chan {
	return &Chan{
		c: make(chan struct{}, bufferSize),
	}
}

// Emit sends a signal without blocking.
func (c *Chan) Emit() {
	select {
	case c.c <- struct{}{}:
	default:
	}
}

// C returns the receive side for use in select.
func (c *Chan) C() <-chan struct{} {
	return c.c
}
