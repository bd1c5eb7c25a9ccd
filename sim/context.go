package sim

import "math/rand"

const randomStringAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Context is the capability a handler holds on the simulation: its own id,
// a back-channel to the event queue, and a private RNG cursor.
type Context struct {
	sim *Simulation
	id  ID
	rng *rand.Rand
}

// ID returns the context's handle.
func (c *Context) ID() ID { return c.id }

// Time returns the current simulation time.
func (c *Context) Time() float64 { return c.sim.Time() }

// Emit schedules data for delivery to dst after delay.
func (c *Context) Emit(data any, dst ID, delay float64) {
	c.sim.emit(data, c.id, dst, delay)
}

// EmitSelf schedules a self-addressed event, typically a timer.
func (c *Context) EmitSelf(data any, delay float64) {
	c.sim.emit(data, c.id, c.id, delay)
}

// Float64 draws from [0, 1).
func (c *Context) Float64() float64 { return c.rng.Float64() }

// NormFloat64 draws a standard normal sample.
func (c *Context) NormFloat64() float64 { return c.rng.NormFloat64() }

// IntN draws from [0, n).
func (c *Context) IntN(n int) int { return c.rng.Intn(n) }

// Uint64 draws a uniform 64-bit value.
func (c *Context) Uint64() uint64 { return c.rng.Uint64() }

// RandomString draws n alphanumeric characters.
func (c *Context) RandomString(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = randomStringAlphabet[c.rng.Intn(len(randomStringAlphabet))]
	}
	return string(buf)
}

// RNG exposes the raw stream for callers that sample distributions.
func (c *Context) RNG() *rand.Rand { return c.rng }
