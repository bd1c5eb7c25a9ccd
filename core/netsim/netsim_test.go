package netsim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/kadsim/sim"
)

func TestTopologies(t *testing.T) {
	full := FullTopology{}
	assert.True(t, full.CheckAccess(0, 99))

	ring := RingTopology{First: 0, Last: 49}
	assert.True(t, ring.CheckAccess(3, 4))
	assert.True(t, ring.CheckAccess(4, 3))
	assert.True(t, ring.CheckAccess(0, 49), "seam closes the ring")
	assert.True(t, ring.CheckAccess(49, 0))
	assert.False(t, ring.CheckAccess(3, 5))
	assert.False(t, ring.CheckAccess(1, 49))

	star := StarTopology{Center: 0}
	assert.True(t, star.CheckAccess(0, 7))
	assert.True(t, star.CheckAccess(7, 0))
	assert.False(t, star.CheckAccess(3, 7))
}

func TestDelayDistributions(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	assert.Equal(t, 1.5, ConstantDelay(1.5).Sample(rng))

	u := UniformDelay{Left: 0.5, Right: 2.0}
	for i := 0; i < 1000; i++ {
		v := u.Sample(rng)
		require.GreaterOrEqual(t, v, 0.5)
		require.LessOrEqual(t, v, 2.0)
	}

	n := PositiveNormalDelay{Mean: 0.01, StdDev: 1.0}
	clamped := false
	for i := 0; i < 1000; i++ {
		v := n.Sample(rng)
		require.GreaterOrEqual(t, v, 0.0, "normal samples are clamped at zero")
		if v == 0 {
			clamped = true
		}
	}
	assert.True(t, clamped, "with mean 0.01 and std 1.0 some samples must clamp")
}

func TestAgent(t *testing.T) {
	s := sim.New(9)
	ctx := s.CreateContext("probe")

	agent := FromTopologyAndDistribution(StarTopology{Center: 0}, ConstantDelay(0.25))

	delay, ok := agent.SampleMessageDelay(ctx, 1, 0)
	require.True(t, ok)
	assert.Equal(t, 0.25, delay)

	_, ok = agent.SampleMessageDelay(ctx, 1, 2)
	assert.False(t, ok, "pairs not touching the center are unreachable")

	delay, ok = agent.SampleMessageDelay(ctx, 7, 7)
	require.True(t, ok)
	assert.Equal(t, 0.0, delay, "self messages always deliver instantly")
}
