package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	got []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.got = append(r.got, ev)
}

type tick struct{ n int }

func TestSimulation_DispatchOrder(t *testing.T) {
	s := New(1)
	rec := &recorder{}
	ctx := s.CreateContext("a")
	s.AddHandler(ctx.ID(), rec)

	ctx.EmitSelf(tick{3}, 3.0)
	ctx.EmitSelf(tick{1}, 1.0)
	ctx.EmitSelf(tick{2}, 2.0)

	s.StepUntilNoEvents()

	require.Len(t, rec.got, 3)
	for i, ev := range rec.got {
		assert.Equal(t, i+1, ev.Data.(tick).n)
		assert.Equal(t, float64(i+1), ev.Time)
	}
	assert.Equal(t, 3.0, s.Time())
}

func TestSimulation_TieBreakByInsertion(t *testing.T) {
	s := New(1)
	rec := &recorder{}
	ctx := s.CreateContext("a")
	s.AddHandler(ctx.ID(), rec)

	for i := 0; i < 10; i++ {
		ctx.EmitSelf(tick{i}, 5.0)
	}
	s.StepUntilNoEvents()

	require.Len(t, rec.got, 10)
	for i, ev := range rec.got {
		assert.Equal(t, i, ev.Data.(tick).n, "simultaneous events must keep insertion order")
	}
}

func TestSimulation_StepUntilTime(t *testing.T) {
	s := New(1)
	rec := &recorder{}
	ctx := s.CreateContext("a")
	s.AddHandler(ctx.ID(), rec)

	ctx.EmitSelf(tick{0}, 1.0)
	ctx.EmitSelf(tick{1}, 2.5)
	ctx.EmitSelf(tick{2}, 7.0)

	s.StepUntilTime(3.0)
	assert.Len(t, rec.got, 2)
	assert.Equal(t, 3.0, s.Time(), "clock advances to the requested time")

	s.StepUntilNoEvents()
	assert.Len(t, rec.got, 3)
	assert.Equal(t, 7.0, s.Time())
}

func TestSimulation_DeterministicRNGStreams(t *testing.T) {
	draw := func() []int {
		s := New(42)
		a := s.CreateContext("a")
		b := s.CreateContext("b")
		out := make([]int, 0, 8)
		for i := 0; i < 4; i++ {
			out = append(out, a.IntN(1000), b.IntN(1000))
		}
		return out
	}
	assert.Equal(t, draw(), draw(), "same seed and creation order must give the same draws")
}

func TestSimulation_NegativeDelayPanics(t *testing.T) {
	s := New(1)
	ctx := s.CreateContext("a")
	s.AddHandler(ctx.ID(), &recorder{})
	assert.Panics(t, func() { ctx.EmitSelf(tick{0}, -0.1) })
}

func TestSimulation_StatsAccounting(t *testing.T) {
	s := New(1)
	ctx := s.CreateContext("a")
	s.AddHandler(ctx.ID(), &recorder{})

	ctx.EmitSelf(tick{0}, 1.0)
	ctx.EmitSelf(tick{1}, 2.0)
	s.Step()

	st := s.Stats()
	assert.Equal(t, uint64(2), st.Enqueued)
	assert.Equal(t, uint64(1), st.Dispatched)
	assert.Equal(t, 1, st.Pending)
}
