package dht

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/sim"
)

// checkInvariants verifies the state-machine invariants: the three peer
// collections are disjoint, their union is the membership set, waiting is
// bounded by alpha, and the sorted lists hold their ordering.
func checkInvariants(t *testing.T, q *FindNodeQuery) {
	t.Helper()

	seen := make(map[sim.ID]string)
	for _, id := range q.responded {
		seen[id] = "responded"
	}
	for _, id := range q.waiting {
		require.NotContains(t, seen, id, "waiting overlaps %s", seen[id])
		seen[id] = "waiting"
	}
	for _, id := range q.next {
		require.NotContains(t, seen, id, "next overlaps %s", seen[id])
		seen[id] = "next"
	}
	require.Equal(t, len(seen), len(q.all), "all must be the union of the three sets")
	for id := range seen {
		require.Contains(t, q.all, id)
	}

	require.LessOrEqual(t, len(q.waiting), q.ks.Alpha())

	for i := 1; i < len(q.responded); i++ {
		require.True(t, q.invDistance(q.responded[i-1]).Less(q.invDistance(q.responded[i])),
			"responded must be strictly ordered with the closest at the tail")
	}
	for i := 1; i < len(q.next); i++ {
		require.True(t, q.invDistance(q.next[i-1]).Less(q.invDistance(q.next[i])),
			"next must be strictly ordered with the closest at the tail")
	}
}

func TestFindNodeQuery_InitialState(t *testing.T) {
	ks := kad.NewKeyspace(100, 4, 2)
	target := kad.KeyFromSHA256([]byte("target"))

	q, request := NewFindNodeQuery(ks, 7, ManualTrigger(), target, 0)
	assert.Equal(t, QueryID(7), request.QueryID)
	assert.True(t, request.Key.Equal(target))
	assert.Equal(t, []sim.ID{0}, q.waiting)
	assert.Empty(t, q.responded)
	assert.Empty(t, q.next)
	assert.Contains(t, q.all, sim.ID(0))
	checkInvariants(t, q)
}

func TestFindNodeQuery_IgnoresForeignAndDuplicateResponses(t *testing.T) {
	ks := kad.NewKeyspace(100, 4, 2)
	target := kad.KeyFromSHA256([]byte("target"))
	q, _ := NewFindNodeQuery(ks, 1, ManualTrigger(), target, 0)

	// peer 5 was never asked
	outcome := q.OnResponse(5, 1, []sim.ID{6, 7})
	assert.False(t, outcome.Completed)
	assert.Empty(t, outcome.Requests)
	assert.Empty(t, q.responded)

	// the self response moves the query forward
	outcome = q.OnResponse(0, 1, []sim.ID{1, 2, 3})
	assert.False(t, outcome.Completed)
	assert.Len(t, outcome.Requests, 2, "alpha slots refill from next")
	checkInvariants(t, q)

	// a second response from the same peer is a no-op
	outcome = q.OnResponse(0, 1, []sim.ID{4})
	assert.False(t, outcome.Completed)
	assert.Empty(t, outcome.Requests)
	checkInvariants(t, q)
}

func TestFindNodeQuery_DuplicateCandidatesIgnored(t *testing.T) {
	ks := kad.NewKeyspace(100, 4, 2)
	target := kad.KeyFromSHA256([]byte("target"))
	q, _ := NewFindNodeQuery(ks, 1, ManualTrigger(), target, 0)

	q.OnResponse(0, 1, []sim.ID{1, 1, 2, 2, 2})
	assert.Len(t, q.next, 0, "both candidates moved to waiting")
	assert.Len(t, q.waiting, 2)
	checkInvariants(t, q)
}

func TestFindNodeQuery_ExhaustionTerminatesWithAllResponded(t *testing.T) {
	ks := kad.NewKeyspace(100, 20, 3)
	target := kad.KeyFromSHA256([]byte("target"))
	q, _ := NewFindNodeQuery(ks, 1, ManualTrigger(), target, 0)

	outcome := q.OnResponse(0, 1, []sim.ID{1, 2, 3})
	require.False(t, outcome.Completed)
	require.Len(t, outcome.Requests, 3)

	var final FindNodeOutcome
	for _, r := range outcome.Requests {
		final = q.OnResponse(r.Dst, 1, nil)
		checkInvariants(t, q)
	}
	require.True(t, final.Completed, "no candidates left means termination")
	assert.Len(t, final.ClosestPeers, 4, "self plus the three responders")
}

// TestFindNodeQuery_ConvergesToOracle drives the state machine against a
// perfect network: every queried peer answers with the oracle's closest 2K
// peers. The lookup must terminate by top-K stability and return exactly
// the true closest K.
func TestFindNodeQuery_ConvergesToOracle(t *testing.T) {
	const n = 500
	ks := kad.NewKeyspace(n, 20, 3)

	for _, seed := range []string{"a", "b", "c"} {
		target := kad.KeyFromSHA256([]byte(seed))
		q, _ := NewFindNodeQuery(ks, 1, ManualTrigger(), target, 0)

		pending := []sim.ID{0}
		var result []sim.ID
		for len(pending) > 0 {
			src := pending[0]
			pending = pending[1:]
			answer := ks.ClosestPeers(target, 2*ks.K())
			outcome := q.OnResponse(src, 1, answer)
			checkInvariants(t, q)
			if outcome.Completed {
				result = outcome.ClosestPeers
				break
			}
			for _, r := range outcome.Requests {
				pending = append(pending, r.Dst)
			}
		}

		require.Len(t, result, ks.K())
		want := ks.ClosestPeers(target, ks.K())
		sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		assert.Equal(t, want, result, "lookup must converge to the oracle answer")
	}
}

func TestFindNodeQuery_TriggerAccessors(t *testing.T) {
	ks := kad.NewKeyspace(10, 4, 2)
	target := kad.KeyFromSHA256([]byte("t"))

	q, _ := NewFindNodeQuery(ks, 1, GetValueTrigger(9), target, 0)
	assert.Equal(t, TriggerGetValue, q.Trigger().Kind)
	assert.Equal(t, QueryID(9), q.Trigger().Parent)
	assert.True(t, q.TargetKey().Equal(target))
}
