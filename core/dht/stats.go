package dht

import (
	"fmt"
	"strings"

	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/sim"
)

// QueriesStats counts query outcomes on one peer and accumulates the
// correctness score of completed lookups against the oracle. Per-peer
// stats merge into the run aggregate.
type QueriesStats struct {
	FindNodeQueriesStarted   int
	FindNodeQueriesCompleted int
	FindNodeQueriesFailed    int

	ClosestPeersTotal   int
	ClosestPeersCorrect int

	GetValueQueriesStarted   int
	GetValueQueriesCompleted int
	GetValueQueriesFailed    int

	PutValueQueriesStarted   int
	PutValueQueriesCompleted int
	PutValueQueriesFailed    int

	RetrieveDataQueriesStarted   int
	RetrieveDataQueriesCompleted int
	RetrieveDataQueriesFailed    int

	PingRequestsCount  int
	PingResponsesCount int
}

// Evaluate scores one completed lookup against the oracle.
func (s *QueriesStats) Evaluate(ks *kad.Keyspace, targetKey kad.Key, peers []sim.ID) {
	s.ClosestPeersTotal += len(peers)
	s.ClosestPeersCorrect += ks.EvaluateClosestPeers(targetKey, peers)
}

// Correctness returns the fraction of returned peers that belong to the
// true closest set, or 1 when nothing was returned.
func (s *QueriesStats) Correctness() float64 {
	if s.ClosestPeersTotal == 0 {
		return 1
	}
	return float64(s.ClosestPeersCorrect) / float64(s.ClosestPeersTotal)
}

// Merge adds other's counters into s.
func (s *QueriesStats) Merge(other *QueriesStats) {
	s.FindNodeQueriesStarted += other.FindNodeQueriesStarted
	s.FindNodeQueriesCompleted += other.FindNodeQueriesCompleted
	s.FindNodeQueriesFailed += other.FindNodeQueriesFailed
	s.ClosestPeersTotal += other.ClosestPeersTotal
	s.ClosestPeersCorrect += other.ClosestPeersCorrect
	s.GetValueQueriesStarted += other.GetValueQueriesStarted
	s.GetValueQueriesCompleted += other.GetValueQueriesCompleted
	s.GetValueQueriesFailed += other.GetValueQueriesFailed
	s.PutValueQueriesStarted += other.PutValueQueriesStarted
	s.PutValueQueriesCompleted += other.PutValueQueriesCompleted
	s.PutValueQueriesFailed += other.PutValueQueriesFailed
	s.RetrieveDataQueriesStarted += other.RetrieveDataQueriesStarted
	s.RetrieveDataQueriesCompleted += other.RetrieveDataQueriesCompleted
	s.RetrieveDataQueriesFailed += other.RetrieveDataQueriesFailed
	s.PingRequestsCount += other.PingRequestsCount
	s.PingResponsesCount += other.PingResponsesCount
}

// String renders the counters in a stable, line-oriented form.
func (s *QueriesStats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "find_node_queries: started=%d completed=%d failed=%d\n",
		s.FindNodeQueriesStarted, s.FindNodeQueriesCompleted, s.FindNodeQueriesFailed)
	fmt.Fprintf(&b, "closest_peers: total=%d correct=%d correctness=%.4f\n",
		s.ClosestPeersTotal, s.ClosestPeersCorrect, s.Correctness())
	fmt.Fprintf(&b, "get_value_queries: started=%d completed=%d failed=%d\n",
		s.GetValueQueriesStarted, s.GetValueQueriesCompleted, s.GetValueQueriesFailed)
	fmt.Fprintf(&b, "put_value_queries: started=%d completed=%d failed=%d\n",
		s.PutValueQueriesStarted, s.PutValueQueriesCompleted, s.PutValueQueriesFailed)
	fmt.Fprintf(&b, "retrieve_data_queries: started=%d completed=%d failed=%d\n",
		s.RetrieveDataQueriesStarted, s.RetrieveDataQueriesCompleted, s.RetrieveDataQueriesFailed)
	fmt.Fprintf(&b, "ping: requests=%d responses=%d",
		s.PingRequestsCount, s.PingResponsesCount)
	return b.String()
}
