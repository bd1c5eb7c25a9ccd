package dht

import (
	"sort"

	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/sim"
)

// TriggerKind says why a FindNode query was started.
type TriggerKind uint8

// Trigger kinds.
const (
	TriggerManual TriggerKind = iota
	TriggerBootstrap
	TriggerGetValue
	TriggerPutValue
)

// Trigger links a FindNode query back to the orchestration that started
// it. Parent is the enclosing query's id for the GetValue and PutValue
// kinds.
type Trigger struct {
	Kind   TriggerKind
	Parent QueryID
}

// ManualTrigger marks a user-initiated lookup.
func ManualTrigger() Trigger { return Trigger{Kind: TriggerManual} }

// BootstrapTrigger marks a refresh-loop lookup.
func BootstrapTrigger() Trigger { return Trigger{Kind: TriggerBootstrap} }

// GetValueTrigger marks the inner lookup of a GetValue query.
func GetValueTrigger(parent QueryID) Trigger {
	return Trigger{Kind: TriggerGetValue, Parent: parent}
}

// PutValueTrigger marks the inner lookup of a PutValue query.
func PutValueTrigger(parent QueryID) Trigger {
	return Trigger{Kind: TriggerPutValue, Parent: parent}
}

// OutgoingRequest is a follow-up request the state machine wants sent.
type OutgoingRequest struct {
	Dst     sim.ID
	Request FindNodeRequest
}

// FindNodeOutcome is the result of absorbing one response: either the
// query completed with its closest peers, or it stays in progress and the
// listed requests must go out.
type FindNodeOutcome struct {
	Completed    bool
	TargetKey    kad.Key
	ClosestPeers []sim.ID
	Requests     []OutgoingRequest
}

// FindNodeQuery is the α-parallel iterative lookup state machine. It keeps
// three disjoint peer collections: responded (answers received), waiting
// (requests outstanding, at most α), and next (known but uncontacted
// candidates). responded and next are ordered by the complement of the
// distance to the target, so the closest peer of each sits at the tail and
// "pop closest" is a tail pop. The all set is their union and suppresses
// duplicates.
type FindNodeQuery struct {
	ks        *kad.Keyspace
	trigger   Trigger
	targetKey kad.Key
	all       map[sim.ID]struct{}
	responded []sim.ID
	waiting   []sim.ID
	next      []sim.ID
}

// NewFindNodeQuery creates the query and the request that bootstraps it.
// The initiating request is addressed to the peer itself: the self
// response seeds the candidate set from the local routing table.
func NewFindNodeQuery(ks *kad.Keyspace, queryID QueryID, trigger Trigger, targetKey kad.Key, self sim.ID) (*FindNodeQuery, FindNodeRequest) {
	q := &FindNodeQuery{
		ks:        ks,
		trigger:   trigger,
		targetKey: targetKey,
		all:       map[sim.ID]struct{}{self: {}},
		waiting:   append(make([]sim.ID, 0, ks.Alpha()), self),
	}
	return q, FindNodeRequest{QueryID: queryID, Key: targetKey}
}

// Trigger returns why the query was started.
func (q *FindNodeQuery) Trigger() Trigger { return q.trigger }

// TargetKey returns the key being looked up.
func (q *FindNodeQuery) TargetKey() kad.Key { return q.targetKey }

// OnResponse absorbs one FindNodeResponse. A response from a peer that is
// not waiting is ignored. New candidates join next; the query terminates
// once the K closest responded peers are all strictly closer than the
// closest candidate still to query, or, while fewer than K peers have
// responded, when nothing is left to wait for or to query. With K or more
// responded peers and no candidate left, the query does not complete.
func (q *FindNodeQuery) OnResponse(src sim.ID, queryID QueryID, closestPeers []sim.ID) FindNodeOutcome {
	idx := -1
	for i, id := range q.waiting {
		if id == src {
			idx = i
			break
		}
	}
	if idx < 0 {
		return FindNodeOutcome{TargetKey: q.targetKey}
	}
	q.waiting[idx] = q.waiting[len(q.waiting)-1]
	q.waiting = q.waiting[:len(q.waiting)-1]

	q.responded = q.insertSorted(q.responded, src)

	for _, candidate := range closestPeers {
		if _, seen := q.all[candidate]; seen {
			continue
		}
		q.all[candidate] = struct{}{}
		q.next = q.insertSorted(q.next, candidate)
	}

	if peers, done := q.checkIfCompleted(); done {
		return FindNodeOutcome{
			Completed:    true,
			TargetKey:    q.targetKey,
			ClosestPeers: peers,
		}
	}

	var requests []OutgoingRequest
	for len(q.waiting) < q.ks.Alpha() && len(q.next) > 0 {
		peer := q.next[len(q.next)-1]
		q.next = q.next[:len(q.next)-1]
		q.waiting = append(q.waiting, peer)
		requests = append(requests, OutgoingRequest{
			Dst:     peer,
			Request: FindNodeRequest{QueryID: queryID, Key: q.targetKey},
		})
	}
	return FindNodeOutcome{TargetKey: q.targetKey, Requests: requests}
}

// checkIfCompleted applies the stable-top-K termination rule.
func (q *FindNodeQuery) checkIfCompleted() ([]sim.ID, bool) {
	if len(q.responded) >= q.ks.K() {
		if len(q.next) > 0 {
			tail := q.next[len(q.next)-1]
			i := len(q.responded) - q.ks.K()
			if q.invDistance(tail).Less(q.invDistance(q.responded[i])) {
				peers := append([]sim.ID(nil), q.responded[i:]...)
				return peers, true
			}
		}
	} else if len(q.waiting) == 0 && len(q.next) == 0 {
		peers := append([]sim.ID(nil), q.responded...)
		return peers, true
	}
	return nil, false
}

// invDistance is the sort key: the bitwise complement of the distance to
// the target, so larger means closer.
func (q *FindNodeQuery) invDistance(id sim.ID) kad.Distance {
	return q.ks.PeerKey(id).Distance(q.targetKey).Not()
}

func (q *FindNodeQuery) insertSorted(list []sim.ID, id sim.ID) []sim.ID {
	key := q.invDistance(id)
	i := sort.Search(len(list), func(j int) bool {
		return key.Cmp(q.invDistance(list[j])) <= 0
	})
	list = append(list, 0)
	copy(list[i+1:], list[i:])
	list[i] = id
	return list
}
