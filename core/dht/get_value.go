package dht

import (
	"github.com/nmxmxh/kadsim/core/kad"
	"github.com/nmxmxh/kadsim/sim"
)

// OutgoingPut is a caching PutValueRequest the query wants sent.
type OutgoingPut struct {
	Dst     sim.ID
	Request PutValueRequest
}

// GetValueOutcome is the result of absorbing one GetValueResponse. On
// completion the record is set and CachingPuts lists the opportunistic
// PUTs to the peers that answered "not found" along the way.
type GetValueOutcome struct {
	Completed   bool
	Record      *Record
	CachingPuts []OutgoingPut
}

// GetValueQuery collects GetValueResponses for one key. Peers that answer
// without the record are remembered as caching candidates, capped at the
// configured maximum; when the record is finally located it is pushed to
// all of them so the region around the key fills in.
type GetValueQuery struct {
	key        kad.Key
	caching    []sim.ID
	cachingMax int
}

// NewGetValueQuery creates a query for key.
func NewGetValueQuery(key kad.Key, cachingMax int) *GetValueQuery {
	return &GetValueQuery{key: key, cachingMax: cachingMax}
}

// Key returns the key being fetched.
func (q *GetValueQuery) Key() kad.Key { return q.key }

// Caching exposes the current caching candidates.
func (q *GetValueQuery) Caching() []sim.ID { return q.caching }

// OnResponse absorbs one response. A nil record keeps the query in
// progress and records the responder as a caching candidate; the first
// non-nil record completes the query.
func (q *GetValueQuery) OnResponse(peer sim.ID, record *Record) GetValueOutcome {
	if record == nil {
		if len(q.caching) < q.cachingMax {
			q.caching = append(q.caching, peer)
		}
		return GetValueOutcome{}
	}
	puts := make([]OutgoingPut, 0, len(q.caching))
	for _, dst := range q.caching {
		puts = append(puts, OutgoingPut{
			Dst:     dst,
			Request: PutValueRequest{Key: q.key, Record: record},
		})
	}
	return GetValueOutcome{
		Completed:   true,
		Record:      record,
		CachingPuts: puts,
	}
}
