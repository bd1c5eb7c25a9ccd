package dht

import "github.com/nmxmxh/kadsim/core/kad"

// PutValueQuery holds the record to replicate while the inner FindNode
// locates the K closest peers to its key.
type PutValueQuery struct {
	key    kad.Key
	record *Record
}

// NewPutValueQuery creates a query for the given record.
func NewPutValueQuery(record *Record) *PutValueQuery {
	return &PutValueQuery{key: record.Key, record: record}
}

// Key returns the record's key.
func (q *PutValueQuery) Key() kad.Key { return q.key }

// Record returns the record being stored.
func (q *PutValueQuery) Record() *Record { return q.record }
