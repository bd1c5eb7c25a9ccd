package kad

import (
	"container/heap"
	"sort"

	"github.com/nmxmxh/kadsim/sim"
)

// BucketEntry is one routing-table slot: a peer and the time it was last
// seen. The tail of a bucket is the most recently seen entry.
type BucketEntry struct {
	PeerID   sim.ID
	LastSeen float64
}

// KBucketsTable is the per-peer XOR routing table. Bucket i holds peers
// whose distance from the local key has exactly i leading zeros; buckets
// are grown on demand and hold at most K entries each.
type KBucketsTable struct {
	ks         *Keyspace
	localKey   Key
	staleAfter float64
	buckets    [][]BucketEntry
}

// NewKBucketsTable creates an empty table. staleAfter is the freshness
// threshold: a full bucket evicts an entry only if that entry was last seen
// more than staleAfter ago.
func NewKBucketsTable(ks *Keyspace, localKey Key, staleAfter float64) *KBucketsTable {
	return &KBucketsTable{
		ks:         ks,
		localKey:   localKey,
		staleAfter: staleAfter,
	}
}

// LocalKey returns the key the table is centered on.
func (t *KBucketsTable) LocalKey() Key { return t.localKey }

// BucketsCount returns the number of allocated buckets.
func (t *KBucketsTable) BucketsCount() int { return len(t.buckets) }

// Bucket exposes a bucket's entries for inspection.
func (t *KBucketsTable) Bucket(i int) []BucketEntry { return t.buckets[i] }

// AddPeer acknowledges a peer at the given time. A peer already present is
// moved to the tail of its bucket; a peer new to a non-full bucket is
// appended; a full bucket replaces its most recently scanned stale entry,
// if any, and otherwise stays unchanged. The local peer is never inserted
// and is the only case that returns false.
func (t *KBucketsTable) AddPeer(peerID sim.ID, now float64) bool {
	key := t.ks.PeerKey(peerID)
	if key.Equal(t.localKey) {
		return false
	}
	pos := t.localKey.Distance(key).LeadingZeros()
	for len(t.buckets) <= pos {
		t.buckets = append(t.buckets, make([]BucketEntry, 0, t.ks.K()))
	}
	bucket := t.buckets[pos]
	entry := BucketEntry{PeerID: peerID, LastSeen: now}

	for i := range bucket {
		if bucket[i].PeerID == peerID {
			bucket = append(bucket[:i], bucket[i+1:]...)
			t.buckets[pos] = append(bucket, entry)
			return true
		}
	}
	if len(bucket) < t.ks.K() {
		t.buckets[pos] = append(bucket, entry)
		return true
	}
	stale := -1
	for i := range bucket {
		if now-bucket[i].LastSeen > t.staleAfter {
			stale = i
		}
	}
	if stale >= 0 {
		bucket = append(bucket[:stale], bucket[stale+1:]...)
		t.buckets[pos] = append(bucket, entry)
	}
	return true
}

// LocalClosestPeersPrecise scans every entry and returns up to count peers
// minimizing distance to key, via a bounded max-heap.
func (t *KBucketsTable) LocalClosestPeersPrecise(key Key, count int) []sim.ID {
	if count <= 0 {
		return nil
	}
	h := &distanceHeap{}
	for _, bucket := range t.buckets {
		for _, entry := range bucket {
			item := distanceItem{
				dist:   t.ks.PeerKey(entry.PeerID).Distance(key),
				peerID: entry.PeerID,
			}
			if h.Len() < count {
				heap.Push(h, item)
			} else if item.dist.Less((*h)[0].dist) {
				heap.Pop(h)
				heap.Push(h, item)
			}
		}
	}
	out := make([]sim.ID, h.Len())
	for i := range out {
		out[i] = (*h)[i].peerID
	}
	return out
}

// LocalClosestPeersApproximate is the production path answering FIND_NODE.
// The closest peers to key overwhelmingly sit in the bucket indexed by the
// shared prefix length, so it serves that bucket directly and hops outward
// only when short, staying O(K) for the typical case.
func (t *KBucketsTable) LocalClosestPeersApproximate(key Key, count int) []sim.ID {
	if len(t.buckets) == 0 {
		return nil
	}
	pos := t.localKey.Distance(key).LeadingZeros()
	if pos > len(t.buckets)-1 {
		pos = len(t.buckets) - 1
	}
	bucket := t.buckets[pos]
	if count == len(bucket) {
		return bucketPeers(bucket)
	}
	if count < len(bucket) {
		ids := bucketPeers(bucket)
		sort.Slice(ids, func(i, j int) bool {
			return t.ks.PeerKey(ids[i]).Distance(key).Less(t.ks.PeerKey(ids[j]).Distance(key))
		})
		return ids[:count]
	}
	result := make([]sim.ID, 0, count)
	for i := pos; i < len(t.buckets) && len(result) < count; i++ {
		result = append(result, bucketPeers(t.buckets[i])...)
	}
	for i := pos; i != 0 && len(result) < count; {
		i--
		result = append(result, bucketPeers(t.buckets[i])...)
	}
	if len(result) > count {
		result = result[:count]
	}
	return result
}

func bucketPeers(bucket []BucketEntry) []sim.ID {
	out := make([]sim.ID, len(bucket))
	for i, entry := range bucket {
		out[i] = entry.PeerID
	}
	return out
}

type distanceItem struct {
	dist   Distance
	peerID sim.ID
}

// distanceHeap is a max-heap by distance, so the root is the worst
// candidate currently kept.
type distanceHeap []distanceItem

func (h distanceHeap) Len() int           { return len(h) }
func (h distanceHeap) Less(i, j int) bool { return h[j].dist.Less(h[i].dist) }
func (h distanceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *distanceHeap) Push(x any) { *h = append(*h, x.(distanceItem)) }

func (h *distanceHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
