package kad

import (
	"encoding/binary"

	"github.com/nmxmxh/kadsim/sim"
)

// Keyspace is the process-wide, read-only keyspace state: the pre-computed
// key of every peer, the reverse key-to-peer map, the oracle trie, and the
// shared K/alpha parameters. It is built once before any peer is created
// and passed by reference afterwards.
type Keyspace struct {
	k     int
	alpha int
	keys  []Key
	byKey map[Key]sim.ID
	tree  *KeysTree
}

// NewKeyspace derives the key pool for numPeers peers. A peer's key is
// SHA-256 of its index as a little-endian u32.
func NewKeyspace(numPeers uint32, k, alpha int) *Keyspace {
	keys := make([]Key, numPeers)
	byKey := make(map[Key]sim.ID, numPeers)
	for i := uint32(0); i < numPeers; i++ {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], i)
		keys[i] = KeyFromSHA256(buf[:])
		byKey[keys[i]] = sim.ID(i)
	}
	return &Keyspace{
		k:     k,
		alpha: alpha,
		keys:  keys,
		byKey: byKey,
		tree:  NewKeysTree(keys),
	}
}

// K is the bucket capacity and lookup target width.
func (ks *Keyspace) K() int { return ks.k }

// Alpha is the iterative-lookup parallelism.
func (ks *Keyspace) Alpha() int { return ks.alpha }

// NumPeers returns the size of the key pool.
func (ks *Keyspace) NumPeers() int { return len(ks.keys) }

// PeerKey returns the key of the given peer.
func (ks *Keyspace) PeerKey(id sim.ID) Key { return ks.keys[id] }

// PeerByKey resolves a key back to its peer, if the key belongs to one.
func (ks *Keyspace) PeerByKey(key Key) (sim.ID, bool) {
	id, ok := ks.byKey[key]
	return id, ok
}

// Tree exposes the oracle trie. It is ground truth for scoring only and is
// never consulted by the protocol paths.
func (ks *Keyspace) Tree() *KeysTree { return ks.tree }

// ClosestPeers returns up to count peers closest to target according to the
// oracle.
func (ks *Keyspace) ClosestPeers(target Key, count int) []sim.ID {
	keys := ks.tree.FindClosestKeys(target, count)
	out := make([]sim.ID, 0, len(keys))
	for _, key := range keys {
		if id, ok := ks.byKey[key]; ok {
			out = append(out, id)
		}
	}
	return out
}

// EvaluateClosestPeers counts how many of result appear in the oracle's
// true closest-|result| answer for target.
func (ks *Keyspace) EvaluateClosestPeers(target Key, result []sim.ID) int {
	correct := ks.tree.FindClosestKeys(target, len(result))
	members := make(map[Key]struct{}, len(correct))
	for _, key := range correct {
		members[key] = struct{}{}
	}
	n := 0
	for _, id := range result {
		if _, ok := members[ks.keys[id]]; ok {
			n++
		}
	}
	return n
}
