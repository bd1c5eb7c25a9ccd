// Package kad holds the Kademlia keyspace math: 256-bit keys under the XOR
// metric, the pre-computed per-peer key pool, the per-peer k-buckets table,
// and the global trie used as ground truth when scoring lookups.
package kad

import (
	"crypto/sha256"
	"math/rand"

	"github.com/holiman/uint256"
)

// Key identifies both peers and records in the 256-bit DHT keyspace.
// It is a value type and usable as a map key.
type Key struct {
	n uint256.Int
}

// Distance is the XOR of two keys, totally ordered by unsigned compare.
type Distance struct {
	n uint256.Int
}

// RandomKey draws a uniform random key from rng.
func RandomKey(rng *rand.Rand) Key {
	var b [32]byte
	for i := range b {
		b[i] = byte(rng.Intn(256))
	}
	var k Key
	k.n.SetBytes(b[:])
	return k
}

// KeyFromSHA256 derives a key from the SHA-256 digest of data.
func KeyFromSHA256(data []byte) Key {
	sum := sha256.Sum256(data)
	var k Key
	k.n.SetBytes(sum[:])
	return k
}

// RandomKeyInBucket returns a key whose XOR distance from local has exactly
// i leading zeros, i.e. a uniform target for refreshing bucket i.
func RandomKeyInBucket(rng *rand.Rand, local Key, i int) Key {
	d := RandomKey(rng)
	d.n.Rsh(&d.n, uint(i+1))
	var top uint256.Int
	top.Lsh(uint256.NewInt(1), uint(255-i))
	d.n.Or(&d.n, &top)
	return local.ForDistance(Distance{n: d.n})
}

// Distance returns the XOR distance between k and other.
func (k Key) Distance(other Key) Distance {
	var d Distance
	d.n.Xor(&k.n, &other.n)
	return d
}

// ForDistance returns the unique key at the given distance from k.
func (k Key) ForDistance(d Distance) Key {
	var out Key
	out.n.Xor(&k.n, &d.n)
	return out
}

// Equal reports whether two keys are identical.
func (k Key) Equal(other Key) bool {
	return k.n.Eq(&other.n)
}

// Bit returns the MSB-first bit at index i (0 = most significant).
func (k Key) Bit(i int) int {
	b := k.n.Bytes32()
	return int(b[i/8]>>(7-uint(i%8))) & 1
}

// Bytes returns the big-endian 32-byte form of the key.
func (k Key) Bytes() [32]byte {
	return k.n.Bytes32()
}

// String formats the key as 64 lowercase hex characters.
func (k Key) String() string {
	const hexdigits = "0123456789abcdef"
	b := k.n.Bytes32()
	out := make([]byte, 64)
	for i, c := range b {
		out[2*i] = hexdigits[c>>4]
		out[2*i+1] = hexdigits[c&0xf]
	}
	return string(out)
}

// LeadingZeros returns the number of leading zero bits, in 0..=256.
func (d Distance) LeadingZeros() int {
	return 256 - d.n.BitLen()
}

// Cmp compares two distances as unsigned 256-bit integers.
func (d Distance) Cmp(other Distance) int {
	return d.n.Cmp(&other.n)
}

// Less reports whether d is strictly smaller than other.
func (d Distance) Less(other Distance) bool {
	return d.n.Lt(&other.n)
}

// Not returns the bitwise complement, used as a descending sort key.
func (d Distance) Not() Distance {
	var out Distance
	out.n.Not(&d.n)
	return out
}

// IsZero reports whether the distance is zero (identical keys).
func (d Distance) IsZero() bool {
	return d.n.IsZero()
}
