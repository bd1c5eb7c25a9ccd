package kad

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromSHA256(t *testing.T) {
	k := KeyFromSHA256([]byte("hello"))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", k.String())
	assert.True(t, k.Equal(KeyFromSHA256([]byte("hello"))), "derivation must be deterministic")
	assert.False(t, k.Equal(KeyFromSHA256([]byte("hellp"))))
}

func TestDistanceMetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := RandomKey(rng)
	b := RandomKey(rng)

	assert.True(t, a.Distance(a).IsZero())
	assert.Equal(t, 256, a.Distance(a).LeadingZeros())
	assert.Equal(t, 0, a.Distance(b).Cmp(b.Distance(a)), "distance is symmetric")

	// for_distance inverts distance
	d := a.Distance(b)
	assert.True(t, a.ForDistance(d).Equal(b))
	assert.True(t, b.ForDistance(d).Equal(a))
}

func TestDistanceOrdering(t *testing.T) {
	zero := KeyFromSHA256(nil).Distance(KeyFromSHA256(nil))
	one := KeyFromSHA256([]byte("x")).Distance(KeyFromSHA256([]byte("x")))
	assert.Equal(t, 0, zero.Cmp(one))

	a := KeyFromSHA256([]byte("a"))
	b := KeyFromSHA256([]byte("b"))
	d := a.Distance(b)
	require.False(t, d.IsZero())
	assert.True(t, zero.Less(d))
	assert.False(t, d.Less(d))

	// complement flips the ordering
	e := a.Distance(KeyFromSHA256([]byte("c")))
	if d.Less(e) {
		assert.True(t, e.Not().Less(d.Not()))
	} else {
		assert.True(t, d.Not().Less(e.Not()))
	}
}

func TestRandomKeyInBucket(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	local := RandomKey(rng)
	for _, i := range []int{0, 1, 5, 17, 100, 254, 255} {
		k := RandomKeyInBucket(rng, local, i)
		assert.Equal(t, i, local.Distance(k).LeadingZeros(), "bucket index %d", i)
	}
}

func TestKeyBits(t *testing.T) {
	k := KeyFromSHA256([]byte("hello")) // 0x2c... = 0010 1100 ...
	want := []int{0, 0, 1, 0, 1, 1, 0, 0}
	for i, bit := range want {
		assert.Equal(t, bit, k.Bit(i), "bit %d", i)
	}
}

func TestKeyString(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 16; i++ {
		s := RandomKey(rng).String()
		require.Len(t, s, 64)
		for _, c := range s {
			assert.Contains(t, "0123456789abcdef", string(c))
		}
	}
}
