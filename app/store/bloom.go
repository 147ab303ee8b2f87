package store

import (
	"hash/fnv"
	"math"
)

// bloomParams describes the geometry of a per-user Bloom filter stored
// as a Redis bitmap. Only bit positions are computed here; the bits
// themselves live in the shared store so every worker sees the same
// filter.
type bloomParams struct {
	bits   uint64
	hashes int
}

// newBloomParams derives the optimal bit count and hash count for the
// expected capacity and target false-positive rate:
//
//	m = -n * ln(p) / ln(2)^2
//	k = (m / n) * ln(2)
func newBloomParams(capacity int, falsePositiveRate float64) bloomParams {
	if capacity <= 0 {
		capacity = 10000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	ln2 := math.Ln2
	m := uint64(math.Ceil(-float64(capacity) * math.Log(falsePositiveRate) / (ln2 * ln2)))
	if m < 64 {
		m = 64
	}
	// Round up to a whole number of bytes for SETBIT addressing
	m = (m + 7) / 8 * 8

	k := int(math.Round(float64(m) / float64(capacity) * ln2))
	if k < 1 {
		k = 1
	}
	if k > 10 {
		k = 10
	}

	return bloomParams{bits: m, hashes: k}
}

// offsets returns the k bit positions for an id using double hashing:
// index_i = (h1 + i*h2) mod m.
func (p bloomParams) offsets(id string) []uint64 {
	h1 := fnvSum64(id)
	h2 := fnvSum64(id + "\x00salt")
	if h2 == 0 {
		h2 = 0x9e3779b97f4a7c15
	}

	out := make([]uint64, p.hashes)
	for i := 0; i < p.hashes; i++ {
		out[i] = (h1 + uint64(i)*h2) % p.bits
	}
	return out
}

func fnvSum64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
