package feed

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// shuffleSeed derives the deterministic shuffle seed from the session
// id and the plan generation epoch. Never wall-clock, never an unseeded
// generator: two generations for the same (session, epoch) must order
// identically regardless of which worker runs them.
func shuffleSeed(sessionID string, epoch int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(sessionID))
	h.Write([]byte(":"))
	h.Write([]byte(strconv.FormatInt(epoch, 10)))
	return int64(h.Sum64())
}

// tieredShuffle applies the positional ordering policy: the first
// fixedTop positions stay in score order for above-the-fold stability,
// the next lightWindow positions are permuted among themselves, and the
// remainder is permuted fully.
func tieredShuffle(ids []string, seed int64, fixedTop, lightWindow int) []string {
	out := make([]string, len(ids))
	copy(out, ids)

	if len(out) <= fixedTop {
		return out
	}

	rng := rand.New(rand.NewSource(seed))

	lightEnd := fixedTop + lightWindow
	if lightEnd > len(out) {
		lightEnd = len(out)
	}

	light := out[fixedTop:lightEnd]
	rng.Shuffle(len(light), func(i, j int) {
		light[i], light[j] = light[j], light[i]
	})

	tail := out[lightEnd:]
	rng.Shuffle(len(tail), func(i, j int) {
		tail[i], tail[j] = tail[j], tail[i]
	})

	return out
}
