package index

import (
	"time"
)

// Entry is a lightweight candidate record published into a bucket
// snapshot. Only what candidate selection needs: id, score, tags.
type Entry struct {
	ID        string    `json:"id"`
	Score     float64   `json:"score"`
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"timestamp"`
}

// Snapshot is an immutable, versioned view of one bucket. Entries are
// sorted at publish time (score desc, updated_at desc, id asc) and
// never mutated afterwards.
type Snapshot struct {
	Bucket      string
	Version     int64
	Entries     []Entry
	PublishedAt time.Time
}

// Well-known bucket names. Genre buckets are "genre_<name>" and
// per-user friend activity buckets are "friend_activity:<uid>",
// precomputed by the external fan-out writer.
const (
	BucketTrending  = "global_trending"
	BucketCommunity = "community_hot"

	genreBucketPrefix  = "genre_"
	friendBucketPrefix = "friend_activity:"
)

// GenreBucket returns the bucket name for a genre index.
func GenreBucket(genre string) string {
	return genreBucketPrefix + normalizeGenre(genre)
}

// FriendActivityBucket returns the per-user activity bucket name.
func FriendActivityBucket(userID string) string {
	return friendBucketPrefix + userID
}

func normalizeGenre(genre string) string {
	out := make([]byte, 0, len(genre))
	for i := 0; i < len(genre); i++ {
		c := genre[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case c == ' ':
			out = append(out, '_')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
