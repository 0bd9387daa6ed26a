package redis

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

const (
	// KeyPrefix namespaces every key written by the service
	KeyPrefix = "hrtlog:"
	// KeyPrefixCache is the prefix for cached timeline queries
	KeyPrefixCache = KeyPrefix + "cache:"
	// KeySnapshot holds the last merged timeline
	KeySnapshot = KeyPrefix + "timeline:snapshot"
	// KeySnapshotAt holds the time the snapshot was written
	KeySnapshotAt = KeyPrefix + "timeline:snapshot:at"
	// KeyStats is the hash of usage counters
	KeyStats = KeyPrefix + "stats"
)

// CacheKey returns the Redis key for a timeline query against index
// generation gen. Filters that only differ by case or surrounding spaces in
// the search text share a key; a new generation never reads older entries.
func CacheKey(scope string, gen uint64, f domain.Filter) string {
	norm := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(f.Search)),
		strings.TrimSpace(f.Start),
		strings.TrimSpace(f.End),
	}, "\x00")
	return fmt.Sprintf("%s%s:%x:%016x", KeyPrefixCache, scope, gen, xxhash.Sum64String(norm))
}
