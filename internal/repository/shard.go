package repository

import "regexp"

var shardUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ShardKey maps an owner login to its deterministic storage partition.
// Anything outside [a-zA-Z0-9._-] is replaced so the key stays safe as
// a path or index value; an empty owner lands in the shared anon shard.
func ShardKey(owner string) string {
	if owner == "" {
		return "anon"
	}
	return shardUnsafe.ReplaceAllString(owner, "_")
}
