package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShardKey(t *testing.T) {
	assert.Equal(t, "alice", ShardKey("alice"))
	assert.Equal(t, "alice_empresa.com", ShardKey("alice@empresa.com"))
	assert.Equal(t, "joao.silva-01", ShardKey("joao.silva-01"))
	assert.Equal(t, "a_b_c", ShardKey("a b/c"))
	assert.Equal(t, "anon", ShardKey(""))

	// Deterministic: same owner, same shard.
	assert.Equal(t, ShardKey("op@empresa.com"), ShardKey("op@empresa.com"))
}
