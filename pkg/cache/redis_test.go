package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/equipment-tracker/pkg/config"
)

func TestAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Addr(config.RedisConfig{Host: "localhost", Port: 6379}))
	assert.Equal(t, "[::1]:6380", Addr(config.RedisConfig{Host: "::1", Port: 6380}))
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
