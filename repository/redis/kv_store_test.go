package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/interchain-tracker/config"
	"github.com/omni/interchain-tracker/repository/redis"
)

func TestNewKeyValueStore_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := redis.NewKeyValueStore(context.Background(), &config.RedisConfig{URL: "http://localhost:6379"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "can't parse redis URL")
}
