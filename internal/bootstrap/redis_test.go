package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/cinema-ui/config"
)

func TestNewDirectClient(t *testing.T) {
	client, desc, err := newDirectClient(config.RedisConfig{URI: "redis://user:pw@cache:6380/0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, "cache:6380", desc)

	client, desc, err = newDirectClient(config.RedisConfig{URI: " localhost:6379 "})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, "localhost:6379", desc)

	_, _, err = newDirectClient(config.RedisConfig{})
	require.Error(t, err)
}

func TestNewClusterClient(t *testing.T) {
	client, desc, err := newClusterClient(config.RedisConfig{ClusterNodes: []string{" a:1 ", "", "b:2"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, "cluster:a:1,b:2", desc)

	client, desc, err = newClusterClient(config.RedisConfig{URI: "rediss://:secret@c:3"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, "cluster:c:3", desc)

	_, _, err = newClusterClient(config.RedisConfig{})
	require.Error(t, err)
}

func TestNewSentinelClient(t *testing.T) {
	_, _, err := newSentinelClient(config.RedisConfig{})
	require.Error(t, err)

	client, desc, err := newSentinelClient(config.RedisConfig{
		SentinelNodes:      []string{"s1:26379"},
		SentinelMasterName: "primary",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, "sentinel:primary", desc)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("warn").String())
	assert.Equal(t, "INFO", parseLevel("loud").String())
}
