package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicri/pkg/platform/sentinel"
)

// unreachableClient points at a port nothing listens on so every command fails fast.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRevokeTokenRejectsNonPositiveTTL(t *testing.T) {
	trl := NewRedisTRL(unreachableClient(), WithRegisterer(prometheus.NewRegistry()))

	err := trl.RevokeToken(context.Background(), "jti-1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
}

func TestEmptyJTIShortCircuits(t *testing.T) {
	trl := NewRedisTRL(unreachableClient(), WithRegisterer(prometheus.NewRegistry()))

	revoked, err := trl.IsTokenRevoked(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, trl.RevokeToken(context.Background(), "", time.Minute))
}

func TestBackendFailureIsUnavailable(t *testing.T) {
	reg := prometheus.NewRegistry()
	trl := NewRedisTRL(unreachableClient(), WithRegisterer(reg))

	_, err := trl.IsTokenRevoked(context.Background(), "jti-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))

	count, err := testutil.GatherAndCount(reg, "dicri_is_token_revoked_duration_ms")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
