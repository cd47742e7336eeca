// Package revocation reads the token revocation list shared with the external
// authentication service. A token whose JTI is present is refused even when
// its signature and expiry are still valid.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"dicri/pkg/platform/sentinel"
)

// revokedTokenKeyPrefix is shared with the issuer; do not change it alone.
const revokedTokenKeyPrefix = "trl:jti:"

// RedisTRL is a Redis-backed token revocation list.
type RedisTRL struct {
	client     redis.UniversalClient
	checkDurMs prometheus.Histogram
}

// RedisTRLOption configures a RedisTRL instance.
type RedisTRLOption func(*RedisTRL)

// WithRegisterer registers the latency histogram on reg instead of the
// default registry.
func WithRegisterer(reg prometheus.Registerer) RedisTRLOption {
	return func(t *RedisTRL) {
		t.checkDurMs = newCheckHistogram(reg)
	}
}

func newCheckHistogram(reg prometheus.Registerer) prometheus.Histogram {
	return promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
		Name:    "dicri_is_token_revoked_duration_ms",
		Help:    "Latency of token revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
}

// NewRedisTRL constructs a Redis-backed token revocation list.
func NewRedisTRL(client redis.UniversalClient, opts ...RedisTRLOption) *RedisTRL {
	trl := &RedisTRL{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(trl)
		}
	}
	if trl.checkDurMs == nil {
		trl.checkDurMs = newCheckHistogram(prometheus.DefaultRegisterer)
	}
	return trl
}

// RevokeToken adds a JTI to the list until ttl elapses, which should match
// the token's remaining lifetime.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if err := t.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

// IsTokenRevoked reports whether jti is on the list. Backend failures are
// returned so the caller can fail closed.
func (t *RedisTRL) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		t.checkDurMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	n, err := t.client.Exists(ctx, revokedTokenKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return n > 0, nil
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
