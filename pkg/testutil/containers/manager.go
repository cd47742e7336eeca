//go:build integration

// Package containers starts shared testcontainers for integration tests.
// Each backend starts once per test binary and is reused across suites.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out lazily started, process-wide containers.
type Manager struct {
	pgOnce sync.Once
	pg     *PostgresContainer
	pgErr  error

	redisOnce sync.Once
	redis     *RedisContainer
	redisErr  error

	rpOnce sync.Once
	rp     *RedpandaContainer
	rpErr  error
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the singleton manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns a migrated Postgres container, starting it on first use.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() {
		m.pg, m.pgErr = newPostgresContainer()
	})
	if m.pgErr != nil {
		t.Fatalf("postgres container: %v", m.pgErr)
	}
	return m.pg
}

// GetRedis returns the shared Redis container.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() {
		m.redis, m.redisErr = newRedisContainer()
	})
	if m.redisErr != nil {
		t.Fatalf("redis container: %v", m.redisErr)
	}
	return m.redis
}

// GetRedpanda returns the shared Kafka-compatible broker.
func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.rpOnce.Do(func() {
		m.rp, m.rpErr = newRedpandaContainer()
	})
	if m.rpErr != nil {
		t.Fatalf("redpanda container: %v", m.rpErr)
	}
	return m.rp
}
