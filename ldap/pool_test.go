package ldap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPoolConfig() *ConnectionConfig {
	cfg := DefaultConfig()
	cfg.LDAPURLs = []string{"ldaps://dc1.example.com:636"}
	return cfg
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ConnectionConfig)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*ConnectionConfig) {},
		},
		{
			name: "no domain or URLs",
			mutate: func(c *ConnectionConfig) {
				c.Domain = ""
				c.LDAPURLs = nil
			},
			wantErr: "either domain or LDAP URLs",
		},
		{
			name: "zero max connections",
			mutate: func(c *ConnectionConfig) {
				c.MaxConnections = 0
			},
			wantErr: "max connections must be positive",
		},
		{
			name: "max connections over limit",
			mutate: func(c *ConnectionConfig) {
				c.MaxConnections = MaxConnectionPoolLimit + 1
			},
			wantErr: "exceeds limit",
		},
		{
			name: "backoff factor below one",
			mutate: func(c *ConnectionConfig) {
				c.BackoffFactor = 0.5
			},
			wantErr: "backoff factor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validPoolConfig()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewConnectionPool(t *testing.T) {
	t.Run("valid config parses URLs eagerly", func(t *testing.T) {
		pool, err := NewConnectionPool(validPoolConfig())
		require.NoError(t, err)
		defer pool.Close()

		stats := pool.Stats()
		assert.Equal(t, 0, stats.Total)
		assert.Zero(t, stats.Active)
	})

	t.Run("invalid URL rejected at construction", func(t *testing.T) {
		cfg := validPoolConfig()
		cfg.LDAPURLs = []string{"ftp://dc1.example.com"}

		_, err := NewConnectionPool(cfg)
		assert.ErrorContains(t, err, "invalid LDAP URL")
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		cfg := validPoolConfig()
		cfg.MaxConnections = -1

		_, err := NewConnectionPool(cfg)
		assert.ErrorContains(t, err, "invalid configuration")
	})
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	pool, err := NewConnectionPool(validPoolConfig())
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err = pool.Get(t.Context())
	assert.ErrorContains(t, err, "closed")
}

func TestPoolStatsUptime(t *testing.T) {
	pool, err := NewConnectionPool(validPoolConfig())
	require.NoError(t, err)
	defer pool.Close()

	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, pool.Stats().Uptime, time.Duration(0))
}
