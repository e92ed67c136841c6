package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/work-pulse/pkg/config"
)

// integrationConfig reads TEST_POSTGRES_* overrides on top of the local defaults
func integrationConfig(t *testing.T) *PostgresConfig {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	cfg := DefaultPostgresConfig()
	overrides := map[string]*string{
		"TEST_POSTGRES_HOST":     &cfg.Host,
		"TEST_POSTGRES_USER":     &cfg.User,
		"TEST_POSTGRES_PASSWORD": &cfg.Password,
		"TEST_POSTGRES_DATABASE": &cfg.Database,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
	return cfg
}

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name         string
		in           config.DatabaseConfig
		wantMaxConns int32
		wantMinConns int32
		wantLifetime time.Duration
	}{
		{
			name: "explicit pool sizes",
			in: config.DatabaseConfig{
				Host: "db.internal", Port: 6543, User: "pulse", Password: "secret",
				DBName: "work_pulse", SSLMode: "require",
				MaxOpenConns: 40, MaxIdleConns: 8, ConnMaxLifetime: 10 * time.Minute,
			},
			wantMaxConns: 40,
			wantMinConns: 8,
			wantLifetime: 10 * time.Minute,
		},
		{
			name:         "zero values keep defaults",
			in:           config.DatabaseConfig{Host: "localhost", Port: 5432, DBName: "work_pulse"},
			wantMaxConns: 25,
			wantMinConns: 5,
			wantLifetime: time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromAppConfig(tt.in)
			assert.Equal(t, tt.in.Host, cfg.Host)
			assert.Equal(t, tt.in.DBName, cfg.Database)
			assert.Equal(t, tt.wantMaxConns, cfg.MaxConns)
			assert.Equal(t, tt.wantMinConns, cfg.MinConns)
			assert.Equal(t, tt.wantLifetime, cfg.MaxConnLifetime)
			assert.Equal(t, 3, cfg.MaxRetries)
		})
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "pulse",
		Password: "secret",
		Database: "work_pulse",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=pulse password=secret dbname=work_pulse sslmode=disable",
		cfg.DSN(),
	)
}

func TestNewPostgres_Unreachable(t *testing.T) {
	cfg := &PostgresConfig{
		Host:           "invalid-host-that-does-not-exist",
		Port:           9999,
		User:           "invalid",
		Database:       "invalid",
		SSLMode:        "disable",
		RetryInterval:  100 * time.Millisecond,
		ConnectTimeout: time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewPostgres(ctx, cfg)
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"wrapped unique violation", fmt.Errorf("insert tenant: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestPostgresDB_Integration(t *testing.T) {
	cfg := integrationConfig(t)
	ctx := context.Background()

	db, err := NewPostgres(ctx, cfg)
	require.NoError(t, err)

	require.NoError(t, db.Ping(ctx))
	require.NoError(t, db.HealthCheck(ctx))
	require.NotNil(t, db.Pool())

	db.Close()
	assert.Error(t, db.Ping(ctx), "ping after close")
}
