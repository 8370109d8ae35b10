package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/musicstore-pos/pkg/config"
)

func TestPoolConfigFor(t *testing.T) {
	cfg := config.DBConfig{Host: "db.local", Port: 5432, User: "pos", Password: "secreto", DBName: "tienda", SSLMode: "disable", MaxConns: 7}

	pc, err := poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.Equal(t, lockTimeout, pc.ConnConfig.RuntimeParams["lock_timeout"])
	assert.NotNil(t, pc.AfterConnect)
}

func TestPoolConfigFor_DatabaseURLKeepsLockTimeout(t *testing.T) {
	pc, err := poolConfigFor(config.DBConfig{DatabaseURL: "postgres://pos:x@localhost:5432/tienda?sslmode=disable&lock_timeout=1s"})
	require.NoError(t, err)
	assert.Equal(t, "1s", pc.ConnConfig.RuntimeParams["lock_timeout"])
	assert.Equal(t, "localhost", pc.ConnConfig.Host)
}
