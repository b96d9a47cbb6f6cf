package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/tradeauth/domain"
	"github.com/you/tradeauth/internal/infrastructure/repositories"
	"github.com/you/tradeauth/internal/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestAutoMigrate(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"users", "vendors", "admins", "buyers"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(mr.Addr(), "", 0)
	defer client.Close()
	assert.NoError(t, client.Ping(t.Context()))

	mr.Close()
	err := client.Ping(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach redis")
}

func TestGormLogger(t *testing.T) {
	query := func() (string, int64) { return "SELECT * FROM users", 0 }

	tests := []struct {
		name    string
		err     error
		wantLog string
	}{
		{name: "record not found is silent", err: gorm.ErrRecordNotFound},
		{name: "query error is logged", err: errors.New("connection reset"), wantLog: "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			gl := NewGormLogger(logging.NewWithWriter(&buf, "debug"), false)

			gl.Trace(context.Background(), time.Now(), query, tt.err)

			if tt.wantLog == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.wantLog)
			assert.Contains(t, buf.String(), `"level":"WARN"`)
		})
	}
}

func TestGormLogger_StoreMissIsSilent(t *testing.T) {
	var buf bytes.Buffer
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: NewGormLogger(logging.NewWithWriter(&buf, "debug"), false),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	buf.Reset()

	for _, store := range repositories.NewIdentityStores(db) {
		_, err := store.FindByEmail(t.Context(), "ghost@example.com")
		assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	}
	assert.NotContains(t, buf.String(), "record not found")
}
