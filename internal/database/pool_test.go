// 版权所有 2026 DocChat Authors. 版权所有。

package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (sqlmock.Sqlmock, *gorm.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	// gorm.Open 默认会 Ping 一次;MonitorPingsOption 开启后必须先声明该期望。
	mock.ExpectPing()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)

	return mock, gormDB
}

func newTestPool(t *testing.T, gormDB *gorm.DB) *PoolManager {
	t.Helper()

	pm, err := NewPoolManager(gormDB, PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	return pm
}

func TestNewPoolManagerNilDB(t *testing.T) {
	t.Parallel()

	_, err := NewPoolManager(nil, DefaultPoolConfig(), zap.NewNop())
	assert.Error(t, err)
}

func TestPoolManagerPing(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm := newTestPool(t, gormDB)

	mock.ExpectPing()

	require.NoError(t, pm.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManagerPingFailure(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm := newTestPool(t, gormDB)

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	assert.Error(t, pm.Ping(context.Background()))
}

func TestPoolManagerPingAfterClose(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm := newTestPool(t, gormDB)

	mock.ExpectClose()
	require.NoError(t, pm.Close())
	require.NoError(t, pm.Close(), "close is idempotent")

	assert.Error(t, pm.Ping(context.Background()))
}

func TestPoolManagerWithTransaction(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm := newTestPool(t, gormDB)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := pm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManagerWithTransactionRollback(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm := newTestPool(t, gormDB)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := pm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return assert.AnError
	})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolManagerTransactionRetryOnDeadlock(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm := newTestPool(t, gormDB)

	// 第一次死锁回滚,第二次成功。
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	attempts := 0
	err := pm.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		if attempts == 1 {
			return errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestPoolManagerTransactionNoRetryOnPermanentError(t *testing.T) {
	mock, gormDB := setupTestDB(t)
	pm := newTestPool(t, gormDB)

	mock.ExpectBegin()
	mock.ExpectRollback()

	attempts := 0
	err := pm.WithTransactionRetry(context.Background(), 3, func(tx *gorm.DB) error {
		attempts++
		return errors.New("ERROR: null value in column (SQLSTATE 23502)")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts, "constraint violations are not retried")
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	assert.False(t, retryable(nil))
	assert.True(t, retryable(errors.New("deadlock detected")))
	assert.True(t, retryable(errors.New("ERROR: could not serialize access (SQLSTATE 40001)")))
	assert.True(t, retryable(errors.New("read tcp: connection reset by peer")))
	assert.True(t, retryable(errors.New("driver: bad connection")))
	assert.False(t, retryable(errors.New("record not found")))
	assert.False(t, retryable(errors.New("duplicate key value violates unique constraint")))
}
