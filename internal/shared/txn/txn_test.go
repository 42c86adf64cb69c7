package txn_test

import (
	"context"
	"errors"
	"testing"

	"busline/internal/shared/database/dbtest"
	"busline/internal/shared/txn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type note struct {
	ID   uint `gorm:"primaryKey"`
	Body string
}

func migrateNotes(db *gorm.DB) error {
	return db.AutoMigrate(&note{})
}

func countNotes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&note{}).Count(&n).Error)
	return n
}

func TestWithinTx_CommitRunsHooksAfterCommit(t *testing.T) {
	db := dbtest.Open(t, migrateNotes)
	tr := txn.NewTransactor(db)

	var seenInHook int64 = -1
	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, txn.InTx(ctx))
		if err := txn.DB(ctx, db).Create(&note{Body: "a"}).Error; err != nil {
			return err
		}
		txn.AfterCommit(ctx, func(ctx context.Context) {
			seenInHook = countNotes(t, db)
		})
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), seenInHook)
}

func TestWithinTx_RollbackDropsWritesAndHooks(t *testing.T) {
	db := dbtest.Open(t, migrateNotes)
	tr := txn.NewTransactor(db)

	hookRan := false
	boom := errors.New("boom")
	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, txn.DB(ctx, db).Create(&note{Body: "a"}).Error)
		txn.AfterCommit(ctx, func(context.Context) { hookRan = true })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, hookRan)
	assert.Equal(t, int64(0), countNotes(t, db))
}

func TestWithinTx_NestedFailureRollsBackToSavepoint(t *testing.T) {
	db := dbtest.Open(t, migrateNotes)
	tr := txn.NewTransactor(db)

	var hooks []string
	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		require.NoError(t, txn.DB(ctx, db).Create(&note{Body: "outer"}).Error)
		txn.AfterCommit(ctx, func(context.Context) { hooks = append(hooks, "outer") })

		inner := tr.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, txn.DB(ctx, db).Create(&note{Body: "inner"}).Error)
			txn.AfterCommit(ctx, func(context.Context) { hooks = append(hooks, "inner") })
			return errors.New("inner failed")
		})
		assert.Error(t, inner)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer"}, hooks)

	var bodies []string
	require.NoError(t, db.Model(&note{}).Pluck("body", &bodies).Error)
	assert.Equal(t, []string{"outer"}, bodies)
}

func TestAfterCommit_WithoutTxRunsImmediately(t *testing.T) {
	ran := false
	txn.AfterCommit(context.Background(), func(context.Context) { ran = true })
	assert.True(t, ran)
}
