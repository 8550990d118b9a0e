package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padraicbc/trainagenda/scheduling"
)

func memSlot(id, trainerID string, start time.Time) scheduling.Slot {
	return scheduling.Slot{ID: id, TrainerID: trainerID, TenantID: "t", Start: start, End: start.Add(30 * time.Minute), Location: "Room 1"}
}

func TestMemoryRollbackKeepsOutsideWrites(t *testing.T) {
	m := NewMemoryStore()
	m.AddTrainer(scheduling.Trainer{ID: "tr-1", TenantID: "t"})
	m.AddTrainer(scheduling.Trainer{ID: "tr-2", TenantID: "t"})
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	inTx := make(chan struct{})
	outside := make(chan error, 1)
	boom := errors.New("boom")

	go func() {
		<-inTx
		outside <- m.CreateSlot(ctx, memSlot("s-out", "tr-2", start))
	}()
	err := m.RunInTx(ctx, func(ctx context.Context, tx scheduling.Store) error {
		require.NoError(t, tx.CreateSlot(ctx, memSlot("s-tx", "tr-1", start)))
		close(inTx)
		// The outside writer waits for this transaction to finish.
		time.Sleep(20 * time.Millisecond)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, <-outside)

	_, err = m.Slot(ctx, "t", "s-tx")
	assert.ErrorIs(t, err, scheduling.ErrNotFound, "rolled back")
	_, err = m.Slot(ctx, "t", "s-out")
	assert.NoError(t, err, "a concurrent write survives the rollback")
}

func TestMemoryNestedTxJoins(t *testing.T) {
	m := NewMemoryStore()
	m.AddTrainer(scheduling.Trainer{ID: "tr-1", TenantID: "t"})
	ctx := context.Background()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	err := m.RunInTx(ctx, func(ctx context.Context, tx scheduling.Store) error {
		return tx.RunInTx(ctx, func(ctx context.Context, tx scheduling.Store) error {
			return tx.CreateSlot(ctx, memSlot("s-1", "tr-1", start))
		})
	})
	require.NoError(t, err)
	_, err = m.Slot(ctx, "t", "s-1")
	assert.NoError(t, err)
}
