package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classsync/backend/internal/domain/reconcile"
	"github.com/classsync/backend/internal/domain/upstream"
)

func newTestRecord(storeID uuid.UUID, platformOrderID string) *reconcile.OrderRecord {
	record := reconcile.NewOrderRecord(storeID, platformOrderID)
	record.OrderedAt = time.Now().Add(-time.Hour).Truncate(time.Second)
	record.OrdererName = "김영희"
	record.PaymentStatus = upstream.PaymentStatusPaid
	record.ManageStatus = reconcile.StatusNeedsReview
	return record
}

func TestGormOrderRecordRepository_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRecordRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	record := newTestRecord(storeID, "ord-1")
	require.NoError(t, repo.Upsert(ctx, record))

	// Re-syncing the same natural key must update in place, not duplicate.
	// A second sync produces a fresh domain object with a different local ID.
	again := newTestRecord(storeID, "ord-1")
	again.OrdererTel = "010-1234-5678"
	require.NoError(t, repo.Upsert(ctx, again))

	var count int64
	require.NoError(t, db.Table("order_records").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	found, err := repo.FindByNaturalKey(ctx, storeID, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "010-1234-5678", found.OrdererTel)
}

func TestGormOrderRecordRepository_FindByNaturalKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRecordRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	require.NoError(t, repo.Upsert(ctx, newTestRecord(storeID, "ord-1")))

	found, err := repo.FindByNaturalKey(ctx, storeID, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", found.PlatformOrderID)
	assert.Equal(t, reconcile.StatusNeedsReview, found.ManageStatus)

	// Same order ID under a different store is a different record
	_, err = repo.FindByNaturalKey(ctx, uuid.New(), "ord-1")
	assert.ErrorIs(t, err, reconcile.ErrRecordNotFound)
}

func TestGormOrderRecordRepository_Save(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRecordRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	record := newTestRecord(storeID, "ord-1")
	require.NoError(t, repo.Upsert(ctx, record))

	stored, err := repo.FindByNaturalKey(ctx, storeID, "ord-1")
	require.NoError(t, err)
	stored.SetStatus(reconcile.StatusConfirmed, nil)
	require.NoError(t, repo.Save(ctx, stored))

	found, err := repo.FindByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusConfirmed, found.ManageStatus)

	missing := newTestRecord(storeID, "ord-2")
	assert.ErrorIs(t, repo.Save(ctx, missing), reconcile.ErrRecordNotFound)
}

func TestGormOrderRecordRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRecordRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	for i, id := range []string{"ord-1", "ord-2", "ord-3"} {
		record := newTestRecord(storeID, id)
		record.OrderedAt = time.Now().Add(-time.Duration(i) * time.Hour).Truncate(time.Second)
		if id == "ord-3" {
			record.ManageStatus = reconcile.StatusConfirmed
		}
		require.NoError(t, repo.Upsert(ctx, record))
	}
	// Another store's record must not leak into the listing
	require.NoError(t, repo.Upsert(ctx, newTestRecord(uuid.New(), "ord-other")))

	records, total, err := repo.List(ctx, storeID, reconcile.OrderRecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 3)
	// Newest ordered first
	assert.Equal(t, "ord-1", records[0].PlatformOrderID)

	confirmed := reconcile.StatusConfirmed
	records, total, err = repo.List(ctx, storeID, reconcile.OrderRecordFilter{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "ord-3", records[0].PlatformOrderID)

	records, total, err = repo.List(ctx, storeID, reconcile.OrderRecordFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, records, 1)
}

func TestGormOrderRecordRepository_DeleteByStore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRecordRepository(db)
	ctx := context.Background()
	storeID := uuid.New()
	otherStore := uuid.New()

	require.NoError(t, repo.Upsert(ctx, newTestRecord(storeID, "ord-1")))
	require.NoError(t, repo.Upsert(ctx, newTestRecord(otherStore, "ord-1")))

	require.NoError(t, repo.DeleteByStore(ctx, storeID))

	_, err := repo.FindByNaturalKey(ctx, storeID, "ord-1")
	assert.ErrorIs(t, err, reconcile.ErrRecordNotFound)
	_, err = repo.FindByNaturalKey(ctx, otherStore, "ord-1")
	assert.NoError(t, err)
}

func TestGormOrderRecordRepository_DeleteOperatorEntered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormOrderRecordRepository(db)
	ctx := context.Background()
	storeID := uuid.New()

	synced := newTestRecord(storeID, "ord-1")
	require.NoError(t, repo.Upsert(ctx, synced))

	manual := newTestRecord(storeID, "manual-1")
	manual.OperatorEntered = true
	require.NoError(t, repo.Upsert(ctx, manual))

	stored, err := repo.FindByNaturalKey(ctx, storeID, "ord-1")
	require.NoError(t, err)
	// Synced records cannot be deleted individually
	assert.ErrorIs(t, repo.DeleteOperatorEntered(ctx, stored.ID), reconcile.ErrRecordNotFound)

	storedManual, err := repo.FindByNaturalKey(ctx, storeID, "manual-1")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteOperatorEntered(ctx, storedManual.ID))
	_, err = repo.FindByNaturalKey(ctx, storeID, "manual-1")
	assert.ErrorIs(t, err, reconcile.ErrRecordNotFound)
}

func TestGormStatusHistoryRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormStatusHistoryRepository(db)
	ctx := context.Background()
	storeID := uuid.New()
	recordID := uuid.New()

	first := reconcile.NewStatusHistory(storeID, recordID, "", reconcile.StatusNeedsReview, nil, reconcile.ActorSystem)
	first.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, repo.Append(ctx, first))

	second := reconcile.NewStatusHistory(storeID, recordID, reconcile.StatusNeedsReview, reconcile.StatusConfirmed, nil, "operator-kim")
	require.NoError(t, repo.Append(ctx, second))

	entries, err := repo.ListByRecord(ctx, recordID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first
	assert.Equal(t, reconcile.StatusConfirmed, entries[0].Next)
	assert.Equal(t, "operator-kim", entries[0].Actor)

	require.NoError(t, repo.DeleteByStore(ctx, storeID))
	entries, err = repo.ListByRecord(ctx, recordID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
