package notification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/notification"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db))
	return NewSQLiteStore(db)
}

func sample(id, target, memberID string, scheduled time.Time) domain.Notification {
	created := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	return domain.Notification{
		ID:            id,
		Title:         "Title " + id,
		Message:       "Body",
		Type:          domain.TypeGeneral,
		TargetType:    target,
		MemberID:      memberID,
		ScheduledDate: scheduled,
		SendTime:      "07:00",
		Status:        domain.StatusScheduled,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

// TestSQLiteStore_RoundTrip verifies every column survives Save/GetByID.
func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	n := sample("n1", domain.TargetSpecific, "m1", time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC))
	n.MemberName = "Ravi"
	n.IsRecurring = true
	n.RecurrenceType = domain.RecurWeekly
	n.RecurrenceAnchor = time.Date(2026, 5, 27, 0, 0, 0, 0, time.UTC)
	n.Status = domain.StatusSent
	n.SentAt = time.Date(2026, 6, 10, 1, 30, 0, 0, time.UTC)
	n.RecipientCount = 1
	require.NoError(t, store.Save(ctx, n))

	got, err := store.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, n, got)

	require.NoError(t, store.Delete(ctx, "n1"))
	_, err = store.GetByID(ctx, "n1")
	assert.Error(t, err)
}

// TestSQLiteStore_Queries verifies audience filtering and due listing.
func TestSQLiteStore_Queries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	d := func(day int) time.Time { return time.Date(2026, 6, day, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, store.Save(ctx, sample("n1", domain.TargetAll, "", d(1))))
	require.NoError(t, store.Save(ctx, sample("n2", domain.TargetExpired, "", d(5))))
	require.NoError(t, store.Save(ctx, sample("n3", domain.TargetSpecific, "m1", d(9))))
	require.NoError(t, store.Save(ctx, sample("n4", domain.TargetSpecific, "m2", d(20))))

	forM1, err := store.List(ctx, ListFilter{MemberID: "m1", Audience: []string{domain.TargetAll, domain.TargetActive}})
	require.NoError(t, err)
	ids := []string{}
	for _, n := range forM1 {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"n1", "n3"}, ids)

	due, err := store.ListScheduledUntil(ctx, d(9))
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, "n1", due[0].ID)

	specific, err := store.Count(ctx, ListFilter{TargetType: domain.TargetSpecific})
	require.NoError(t, err)
	assert.Equal(t, 2, specific)
}
