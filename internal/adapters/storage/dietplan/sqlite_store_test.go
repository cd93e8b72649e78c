package dietplan

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/dietplan"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db))
	return NewSQLiteStore(db)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func samplePlan(id, memberID string, start time.Time, goal string) domain.DietPlan {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return domain.DietPlan{
		ID:            id,
		MemberID:      memberID,
		MemberName:    "Ravi Kumar",
		Title:         "Plan " + id,
		Goal:          goal,
		DailyCalories: 2200,
		Meals: []domain.Meal{
			{Name: "Breakfast", Time: "07:00", Items: "Poha, sprouts", Calories: 500},
			{Name: "Dinner", Items: "Paneer bhurji, roti", Calories: 700},
		},
		Notes:     "Drink **3 litres** of water.",
		StartDate: start,
		Status:    domain.StatusActive,
		CreatedBy: "acc-admin",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// TestSQLiteStore_RoundTrip verifies every column, meals included, survives Save/GetByID.
func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := samplePlan("d1", "m1", date(2026, 3, 1), domain.GoalMuscleGain)
	p.EndDate = date(2026, 6, 1)
	require.NoError(t, store.Save(ctx, p))

	got, err := store.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	p.Meals = nil
	p.Status = domain.StatusArchived
	require.NoError(t, store.Save(ctx, p))
	got, err = store.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got.Meals)
	assert.Equal(t, domain.StatusArchived, got.Status)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

// TestSQLiteStore_ListAndDelete verifies filters, ordering and deletion.
func TestSQLiteStore_ListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, samplePlan("d1", "m1", date(2026, 1, 1), domain.GoalWeightLoss)))
	require.NoError(t, store.Save(ctx, samplePlan("d2", "m1", date(2026, 3, 1), domain.GoalMaintenance)))
	require.NoError(t, store.Save(ctx, samplePlan("d3", "m2", date(2026, 2, 1), domain.GoalWeightLoss)))

	mine, err := store.List(ctx, ListFilter{MemberID: "m1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "d2", mine[0].ID, "latest start first")

	n, err := store.Count(ctx, ListFilter{Goal: domain.GoalWeightLoss})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	page, err := store.List(ctx, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "d3", page[0].ID)

	require.NoError(t, store.Delete(ctx, "d1"))
	assert.ErrorIs(t, store.Delete(ctx, "d1"), sql.ErrNoRows)
	n, err = store.Count(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
