package account

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/account"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.MigrateDB(db))
	return NewSQLiteStore(db)
}

func sampleAccount(id, accountID, email string) domain.Account {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.Account{
		ID:           id,
		AccountID:    accountID,
		FirstName:    "Asha",
		LastName:     "Rao",
		Email:        email,
		DisplayEmail: email,
		PasswordHash: "$2a$04$x",
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TestSQLiteStore_SaveAndGet verifies round-trip through every lookup.
func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := sampleAccount("a1", "ADM-000001", "asha@gym.in")
	a.LockedUntil = time.Date(2026, 1, 2, 4, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, a))

	for name, get := range map[string]func() (domain.Account, error){
		"id":         func() (domain.Account, error) { return store.GetByID(ctx, "a1") },
		"email":      func() (domain.Account, error) { return store.GetByEmail(ctx, "asha@gym.in") },
		"account id": func() (domain.Account, error) { return store.GetByAccountID(ctx, "ADM-000001") },
	} {
		got, err := get()
		require.NoError(t, err, name)
		assert.Equal(t, a, got, name)
	}

	_, err := store.GetByEmail(ctx, "nobody@gym.in")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

// TestSQLiteStore_Uniqueness verifies UNIQUE violations map to store errors.
func TestSQLiteStore_Uniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleAccount("a1", "ADM-000001", "asha@gym.in")))

	err := store.Save(ctx, sampleAccount("a2", "ADM-000002", "asha@gym.in"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	err = store.Save(ctx, sampleAccount("a3", "ADM-000001", "other@gym.in"))
	assert.ErrorIs(t, err, ErrAccountIDTaken)
}

// TestSQLiteStore_UpdateListDelete verifies upsert, filtering and delete.
func TestSQLiteStore_UpdateListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	a := sampleAccount("a1", "ADM-000001", "asha@gym.in")
	require.NoError(t, store.Save(ctx, a))
	m := sampleAccount("a2", "MEM-000002", "ravi@gym.in")
	m.Role = domain.RoleMember
	m.FirstName = "Ravi"
	m.CreatedAt = m.CreatedAt.Add(time.Hour)
	require.NoError(t, store.Save(ctx, m))

	a.FirstName = "Asha Devi"
	require.NoError(t, store.Save(ctx, a))
	got, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Devi", got.FirstName)

	all, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID, "newest first")

	members, err := store.List(ctx, ListFilter{Role: domain.RoleMember})
	require.NoError(t, err)
	require.Len(t, members, 1)

	n, err := store.Count(ctx, ListFilter{Search: "ravi"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx, "a2"))
	n, err = store.Count(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
