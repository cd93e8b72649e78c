package account

import (
	"context"
	"database/sql"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/account"
)

const accountColumns = "id, account_id, first_name, last_name, email, display_email, password_hash, role, failed_logins, locked_until, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return s.getOne(ctx, "id", id)
}

// GetByEmail retrieves an Account by normalized email.
// PRE: email is normalized
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.getOne(ctx, "email", email)
}

// GetByAccountID retrieves an Account by its human-readable id.
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Account, error) {
	return s.getOne(ctx, "account_id", accountID)
}

func (s *SQLiteStore) getOne(ctx context.Context, column, value string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE "+column+" = ?", value)
	entity, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return domain.Account{}, fmt.Errorf("account not found: %w", err)
	}
	return entity, err
}

// Save persists an Account (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted; UNIQUE violations return ErrEmailTaken or ErrAccountIDTaken
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id=excluded.account_id, first_name=excluded.first_name,
			last_name=excluded.last_name, email=excluded.email,
			display_email=excluded.display_email, password_hash=excluded.password_hash,
			role=excluded.role, failed_logins=excluded.failed_logins,
			locked_until=excluded.locked_until, updated_at=excluded.updated_at`,
		entity.ID,
		entity.AccountID,
		entity.FirstName,
		entity.LastName,
		entity.Email,
		entity.DisplayEmail,
		entity.PasswordHash,
		entity.Role,
		entity.FailedLogins,
		storage.NullTime(entity.LockedUntil),
		storage.Timestamp(entity.CreatedAt),
		storage.Timestamp(entity.UpdatedAt),
	)
	switch {
	case storage.IsUniqueViolation(err, "account.email"):
		return fmt.Errorf("%w: %s", ErrEmailTaken, entity.Email)
	case storage.IsUniqueViolation(err, "account.account_id"):
		return fmt.Errorf("%w: %s", ErrAccountIDTaken, entity.AccountID)
	}
	return err
}

// Delete removes an Account.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", id)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.Role != "" {
		where += " AND role = ?"
		args = append(args, filter.Role)
	}
	if filter.Search != "" {
		where += " AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR account_id LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term, term)
	}
	return where, args
}

// List returns accounts newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM account"+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		entity, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of accounts matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account"+where, args...).Scan(&n)
	return n, err
}

func scanAccount(row storage.Scanner) (domain.Account, error) {
	var a domain.Account
	var lockedUntil, createdAt, updatedAt sql.NullString
	err := row.Scan(
		&a.ID,
		&a.AccountID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&a.DisplayEmail,
		&a.PasswordHash,
		&a.Role,
		&a.FailedLogins,
		&lockedUntil,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	a.LockedUntil = storage.ParseTime(lockedUntil)
	a.CreatedAt = storage.ParseTime(createdAt)
	a.UpdatedAt = storage.ParseTime(updatedAt)
	return a, nil
}
