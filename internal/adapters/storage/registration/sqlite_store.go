package registration

import (
	"context"
	"database/sql"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/registration"
)

const requestColumns = "id, first_name, last_name, email, phone, role, password_hash, status, requested_at, reviewed_at, reviewed_by, rejection_reason, account_id"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new RegistrationStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Request by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+requestColumns+" FROM registration_request WHERE id = ?", id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return domain.Request{}, fmt.Errorf("registration request not found: %w", err)
	}
	return r, err
}

// GetPendingByEmail returns the pending request for a normalized email.
func (s *SQLiteStore) GetPendingByEmail(ctx context.Context, email string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM registration_request WHERE email = ? AND status = ? ORDER BY requested_at DESC LIMIT 1",
		email, domain.StatusPending)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return domain.Request{}, fmt.Errorf("no pending registration for email: %w", err)
	}
	return r, err
}

// Save persists a Request (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, r domain.Request) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO registration_request (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status, reviewed_at=excluded.reviewed_at,
			reviewed_by=excluded.reviewed_by, rejection_reason=excluded.rejection_reason,
			account_id=excluded.account_id`,
		r.ID,
		r.FirstName,
		r.LastName,
		r.Email,
		r.Phone,
		r.Role,
		r.PasswordHash,
		r.Status,
		storage.Timestamp(r.RequestedAt),
		storage.NullTime(r.ReviewedAt),
		r.ReviewedBy,
		r.RejectionReason,
		r.AccountID,
	)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	if filter.Status == "" {
		return "", nil
	}
	return " WHERE status = ?", []any{filter.Status}
}

// List returns requests, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Request, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+requestColumns+" FROM registration_request"+where+" ORDER BY requested_at DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of requests matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registration_request"+where, args...).Scan(&n)
	return n, err
}

func scanRequest(row storage.Scanner) (domain.Request, error) {
	var r domain.Request
	var requestedAt, reviewedAt sql.NullString
	err := row.Scan(
		&r.ID,
		&r.FirstName,
		&r.LastName,
		&r.Email,
		&r.Phone,
		&r.Role,
		&r.PasswordHash,
		&r.Status,
		&requestedAt,
		&reviewedAt,
		&r.ReviewedBy,
		&r.RejectionReason,
		&r.AccountID,
	)
	if err != nil {
		return domain.Request{}, err
	}
	r.RequestedAt = storage.ParseTime(requestedAt)
	r.ReviewedAt = storage.ParseTime(reviewedAt)
	return r, nil
}
