package feepackage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/feepackage"
)

const packageColumns = "id, member_id, member_name, package_type, package_name, amount, duration, start_date, end_date, status, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new FeePackageStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a FeePackage by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.FeePackage, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+packageColumns+" FROM fee_package WHERE id = ?", id)
	entity, err := scanPackage(row)
	if err == sql.ErrNoRows {
		return domain.FeePackage{}, fmt.Errorf("fee package not found: %w", err)
	}
	return entity, err
}

// LatestForMember returns the most recently assigned, non-cancelled package.
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) LatestForMember(ctx context.Context, memberID string) (domain.FeePackage, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+packageColumns+" FROM fee_package WHERE member_id = ? AND status != ? ORDER BY created_at DESC, id DESC LIMIT 1",
		memberID, domain.StatusCancelled)
	entity, err := scanPackage(row)
	if err == sql.ErrNoRows {
		return domain.FeePackage{}, fmt.Errorf("fee package not found: %w", err)
	}
	return entity, err
}

// Save persists a FeePackage (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, p domain.FeePackage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fee_package (`+packageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			member_id=excluded.member_id, member_name=excluded.member_name,
			package_type=excluded.package_type, package_name=excluded.package_name,
			amount=excluded.amount, duration=excluded.duration,
			start_date=excluded.start_date, end_date=excluded.end_date,
			status=excluded.status, updated_at=excluded.updated_at`,
		p.ID,
		p.MemberID,
		p.MemberName,
		p.PackageType,
		p.PackageName,
		p.Amount,
		p.Duration,
		storage.NullDate(p.StartDate),
		storage.NullDate(p.EndDate),
		p.Status,
		storage.Timestamp(p.CreatedAt),
		storage.Timestamp(p.UpdatedAt),
	)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.MemberID != "" {
		where += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.PackageType != "" {
		where += " AND package_type = ?"
		args = append(args, filter.PackageType)
	}
	return where, args
}

// List returns packages newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.FeePackage, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+packageColumns+" FROM fee_package"+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.FeePackage
	for rows.Next() {
		entity, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of packages matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fee_package"+where, args...).Scan(&n)
	return n, err
}

// ExpireLapsed flips Active packages that ended before today to Expired.
// POST: Returns the number of packages changed
func (s *SQLiteStore) ExpireLapsed(ctx context.Context, today time.Time, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE fee_package SET status = ?, updated_at = ? WHERE status = ? AND end_date < ?",
		domain.StatusExpired, storage.Timestamp(now), domain.StatusActive, today.Format(storage.DateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanPackage(row storage.Scanner) (domain.FeePackage, error) {
	var p domain.FeePackage
	var start, end, createdAt, updatedAt sql.NullString
	err := row.Scan(
		&p.ID,
		&p.MemberID,
		&p.MemberName,
		&p.PackageType,
		&p.PackageName,
		&p.Amount,
		&p.Duration,
		&start,
		&end,
		&p.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.FeePackage{}, err
	}
	p.StartDate = storage.ParseDate(start)
	p.EndDate = storage.ParseDate(end)
	p.CreatedAt = storage.ParseTime(createdAt)
	p.UpdatedAt = storage.ParseTime(updatedAt)
	return p, nil
}
