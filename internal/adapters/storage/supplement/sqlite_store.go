package supplement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/supplement"
)

const supplementColumns = "id, name, brand, category, description, price, stock, barcode, expiry_date, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SupplementStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Supplement by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Supplement, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+supplementColumns+" FROM supplement WHERE id = ?", id)
	entity, err := scanSupplement(row)
	if err == sql.ErrNoRows {
		return domain.Supplement{}, fmt.Errorf("supplement not found: %w", err)
	}
	return entity, err
}

// Save persists a Supplement (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, p domain.Supplement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO supplement (`+supplementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, brand=excluded.brand, category=excluded.category,
			description=excluded.description, price=excluded.price, stock=excluded.stock,
			barcode=excluded.barcode, expiry_date=excluded.expiry_date,
			updated_at=excluded.updated_at`,
		p.ID,
		p.Name,
		p.Brand,
		p.Category,
		p.Description,
		p.Price,
		p.Stock,
		p.Barcode,
		storage.NullDate(p.ExpiryDate),
		storage.Timestamp(p.CreatedAt),
		storage.Timestamp(p.UpdatedAt),
	)
	return err
}

// UpdateStock overwrites the stock column.
// PRE: stock >= 0
// POST: stock persisted or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) UpdateStock(ctx context.Context, id string, stock int, now time.Time) error {
	res, err := s.db.ExecContext(ctx, "UPDATE supplement SET stock = ?, updated_at = ? WHERE id = ?", stock, storage.Timestamp(now), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("supplement not found: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete removes a Supplement. Past orders keep their captured item names.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM supplement WHERE id = ?", id)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.Search != "" {
		where += " AND (name LIKE ? OR brand LIKE ? OR barcode = ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, filter.Search)
	}
	if filter.Category != "" {
		where += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.InStockOnly {
		where += " AND stock > 0"
	}
	if filter.MaxStock != nil {
		where += " AND stock <= ?"
		args = append(args, *filter.MaxStock)
	}
	if !filter.ExpiresBy.IsZero() {
		where += " AND expiry_date IS NOT NULL AND expiry_date <= ?"
		args = append(args, filter.ExpiresBy.Format(storage.DateLayout))
	}
	return where, args
}

// List returns supplements ordered by name.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Supplement, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+supplementColumns+" FROM supplement"+where+" ORDER BY name, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Supplement
	for rows.Next() {
		entity, err := scanSupplement(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of supplements matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM supplement"+where, args...).Scan(&n)
	return n, err
}

func scanSupplement(row storage.Scanner) (domain.Supplement, error) {
	var p domain.Supplement
	var expiry, createdAt, updatedAt sql.NullString
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Brand,
		&p.Category,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.Barcode,
		&expiry,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Supplement{}, err
	}
	p.ExpiryDate = storage.ParseDate(expiry)
	p.CreatedAt = storage.ParseTime(createdAt)
	p.UpdatedAt = storage.ParseTime(updatedAt)
	return p, nil
}
