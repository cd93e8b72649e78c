package supplement

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/supplement"
)

const orderColumns = "id, member_id, member_name, placed_by, total_amount, status, order_date, payment_method, created_at, updated_at"

// SQLiteOrderStore implements OrderStore using SQLite. Save writes the order
// row and its items with several statements, so callers bind it to a
// transaction.
type SQLiteOrderStore struct {
	db storage.SQLDB
}

var _ OrderStore = (*SQLiteOrderStore)(nil)

// NewSQLiteOrderStore creates a new OrderStore.
func NewSQLiteOrderStore(db storage.SQLDB) *SQLiteOrderStore {
	return &SQLiteOrderStore{db: db}
}

// GetByID retrieves an Order with its items.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteOrderStore) GetByID(ctx context.Context, id string) (domain.Order, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM supplement_order WHERE id = ?", id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return domain.Order{}, fmt.Errorf("order not found: %w", err)
	}
	if err != nil {
		return domain.Order{}, err
	}
	items, err := s.items(ctx, []string{o.ID})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items[o.ID]
	return o, nil
}

// Save persists an Order and replaces its items.
// PRE: entity has been validated
// POST: Order row and exactly its Items are persisted
func (s *SQLiteOrderStore) Save(ctx context.Context, o domain.Order) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO supplement_order (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			member_id=excluded.member_id, member_name=excluded.member_name, placed_by=excluded.placed_by,
			total_amount=excluded.total_amount, status=excluded.status,
			order_date=excluded.order_date, payment_method=excluded.payment_method,
			updated_at=excluded.updated_at`,
		o.ID,
		o.MemberID,
		o.MemberName,
		o.PlacedBy,
		o.TotalAmount,
		o.Status,
		storage.NullDate(o.OrderDate),
		o.PaymentMethod,
		storage.Timestamp(o.CreatedAt),
		storage.Timestamp(o.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM supplement_order_item WHERE order_id = ?", o.ID); err != nil {
		return err
	}
	for i, it := range o.Items {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO supplement_order_item (order_id, line, supplement_id, name, quantity, fulfilled, unit_price) VALUES (?, ?, ?, ?, ?, ?, ?)",
			o.ID, i, it.SupplementID, it.Name, it.Quantity, it.Fulfilled, it.UnitPrice,
		); err != nil {
			return err
		}
	}
	return nil
}

func orderWhereClause(filter OrderFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.MemberID != "" {
		where += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if filter.PlacedBy != "" {
		where += " AND placed_by = ?"
		args = append(args, filter.PlacedBy)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		where += " AND order_date >= ?"
		args = append(args, filter.From.Format(storage.DateLayout))
	}
	if !filter.To.IsZero() {
		where += " AND order_date <= ?"
		args = append(args, filter.To.Format(storage.DateLayout))
	}
	return where, args
}

// List returns orders newest first, with items.
func (s *SQLiteOrderStore) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	where, args := orderWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+orderColumns+" FROM supplement_order"+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	var results []domain.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return results, nil
	}
	items, err := s.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Items = items[results[i].ID]
	}
	return results, nil
}

// Count returns the number of orders matching the filter.
func (s *SQLiteOrderStore) Count(ctx context.Context, filter OrderFilter) (int, error) {
	where, args := orderWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM supplement_order"+where, args...).Scan(&n)
	return n, err
}

// SumCompletedBetween totals completed orders dated in [from, to].
func (s *SQLiteOrderStore) SumCompletedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_amount), 0) FROM supplement_order WHERE status = ? AND order_date >= ? AND order_date <= ?",
		domain.OrderCompleted, from.Format(storage.DateLayout), to.Format(storage.DateLayout),
	).Scan(&total)
	return total, err
}

func (s *SQLiteOrderStore) items(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	// one query per order keeps the placeholder count bounded
	for _, id := range orderIDs {
		rows, err := s.db.QueryContext(ctx,
			"SELECT supplement_id, name, quantity, fulfilled, unit_price FROM supplement_order_item WHERE order_id = ? ORDER BY line", id)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var it domain.OrderItem
			if err := rows.Scan(&it.SupplementID, &it.Name, &it.Quantity, &it.Fulfilled, &it.UnitPrice); err != nil {
				rows.Close()
				return nil, err
			}
			out[id] = append(out[id], it)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func scanOrder(row storage.Scanner) (domain.Order, error) {
	var o domain.Order
	var orderDate, createdAt, updatedAt sql.NullString
	err := row.Scan(
		&o.ID,
		&o.MemberID,
		&o.MemberName,
		&o.PlacedBy,
		&o.TotalAmount,
		&o.Status,
		&orderDate,
		&o.PaymentMethod,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.OrderDate = storage.ParseDate(orderDate)
	o.CreatedAt = storage.ParseTime(createdAt)
	o.UpdatedAt = storage.ParseTime(updatedAt)
	return o, nil
}
