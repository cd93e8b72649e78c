package bill

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/billing"
)

const billColumns = "id, member_id, member_name, bill_number, amount, description, due_date, status, payment_date, payment_method, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new BillStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Bill by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Bill, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bill WHERE id = ?", id)
	entity, err := scanBill(row)
	if err == sql.ErrNoRows {
		return domain.Bill{}, fmt.Errorf("bill not found: %w", err)
	}
	return entity, err
}

// Save persists a Bill (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted; a bill number collision returns ErrBillNumberTaken
func (s *SQLiteStore) Save(ctx context.Context, b domain.Bill) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bill (`+billColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			member_id=excluded.member_id, member_name=excluded.member_name,
			bill_number=excluded.bill_number, amount=excluded.amount,
			description=excluded.description, due_date=excluded.due_date,
			status=excluded.status, payment_date=excluded.payment_date,
			payment_method=excluded.payment_method, updated_at=excluded.updated_at`,
		b.ID,
		b.MemberID,
		b.MemberName,
		b.BillNumber,
		b.Amount,
		b.Description,
		storage.NullDate(b.DueDate),
		b.Status,
		storage.NullDate(b.PaymentDate),
		b.PaymentMethod,
		storage.Timestamp(b.CreatedAt),
		storage.Timestamp(b.UpdatedAt),
	)
	if storage.IsUniqueViolation(err, "bill.bill_number") {
		return fmt.Errorf("%w: %s", ErrBillNumberTaken, b.BillNumber)
	}
	return err
}

// Delete removes a Bill.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM bill WHERE id = ?", id)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.MemberID != "" {
		where += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	switch {
	case filter.Status != "" && !filter.AsOf.IsZero():
		where += " AND CASE WHEN status = ? AND due_date < ? THEN ? ELSE status END = ?"
		args = append(args, domain.StatusPending, filter.AsOf.Format(storage.DateLayout), domain.StatusOverdue, filter.Status)
	case filter.Status != "":
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.UnpaidOnly {
		where += " AND status IN (?, ?)"
		args = append(args, domain.StatusPending, domain.StatusOverdue)
	}
	if !filter.DueFrom.IsZero() {
		where += " AND due_date >= ?"
		args = append(args, filter.DueFrom.Format(storage.DateLayout))
	}
	if !filter.DueTo.IsZero() {
		where += " AND due_date <= ?"
		args = append(args, filter.DueTo.Format(storage.DateLayout))
	}
	if filter.Search != "" {
		where += " AND (member_name LIKE ? OR bill_number LIKE ? OR description LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term)
	}
	return where, args
}

// List returns bills newest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Bill, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+billColumns+" FROM bill"+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Bill
	for rows.Next() {
		entity, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of bills matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bill"+where, args...).Scan(&n)
	return n, err
}

// SumUnpaidForMember totals the member's Pending and Overdue bills.
// POST: Returns the amount that member.dues should equal
func (s *SQLiteStore) SumUnpaidForMember(ctx context.Context, memberID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM bill WHERE member_id = ? AND status IN (?, ?)",
		memberID, domain.StatusPending, domain.StatusOverdue,
	).Scan(&total)
	return total, err
}

// SumUnpaid totals every Pending and Overdue bill.
func (s *SQLiteStore) SumUnpaid(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM bill WHERE status IN (?, ?)",
		domain.StatusPending, domain.StatusOverdue,
	).Scan(&total)
	return total, err
}

// SumPaidBetween totals bills paid on dates in [from, to].
func (s *SQLiteStore) SumPaidBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM bill WHERE status = ? AND payment_date >= ? AND payment_date <= ?",
		domain.StatusPaid, from.Format(storage.DateLayout), to.Format(storage.DateLayout),
	).Scan(&total)
	return total, err
}

// MarkOverdue flips every Pending bill due before today to Overdue.
// POST: Returns the number of bills changed
func (s *SQLiteStore) MarkOverdue(ctx context.Context, today time.Time, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bill SET status = ?, updated_at = ? WHERE status = ? AND due_date < ?",
		domain.StatusOverdue, storage.Timestamp(now), domain.StatusPending, today.Format(storage.DateLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanBill(row storage.Scanner) (domain.Bill, error) {
	var b domain.Bill
	var due, paid, createdAt, updatedAt sql.NullString
	err := row.Scan(
		&b.ID,
		&b.MemberID,
		&b.MemberName,
		&b.BillNumber,
		&b.Amount,
		&b.Description,
		&due,
		&b.Status,
		&paid,
		&b.PaymentMethod,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Bill{}, err
	}
	b.DueDate = storage.ParseDate(due)
	b.PaymentDate = storage.ParseDate(paid)
	b.CreatedAt = storage.ParseTime(createdAt)
	b.UpdatedAt = storage.ParseTime(updatedAt)
	return b, nil
}
