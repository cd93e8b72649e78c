package dietplan

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/dietplan"
)

const planColumns = "id, member_id, member_name, title, goal, daily_calories, meals, notes, start_date, end_date, status, created_by, created_at, updated_at"

// SQLiteStore implements Store using SQLite. Meals are kept as a JSON array.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new DietPlanStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a DietPlan by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.DietPlan, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+planColumns+" FROM diet_plan WHERE id = ?", id)
	entity, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return domain.DietPlan{}, fmt.Errorf("diet plan not found: %w", err)
	}
	return entity, err
}

// Save persists a DietPlan (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, p domain.DietPlan) error {
	meals := p.Meals
	if meals == nil {
		meals = []domain.Meal{}
	}
	encoded, err := json.Marshal(meals)
	if err != nil {
		return fmt.Errorf("encode meals: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO diet_plan (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			member_id=excluded.member_id, member_name=excluded.member_name,
			title=excluded.title, goal=excluded.goal, daily_calories=excluded.daily_calories,
			meals=excluded.meals, notes=excluded.notes,
			start_date=excluded.start_date, end_date=excluded.end_date,
			status=excluded.status, updated_at=excluded.updated_at`,
		p.ID,
		p.MemberID,
		p.MemberName,
		p.Title,
		p.Goal,
		p.DailyCalories,
		string(encoded),
		p.Notes,
		storage.NullDate(p.StartDate),
		storage.NullDate(p.EndDate),
		p.Status,
		p.CreatedBy,
		storage.Timestamp(p.CreatedAt),
		storage.Timestamp(p.UpdatedAt),
	)
	return err
}

// Delete removes a DietPlan.
// POST: Returns an error wrapping sql.ErrNoRows if nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM diet_plan WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("diet plan not found: %w", sql.ErrNoRows)
	}
	return nil
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
	if filter.Goal != "" {
		where += " AND goal = ?"
		args = append(args, filter.Goal)
	}
	return where, args
}

// List returns plans, latest start first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.DietPlan, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	rows, err := s.db.QueryContext(ctx, "SELECT "+planColumns+" FROM diet_plan"+where+" ORDER BY start_date DESC, created_at DESC, id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.DietPlan
	for rows.Next() {
		entity, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Count returns the number of plans matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM diet_plan"+where, args...).Scan(&n)
	return n, err
}

func scanPlan(row storage.Scanner) (domain.DietPlan, error) {
	var p domain.DietPlan
	var meals string
	var start, end, createdAt, updatedAt sql.NullString
	err := row.Scan(
		&p.ID,
		&p.MemberID,
		&p.MemberName,
		&p.Title,
		&p.Goal,
		&p.DailyCalories,
		&meals,
		&p.Notes,
		&start,
		&end,
		&p.Status,
		&p.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.DietPlan{}, err
	}
	if err := json.Unmarshal([]byte(meals), &p.Meals); err != nil {
		return domain.DietPlan{}, fmt.Errorf("decode meals of diet plan %s: %w", p.ID, err)
	}
	p.StartDate = storage.ParseDate(start)
	p.EndDate = storage.ParseDate(end)
	p.CreatedAt = storage.ParseTime(createdAt)
	p.UpdatedAt = storage.ParseTime(updatedAt)
	return p, nil
}
