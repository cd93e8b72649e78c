package member

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/member"
)

const memberColumns = `id, account_id, first_name, last_name, email, phone, date_of_birth, gender,
	address, city, state, zip_code, emergency_contact, emergency_phone, membership_type,
	start_date, end_date, status, dues, photo_url, last_check_in, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new MemberStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	entity, err := scanMember(row)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// GetByAccountID retrieves the Member linked to a login account.
// PRE: accountID is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE account_id = ? ORDER BY created_at LIMIT 1", accountID)
	entity, err := scanMember(row)
	if err == sql.ErrNoRows {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	return entity, err
}

// Save persists a Member (insert or update). Dues is written on insert only;
// afterwards it changes through UpdateDues alongside the bill writes.
// PRE: entity has been validated
// POST: Entity is persisted; an existing row keeps its dues
func (s *SQLiteStore) Save(ctx context.Context, m domain.Member) error {
	var accountID any
	if m.AccountID != "" {
		accountID = m.AccountID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO member (`+memberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id=excluded.account_id, first_name=excluded.first_name, last_name=excluded.last_name,
			email=excluded.email, phone=excluded.phone, date_of_birth=excluded.date_of_birth,
			gender=excluded.gender, address=excluded.address, city=excluded.city, state=excluded.state,
			zip_code=excluded.zip_code, emergency_contact=excluded.emergency_contact,
			emergency_phone=excluded.emergency_phone, membership_type=excluded.membership_type,
			start_date=excluded.start_date, end_date=excluded.end_date, status=excluded.status,
			photo_url=excluded.photo_url, last_check_in=excluded.last_check_in,
			updated_at=excluded.updated_at`,
		m.ID,
		accountID,
		m.FirstName,
		m.LastName,
		m.Email,
		m.Phone,
		storage.NullDate(m.DateOfBirth),
		m.Gender,
		m.Address,
		m.City,
		m.State,
		m.ZipCode,
		m.EmergencyContact,
		m.EmergencyPhone,
		m.MembershipType,
		storage.NullDate(m.StartDate),
		storage.NullDate(m.EndDate),
		m.Status,
		m.Dues,
		m.PhotoURL,
		storage.NullTime(m.LastCheckIn),
		storage.Timestamp(m.CreatedAt),
		storage.Timestamp(m.UpdatedAt),
	)
	return err
}

// UpdateDues overwrites only the dues column.
// PRE: dues >= 0
// POST: dues persisted or an error wrapping sql.ErrNoRows if the member is gone
func (s *SQLiteStore) UpdateDues(ctx context.Context, id string, dues int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE member SET dues = ? WHERE id = ?", dues, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("member not found: %w", sql.ErrNoRows)
	}
	return nil
}

// RefreshStatuses moves Active members past their end date to Expired and
// Expired members whose end date is today or later back to Active. Inactive
// members are left alone.
// PRE: today is a civil date
// POST: Returns the number of rows changed
func (s *SQLiteStore) RefreshStatuses(ctx context.Context, today, now time.Time) (int64, error) {
	day := today.Format(storage.DateLayout)
	res, err := s.db.ExecContext(ctx, `
		UPDATE member SET
			status = CASE WHEN end_date < ? THEN ? ELSE ? END,
			updated_at = ?
		WHERE end_date IS NOT NULL
			AND ((status = ? AND end_date < ?) OR (status = ? AND end_date >= ?))`,
		day, domain.StatusExpired, domain.StatusActive,
		storage.Timestamp(now),
		domain.StatusActive, day, domain.StatusExpired, day,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a Member. Bills, packages and orders keep their copy of
// the member's name and are not touched.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM member WHERE id = ?", id)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	switch {
	case filter.Status != "" && filter.AsOf != "":
		where += " AND CASE WHEN status = ? THEN status WHEN end_date IS NULL THEN status WHEN end_date < ? THEN ? ELSE ? END = ?"
		args = append(args, domain.StatusInactive, filter.AsOf, domain.StatusExpired, domain.StatusActive, filter.Status)
	case filter.Status != "":
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.MembershipType != "" {
		where += " AND membership_type = ?"
		args = append(args, filter.MembershipType)
	}
	if filter.Search != "" {
		where += " AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone LIKE ?)"
		term := "%" + filter.Search + "%"
		args = append(args, term, term, term, term)
	}
	if filter.EndBefore != "" {
		where += " AND end_date IS NOT NULL AND end_date < ?"
		args = append(args, filter.EndBefore)
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted;
// the default is newest first.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"name":    "first_name",
		"email":   "email",
		"status":  "status",
		"endDate": "end_date",
		"dues":    "dues",
		"created": "created_at",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY created_at DESC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", id"
}

// Count returns the number of members matching the filter.
// POST: Returns count >= 0
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&count)
	return count, err
}

// List retrieves Members matching the filter.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, "SELECT "+memberColumns+" FROM member"+where+sortClause(filter)+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanMember(row storage.Scanner) (domain.Member, error) {
	var m domain.Member
	var accountID, dob, start, end, lastCheckIn, createdAt, updatedAt sql.NullString
	err := row.Scan(
		&m.ID,
		&accountID,
		&m.FirstName,
		&m.LastName,
		&m.Email,
		&m.Phone,
		&dob,
		&m.Gender,
		&m.Address,
		&m.City,
		&m.State,
		&m.ZipCode,
		&m.EmergencyContact,
		&m.EmergencyPhone,
		&m.MembershipType,
		&start,
		&end,
		&m.Status,
		&m.Dues,
		&m.PhotoURL,
		&lastCheckIn,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}
	m.AccountID = accountID.String
	m.DateOfBirth = storage.ParseDate(dob)
	m.StartDate = storage.ParseDate(start)
	m.EndDate = storage.ParseDate(end)
	m.LastCheckIn = storage.ParseTime(lastCheckIn)
	m.CreatedAt = storage.ParseTime(createdAt)
	m.UpdatedAt = storage.ParseTime(updatedAt)
	return m, nil
}
