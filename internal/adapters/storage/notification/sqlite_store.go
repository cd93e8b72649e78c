package notification

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gymdesk/internal/adapters/storage"
	domain "gymdesk/internal/domain/notification"
)

const notificationColumns = `id, title, message, type, target_type, member_id, member_name, scheduled_date,
	send_time, is_recurring, recurrence_type, recurrence_anchor, status, sent_at, recipient_count, created_at, updated_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new NotificationStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Notification by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Notification, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+notificationColumns+" FROM notification WHERE id = ?", id)
	entity, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return domain.Notification{}, fmt.Errorf("notification not found: %w", err)
	}
	return entity, err
}

// Save persists a Notification (insert or update).
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, message=excluded.message, type=excluded.type,
			target_type=excluded.target_type, member_id=excluded.member_id,
			member_name=excluded.member_name, scheduled_date=excluded.scheduled_date,
			send_time=excluded.send_time, is_recurring=excluded.is_recurring,
			recurrence_type=excluded.recurrence_type, recurrence_anchor=excluded.recurrence_anchor,
			status=excluded.status,
			sent_at=excluded.sent_at, recipient_count=excluded.recipient_count,
			updated_at=excluded.updated_at`,
		n.ID,
		n.Title,
		n.Message,
		n.Type,
		n.TargetType,
		n.MemberID,
		n.MemberName,
		storage.NullDate(n.ScheduledDate),
		n.SendTime,
		storage.BoolInt(n.IsRecurring),
		n.RecurrenceType,
		storage.NullDate(n.RecurrenceAnchor),
		n.Status,
		storage.NullTime(n.SentAt),
		n.RecipientCount,
		storage.Timestamp(n.CreatedAt),
		storage.Timestamp(n.UpdatedAt),
	)
	return err
}

// Delete removes a Notification.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM notification WHERE id = ?", id)
	return err
}

func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		where += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.TargetType != "" {
		where += " AND target_type = ?"
		args = append(args, filter.TargetType)
	}
	if filter.MemberID != "" && len(filter.Audience) == 0 {
		where += " AND member_id = ?"
		args = append(args, filter.MemberID)
	}
	if len(filter.Audience) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Audience)), ", ")
		where += " AND (target_type IN (" + marks + ")"
		for _, a := range filter.Audience {
			args = append(args, a)
		}
		where += " OR (target_type = ? AND member_id = ?))"
		args = append(args, domain.TargetSpecific, filter.MemberID)
	}
	return where, args
}

// List returns notifications newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Notification, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	return s.query(ctx, "SELECT "+notificationColumns+" FROM notification"+where+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?", args...)
}

// Count returns the number of notifications matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notification"+where, args...).Scan(&n)
	return n, err
}

// ListScheduledUntil returns Scheduled notifications whose date is on or
// before date, oldest first. Send time is checked by the caller.
func (s *SQLiteStore) ListScheduledUntil(ctx context.Context, date time.Time) ([]domain.Notification, error) {
	return s.query(ctx,
		"SELECT "+notificationColumns+" FROM notification WHERE status = ? AND scheduled_date <= ? ORDER BY scheduled_date, send_time, id",
		domain.StatusScheduled, date.Format(storage.DateLayout))
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Notification
	for rows.Next() {
		entity, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

func scanNotification(row storage.Scanner) (domain.Notification, error) {
	var n domain.Notification
	var scheduled, anchor, sentAt, createdAt, updatedAt sql.NullString
	var recurring int
	err := row.Scan(
		&n.ID,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.TargetType,
		&n.MemberID,
		&n.MemberName,
		&scheduled,
		&n.SendTime,
		&recurring,
		&n.RecurrenceType,
		&anchor,
		&n.Status,
		&sentAt,
		&n.RecipientCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Notification{}, err
	}
	n.IsRecurring = recurring == 1
	n.ScheduledDate = storage.ParseDate(scheduled)
	n.RecurrenceAnchor = storage.ParseDate(anchor)
	n.SentAt = storage.ParseTime(sentAt)
	n.CreatedAt = storage.ParseTime(createdAt)
	n.UpdatedAt = storage.ParseTime(updatedAt)
	return n, nil
}
