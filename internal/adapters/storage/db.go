package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// migrations are applied in order; index i holds schema version i+1.
// Never edit an applied migration, append a new one.
var migrations = []string{
	// 1: core tables
	`
	CREATE TABLE account (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL UNIQUE,
		display_email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE member (
		id TEXT PRIMARY KEY,
		account_id TEXT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT,
		gender TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		emergency_contact TEXT NOT NULL DEFAULT '',
		emergency_phone TEXT NOT NULL DEFAULT '',
		membership_type TEXT NOT NULL DEFAULT '',
		start_date TEXT,
		end_date TEXT,
		status TEXT NOT NULL,
		dues INTEGER NOT NULL DEFAULT 0 CHECK (dues >= 0),
		photo_url TEXT NOT NULL DEFAULT '',
		last_check_in TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_member_account ON member(account_id);
	CREATE INDEX idx_member_email ON member(email);

	CREATE TABLE bill (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		member_name TEXT NOT NULL DEFAULT '',
		bill_number TEXT NOT NULL UNIQUE,
		amount INTEGER NOT NULL CHECK (amount > 0),
		description TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_date TEXT,
		payment_method TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_bill_member ON bill(member_id);
	CREATE INDEX idx_bill_status ON bill(status);

	CREATE TABLE fee_package (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		member_name TEXT NOT NULL DEFAULT '',
		package_type TEXT NOT NULL,
		package_name TEXT NOT NULL,
		amount INTEGER NOT NULL,
		duration INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_fee_package_member ON fee_package(member_id);

	CREATE TABLE notification (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		type TEXT NOT NULL,
		target_type TEXT NOT NULL,
		member_id TEXT NOT NULL DEFAULT '',
		member_name TEXT NOT NULL DEFAULT '',
		scheduled_date TEXT NOT NULL,
		send_time TEXT NOT NULL DEFAULT '',
		is_recurring INTEGER NOT NULL DEFAULT 0,
		recurrence_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		sent_at TEXT,
		recipient_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_notification_status ON notification(status, scheduled_date);

	CREATE TABLE supplement (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price INTEGER NOT NULL CHECK (price >= 0),
		stock INTEGER NOT NULL CHECK (stock >= 0),
		barcode TEXT NOT NULL DEFAULT '',
		expiry_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE supplement_order (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL DEFAULT '',
		member_name TEXT NOT NULL DEFAULT '',
		total_amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		order_date TEXT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_supplement_order_member ON supplement_order(member_id);

	CREATE TABLE supplement_order_item (
		order_id TEXT NOT NULL REFERENCES supplement_order(id) ON DELETE CASCADE,
		line INTEGER NOT NULL,
		supplement_id TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price INTEGER NOT NULL,
		PRIMARY KEY (order_id, line)
	);

	CREATE TABLE registration_request (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		status TEXT NOT NULL,
		requested_at TEXT NOT NULL,
		reviewed_at TEXT,
		reviewed_by TEXT NOT NULL DEFAULT '',
		rejection_reason TEXT NOT NULL DEFAULT '',
		account_id TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX idx_registration_status ON registration_request(status);
	`,
	// 2: email delivery outbox
	`
	CREATE TABLE outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX idx_outbox_status ON outbox(status);
	`,
	// 3: self-service orders remember the placing account
	`
	ALTER TABLE supplement_order ADD COLUMN placed_by TEXT NOT NULL DEFAULT '';
	CREATE INDEX idx_supplement_order_placed_by ON supplement_order(placed_by);
	`,
	// 4: units actually taken from stock per order line
	`
	ALTER TABLE supplement_order_item ADD COLUMN fulfilled INTEGER NOT NULL DEFAULT 0 CHECK (fulfilled >= 0);
	UPDATE supplement_order_item SET fulfilled = quantity;
	`,
	// 5: first date of a recurring notification series
	`
	ALTER TABLE notification ADD COLUMN recurrence_anchor TEXT;
	`,
	// 6: member diet plans
	`
	CREATE TABLE diet_plan (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		member_name TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		goal TEXT NOT NULL,
		daily_calories INTEGER NOT NULL DEFAULT 0 CHECK (daily_calories >= 0),
		meals TEXT NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT,
		status TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX idx_diet_plan_member ON diet_plan(member_id, status);
	`,
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return len(migrations)
}

// Open opens a SQLite database at path with WAL, foreign keys, a busy timeout
// and immediate-mode transactions so read-modify-write transactions cannot
// deadlock on lock upgrade.
// PRE: path is a file path or ":memory:"
// POST: Returns an open pool; callers must Close it
func Open(path string) (*sql.DB, error) {
	dsn := path
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
// PRE: db is a valid database connection
// POST: Returns version >= 0
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL, applied_at TEXT NOT NULL)"); err != nil {
		return 0, fmt.Errorf("failed to create schema_version: %w", err)
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid database connection
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this binary (%d)", current, len(migrations))
	}
	for i := current; i < len(migrations); i++ {
		version := i + 1
		if err := applyMigration(db, version, migrations[i]); err != nil {
			return err
		}
		slog.Info("storage_event", "event", "migration_applied", "version", version)
	}
	return nil
}

func applyMigration(db *sql.DB, version int, ddl string) error {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
		version, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	return tx.Commit()
}
