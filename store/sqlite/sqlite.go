/*
Package sqlite provides a SQLite-backed implementation of the engine's
collaborator interfaces.

PURPOSE:
  Implements vacation.Store, vacation.WorkItemSource,
  vacation.ManagerDirectory, and vacation.Transport (as a durable
  notification outbox) using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  vacation_ranges:   One row per leave period
  vacation_statuses: Planned / not-planned categories
  vacations:         Derived per-user summary, upserted as a whole
  vacation_managers: (manager, managed user) assignment rows
  work_items:        The collaborator's issue table
  notifications:     Outbox of pending/sent notifications

UNIQUENESS:
  Per-user start_date and end_date uniqueness binds creation only, so
  it is enforced by the domain validation and, against racing inserts,
  by BEFORE INSERT triggers. Updates stay unconstrained: a range may be
  moved onto another range's dates.

OUTBOX:
  NotifyBatch inserts every notification of a batch inside one SQL
  transaction. That is the all-or-nothing boundary the dispatcher
  relies on: either the whole batch is durably queued or none of it.
  Delivery to the actual transport happens asynchronously (see
  api.Notifier), which keeps retry policy out of the core.

WAL MODE:
  SQLite is opened with WAL and foreign keys on: multiple readers,
  single writer, better crash recovery.

SEE ALSO:
  - vacation/store.go: Interface definitions
  - vacation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/vacation-engine/vacation"
)

// Store implements the persistence interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from fragmenting across connections.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vacation_statuses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		is_planned BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS vacation_ranges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		vacation_status_id INTEGER NOT NULL REFERENCES vacation_statuses(id),
		start_date TEXT NOT NULL,
		end_date TEXT,
		duration INTEGER,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Endpoint uniqueness binds creation only: an update may move a
	-- range onto another range's dates. Insert-only triggers close the
	-- race the domain validation leaves open without constraining
	-- updates the way a unique index would.
	DROP INDEX IF EXISTS ux_ranges_user_start;
	DROP INDEX IF EXISTS ux_ranges_user_end;

	CREATE TRIGGER IF NOT EXISTS trg_ranges_start_taken
	BEFORE INSERT ON vacation_ranges
	FOR EACH ROW WHEN EXISTS (
		SELECT 1 FROM vacation_ranges
		WHERE user_id = NEW.user_id AND start_date = NEW.start_date
	)
	BEGIN
		SELECT RAISE(ABORT, 'start_date taken');
	END;

	CREATE TRIGGER IF NOT EXISTS trg_ranges_end_taken
	BEFORE INSERT ON vacation_ranges
	FOR EACH ROW WHEN NEW.end_date IS NOT NULL AND EXISTS (
		SELECT 1 FROM vacation_ranges
		WHERE user_id = NEW.user_id AND end_date = NEW.end_date
	)
	BEGIN
		SELECT RAISE(ABORT, 'end_date taken');
	END;

	CREATE INDEX IF NOT EXISTS idx_ranges_user
		ON vacation_ranges(user_id, start_date DESC, end_date DESC);
	CREATE INDEX IF NOT EXISTS idx_ranges_status
		ON vacation_ranges(vacation_status_id);

	-- Derived summary, one row per user, upserted as a whole.
	CREATE TABLE IF NOT EXISTS vacations (
		user_id INTEGER PRIMARY KEY,
		active_planned_vacation_id INTEGER,
		last_planned_vacation_id INTEGER,
		not_planned_vacation_id INTEGER,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vacation_managers (
		user_id INTEGER NOT NULL,
		managed_user_id INTEGER NOT NULL,
		UNIQUE(user_id, managed_user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_managers_user
		ON vacation_managers(user_id);

	-- The collaborator's issue table, reduced to what dispatch needs.
	CREATE TABLE IF NOT EXISTS work_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL DEFAULT 0,
		assigned_to_id INTEGER NOT NULL DEFAULT 0,
		subject TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		due_date TEXT,
		open BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE INDEX IF NOT EXISTS idx_work_items_author
		ON work_items(author_id) WHERE open;
	CREATE INDEX IF NOT EXISTS idx_work_items_assignee
		ON work_items(assigned_to_id) WHERE open;

	-- Notification outbox. Batches are inserted atomically.
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		recipient_id INTEGER NOT NULL,
		issue_ids TEXT NOT NULL,
		range_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		sent_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_pending
		ON notifications(created_at) WHERE status = 'pending';
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RANGES (vacation.Store interface)
// =============================================================================

// SaveRange inserts when ID is zero, updates otherwise. Insert-trigger
// aborts are translated into field-scoped validation errors.
func (s *Store) SaveRange(ctx context.Context, r *vacation.VacationRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if r.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO vacation_ranges
			(user_id, vacation_status_id, start_date, end_date, duration, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.UserID, r.StatusID, r.StartDate.String(), nullDate(r.EndDate),
			nullInt(r.Duration), r.Description, now, now,
		)
		if err != nil {
			return translateRangeError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read inserted range id: %w", err)
		}
		r.ID = vacation.RangeID(id)
		return nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE vacation_ranges
		SET user_id = ?, vacation_status_id = ?, start_date = ?, end_date = ?,
		    duration = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		r.UserID, r.StatusID, r.StartDate.String(), nullDate(r.EndDate),
		nullInt(r.Duration), r.Description, now, r.ID,
	)
	if err != nil {
		return translateRangeError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return vacation.ErrRangeNotFound
	}
	return nil
}

func (s *Store) FindRange(ctx context.Context, id vacation.RangeID) (*vacation.VacationRange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, rangeSelect+" WHERE r.id = ?", id)
	r, err := scanRange(row)
	if err == sql.ErrNoRows {
		return nil, vacation.ErrRangeNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) FindRanges(ctx context.Context, q vacation.RangeQuery) ([]vacation.VacationRange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := rangeSelect
	var (
		conds []string
		args  []any
	)

	if q.Planned != nil {
		query += " JOIN vacation_statuses st ON st.id = r.vacation_status_id"
		conds = append(conds, "st.is_planned = ?")
		args = append(args, *q.Planned)
	}
	if q.UserID != nil {
		conds = append(conds, "r.user_id = ?")
		args = append(args, *q.UserID)
	}
	if q.StatusID != nil {
		conds = append(conds, "r.vacation_status_id = ?")
		args = append(args, *q.StatusID)
	}
	if q.Bucket != nil {
		conds = append(conds, fmt.Sprintf("r.%s BETWEEN ? AND ?", q.Field()))
		args = append(args, q.Bucket.From.String(), q.Bucket.To.String())
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	dir := "ASC"
	if q.Order == vacation.OrderDesc {
		dir = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY r.start_date %s, r.end_date %s", dir, dir)

	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranges: %w", err)
	}
	defer rows.Close()

	var result []vacation.VacationRange
	for rows.Next() {
		r, err := scanRange(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (s *Store) HasRangeStarting(ctx context.Context, user vacation.UserID, d vacation.Date) (bool, error) {
	return s.exists(ctx,
		"SELECT COUNT(*) FROM vacation_ranges WHERE user_id = ? AND start_date = ?",
		user, d.String())
}

func (s *Store) HasRangeEnding(ctx context.Context, user vacation.UserID, d vacation.Date) (bool, error) {
	return s.exists(ctx,
		"SELECT COUNT(*) FROM vacation_ranges WHERE user_id = ? AND end_date = ?",
		user, d.String())
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count > 0, err
}

func (s *Store) UserIDsWithRanges(ctx context.Context) ([]vacation.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT user_id FROM vacation_ranges ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users with ranges: %w", err)
	}
	defer rows.Close()

	var users []vacation.UserID
	for rows.Next() {
		var u vacation.UserID
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const rangeSelect = `
	SELECT r.id, r.user_id, r.vacation_status_id, r.start_date, r.end_date,
	       r.duration, r.description, r.created_at, r.updated_at
	FROM vacation_ranges r`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRange(row rowScanner) (*vacation.VacationRange, error) {
	var (
		r         vacation.VacationRange
		startDate string
		endDate   sql.NullString
		duration  sql.NullInt64
		createdAt string
		updatedAt string
	)

	err := row.Scan(&r.ID, &r.UserID, &r.StatusID, &startDate, &endDate,
		&duration, &r.Description, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if r.StartDate, err = vacation.ParseDate(startDate); err != nil {
		return nil, err
	}
	if endDate.Valid {
		d, err := vacation.ParseDate(endDate.String)
		if err != nil {
			return nil, err
		}
		r.EndDate = &d
	}
	if duration.Valid {
		n := int(duration.Int64)
		r.Duration = &n
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &r, nil
}

// translateRangeError maps insert-trigger aborts onto the same
// field-scoped errors the domain validation produces.
func translateRangeError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "start_date taken"):
		return vacation.ValidationErrors{{Field: "start_date", Code: vacation.CodeTaken}}
	case strings.Contains(msg, "end_date taken"):
		return vacation.ValidationErrors{{Field: "end_date", Code: vacation.CodeTaken}}
	}
	return fmt.Errorf("failed to save range: %w", err)
}

// =============================================================================
// STATUSES
// =============================================================================

func (s *Store) FindStatus(ctx context.Context, id vacation.StatusID) (*vacation.VacationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st vacation.VacationStatus
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, is_planned FROM vacation_statuses WHERE id = ?", id,
	).Scan(&st.ID, &st.Name, &st.IsPlanned)
	if err == sql.ErrNoRows {
		return nil, vacation.ErrStatusNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) ListStatuses(ctx context.Context) ([]vacation.VacationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, is_planned FROM vacation_statuses ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query statuses: %w", err)
	}
	defer rows.Close()

	var result []vacation.VacationStatus
	for rows.Next() {
		var st vacation.VacationStatus
		if err := rows.Scan(&st.ID, &st.Name, &st.IsPlanned); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func (s *Store) SaveStatus(ctx context.Context, st *vacation.VacationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			"INSERT INTO vacation_statuses (name, is_planned) VALUES (?, ?)",
			st.Name, st.IsPlanned)
		if err != nil {
			return fmt.Errorf("failed to insert status: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		st.ID = vacation.StatusID(id)
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE vacation_statuses SET name = ?, is_planned = ? WHERE id = ?",
		st.Name, st.IsPlanned, st.ID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// =============================================================================
// SUMMARIES
// =============================================================================

func (s *Store) Summary(ctx context.Context, user vacation.UserID) (*vacation.VacationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		summary   vacation.VacationSummary
		active    sql.NullInt64
		last      sql.NullInt64
		notPl     sql.NullInt64
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, active_planned_vacation_id, last_planned_vacation_id,
		       not_planned_vacation_id, updated_at
		FROM vacations WHERE user_id = ?`, user,
	).Scan(&summary.UserID, &active, &last, &notPl, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	summary.ActivePlanned = nullableRangeID(active)
	summary.LastPlanned = nullableRangeID(last)
	summary.NotPlanned = nullableRangeID(notPl)
	summary.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &summary, nil
}

// UpsertSummary writes all three references in one statement, so a
// partial update is never observable.
func (s *Store) UpsertSummary(ctx context.Context, user vacation.UserID, fields vacation.SummaryFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vacations
		(user_id, active_planned_vacation_id, last_planned_vacation_id, not_planned_vacation_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			active_planned_vacation_id = excluded.active_planned_vacation_id,
			last_planned_vacation_id = excluded.last_planned_vacation_id,
			not_planned_vacation_id = excluded.not_planned_vacation_id,
			updated_at = excluded.updated_at`,
		user, nullRangeID(fields.ActivePlanned), nullRangeID(fields.LastPlanned),
		nullRangeID(fields.NotPlanned), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}
	return nil
}

// =============================================================================
// WORK ITEMS (vacation.WorkItemSource interface)
// =============================================================================

// AddWorkItem seeds an issue row. In a full deployment this table is
// fed by the issue tracker, not by this engine.
func (s *Store) AddWorkItem(ctx context.Context, item *vacation.WorkItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO work_items (author_id, assigned_to_id, subject, start_date, due_date, open)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.AuthorID, item.AssigneeID, item.Subject,
		item.StartDate.String(), nullDate(item.DueDate), item.Open,
	)
	if err != nil {
		return fmt.Errorf("failed to insert work item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = vacation.WorkItemID(id)
	return nil
}

func (s *Store) OpenItemsByAuthor(ctx context.Context, user vacation.UserID) ([]vacation.WorkItem, error) {
	return s.queryWorkItems(ctx,
		workItemSelect+" WHERE open AND author_id = ? ORDER BY id", user)
}

func (s *Store) OpenItemsByAssignee(ctx context.Context, user vacation.UserID) ([]vacation.WorkItem, error) {
	return s.queryWorkItems(ctx,
		workItemSelect+" WHERE open AND assigned_to_id = ? ORDER BY id", user)
}

const workItemSelect = `
	SELECT id, author_id, assigned_to_id, subject, start_date, due_date, open
	FROM work_items`

func (s *Store) queryWorkItems(ctx context.Context, query string, args ...any) ([]vacation.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work items: %w", err)
	}
	defer rows.Close()

	var result []vacation.WorkItem
	for rows.Next() {
		var (
			item      vacation.WorkItem
			startDate string
			dueDate   sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.AuthorID, &item.AssigneeID,
			&item.Subject, &startDate, &dueDate, &item.Open); err != nil {
			return nil, err
		}
		if item.StartDate, err = vacation.ParseDate(startDate); err != nil {
			return nil, err
		}
		if dueDate.Valid {
			d, err := vacation.ParseDate(dueDate.String)
			if err != nil {
				return nil, err
			}
			item.DueDate = &d
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// =============================================================================
// MANAGER DIRECTORY (vacation.ManagerDirectory interface)
// =============================================================================

// AssignManager records that manager oversees the managed user's leave.
func (s *Store) AssignManager(ctx context.Context, manager, managed vacation.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vacation_managers (user_id, managed_user_id) VALUES (?, ?)
		ON CONFLICT(user_id, managed_user_id) DO NOTHING`,
		manager, managed)
	if err != nil {
		return fmt.Errorf("failed to assign manager: %w", err)
	}
	return nil
}

func (s *Store) IsManager(ctx context.Context, user vacation.UserID) (bool, error) {
	return s.exists(ctx,
		"SELECT COUNT(*) FROM vacation_managers WHERE user_id = ?", user)
}

// NonManagers returns the users owning ranges who appear in no manager
// assignment row.
func (s *Store) NonManagers(ctx context.Context) ([]vacation.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM vacation_ranges
		WHERE user_id NOT IN (SELECT user_id FROM vacation_managers)
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query non-managers: %w", err)
	}
	defer rows.Close()

	var users []vacation.UserID
	for rows.Next() {
		var u vacation.UserID
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// NOTIFICATION OUTBOX (vacation.Transport interface)
// =============================================================================

// OutboxNotification is a queued notification with its delivery state.
type OutboxNotification struct {
	ID string
	vacation.Notification
	CreatedAt time.Time
}

// NotifyBatch durably queues the whole batch inside one SQL
// transaction: all rows or none.
func (s *Store) NotifyBatch(ctx context.Context, batch []vacation.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin outbox transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, n := range batch {
		issueIDs, err := json.Marshal(n.IssueIDs)
		if err != nil {
			return fmt.Errorf("failed to encode issue ids: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notifications
			(id, kind, recipient_id, issue_ids, range_id, user_id, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, 'pending', ?)`,
			uuid.NewString(), n.Kind, n.RecipientID, string(issueIDs),
			n.RangeID, n.UserID, now,
		)
		if err != nil {
			return fmt.Errorf("failed to queue notification: %w", err)
		}
	}
	return tx.Commit()
}

// PendingNotifications returns up to limit queued notifications, oldest
// first.
func (s *Store) PendingNotifications(ctx context.Context, limit int) ([]OutboxNotification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, recipient_id, issue_ids, range_id, user_id, created_at
		FROM notifications WHERE status = 'pending'
		ORDER BY created_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending notifications: %w", err)
	}
	defer rows.Close()

	var result []OutboxNotification
	for rows.Next() {
		var (
			n         OutboxNotification
			issueIDs  string
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Kind, &n.RecipientID, &issueIDs,
			&n.RangeID, &n.UserID, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(issueIDs), &n.IssueIDs); err != nil {
			return nil, fmt.Errorf("failed to decode issue ids: %w", err)
		}
		n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, n)
	}
	return result, rows.Err()
}

// MarkSent flags delivered notifications.
func (s *Store) MarkSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	args := make([]any, 0, len(ids)+1)
	args = append(args, now)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET status = 'sent', sent_at = ? WHERE id IN ("+placeholders+")",
		args...)
	if err != nil {
		return fmt.Errorf("failed to mark notifications sent: %w", err)
	}
	return nil
}

// =============================================================================
// SQL HELPERS
// =============================================================================

func nullDate(d *vacation.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullRangeID(id *vacation.RangeID) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableRangeID(v sql.NullInt64) *vacation.RangeID {
	if !v.Valid {
		return nil
	}
	id := vacation.RangeID(v.Int64)
	return &id
}
