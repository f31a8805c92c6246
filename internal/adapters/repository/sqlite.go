package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/kaliber/internal/domain/model"
	"github.com/okian/kaliber/internal/domain/types"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS feedback_events (
	id                  TEXT PRIMARY KEY,
	recommendation_id   TEXT NOT NULL,
	target_entity_id    TEXT NOT NULL,
	recommended_action  TEXT NOT NULL,
	recommended_channel TEXT NOT NULL,
	recommended_theme   TEXT NOT NULL DEFAULT '',
	original_confidence REAL NOT NULL,
	feedback_type       TEXT NOT NULL,
	feedback_by         TEXT NOT NULL DEFAULT '',
	feedback_at         INTEGER NOT NULL,
	feedback_reason     TEXT NOT NULL DEFAULT '',
	executed_action     TEXT,
	executed_channel    TEXT,
	executed_theme      TEXT,
	executed_at         INTEGER,
	outcome_type        TEXT NOT NULL,
	outcome_value       REAL,
	outcome_measured_at INTEGER,
	engagement_before   REAL,
	engagement_after    REAL,
	msi_before          REAL,
	msi_after           REAL,
	cpi_before          REAL,
	cpi_after           REAL,
	used_for_training   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_feedback_recommendation ON feedback_events(recommendation_id, feedback_at);
CREATE INDEX IF NOT EXISTS idx_feedback_entity ON feedback_events(target_entity_id, feedback_at);
CREATE INDEX IF NOT EXISTS idx_feedback_at ON feedback_events(feedback_at);
CREATE INDEX IF NOT EXISTS idx_feedback_pending ON feedback_events(outcome_type, executed_at);
`

const selectColumns = `id, recommendation_id, target_entity_id,
	recommended_action, recommended_channel, recommended_theme, original_confidence,
	feedback_type, feedback_by, feedback_at, feedback_reason,
	executed_action, executed_channel, executed_theme, executed_at,
	outcome_type, outcome_value, outcome_measured_at,
	engagement_before, engagement_after, msi_before, msi_after, cpi_before, cpi_after,
	used_for_training`

// Default busy timeout applied to the SQLite connection.
const defaultBusyTimeout = 5 * time.Second

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithBusyTimeout sets the SQLite busy timeout used when the database is
// locked by a concurrent writer.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the database at path and runs the schema.
func NewSQLiteStore(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.db = db
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert persists a new feedback event.
func (s *SQLiteStore) Insert(ctx context.Context, e model.FeedbackEvent) error {
	defer observe("insert")()

	if _, err := s.Get(ctx, e.ID); err == nil {
		return ErrDuplicateID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback_events (`+selectColumns+`)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.RecommendationID, e.TargetEntityID,
		string(e.RecommendedAction), string(e.RecommendedChannel), e.RecommendedTheme, e.OriginalConfidence,
		string(e.FeedbackType), e.FeedbackBy, e.FeedbackAt.UnixNano(), e.FeedbackReason,
		actionPtr(e.ExecutedAction), channelPtr(e.ExecutedChannel), e.ExecutedTheme, timePtr(e.ExecutedAt),
		string(e.OutcomeType), e.OutcomeValue, timePtr(e.OutcomeMeasuredAt),
		e.EngagementBefore, e.EngagementAfter, e.MSIBefore, e.MSIAfter, e.CPIBefore, e.CPIAfter,
		e.UsedForTraining,
	)
	if err != nil {
		return fmt.Errorf("insert feedback event: %w", err)
	}
	return nil
}

// Get returns the event with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.FeedbackEvent, error) {
	defer observe("get")()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM feedback_events WHERE id = ?`, id)
	return scanEvent(row)
}

// GetByRecommendation returns the most recent event for a recommendation.
func (s *SQLiteStore) GetByRecommendation(ctx context.Context, recommendationID string) (model.FeedbackEvent, error) {
	defer observe("get_by_recommendation")()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM feedback_events
		 WHERE recommendation_id = ? ORDER BY feedback_at DESC LIMIT 1`, recommendationID)
	return scanEvent(row)
}

// ListByEntity returns up to limit events for an entity, most recent first.
func (s *SQLiteStore) ListByEntity(ctx context.Context, entityID string, limit int) ([]model.FeedbackEvent, error) {
	defer observe("list_by_entity")()

	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM feedback_events
		 WHERE target_entity_id = ? ORDER BY feedback_at DESC LIMIT ?`, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list by entity: %w", err)
	}
	return scanEvents(rows)
}

// ListByWindow returns events whose FeedbackAt falls in [start, end].
func (s *SQLiteStore) ListByWindow(ctx context.Context, start, end time.Time) ([]model.FeedbackEvent, error) {
	defer observe("list_by_window")()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM feedback_events
		 WHERE feedback_at >= ? AND feedback_at <= ? ORDER BY feedback_at ASC`,
		start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list by window: %w", err)
	}
	return scanEvents(rows)
}

// ListPendingBefore returns unmeasured events executed at or before cutoff.
func (s *SQLiteStore) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]model.FeedbackEvent, error) {
	defer observe("list_pending")()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM feedback_events
		 WHERE outcome_type = ? AND executed_at IS NOT NULL AND executed_at <= ?
		 ORDER BY executed_at ASC`,
		string(types.OutcomePending), cutoff.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return scanEvents(rows)
}

// ApplyOutcome overwrites the outcome fields of an event.
func (s *SQLiteStore) ApplyOutcome(ctx context.Context, id string, o model.Outcome) (model.FeedbackEvent, error) {
	defer observe("apply_outcome")()

	res, err := s.db.ExecContext(ctx,
		`UPDATE feedback_events SET
			outcome_type = ?,
			outcome_value = ?,
			outcome_measured_at = ?,
			engagement_after = COALESCE(?, engagement_after),
			msi_after = COALESCE(?, msi_after),
			cpi_after = COALESCE(?, cpi_after)
		 WHERE id = ?`,
		string(o.Type), o.Value, o.MeasuredAt.UnixNano(),
		o.EngagementAfter, o.MSIAfter, o.CPIAfter, id)
	if err != nil {
		return model.FeedbackEvent{}, fmt.Errorf("apply outcome: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.FeedbackEvent{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// MarkUsedForTraining flags up to limit of the oldest untrained events.
func (s *SQLiteStore) MarkUsedForTraining(ctx context.Context, limit int) (int, error) {
	defer observe("mark_training")()

	if limit <= 0 {
		return 0, ErrInvalidLimit
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE feedback_events SET used_for_training = 1
		 WHERE id IN (
			SELECT id FROM feedback_events
			WHERE used_for_training = 0 ORDER BY feedback_at ASC LIMIT ?
		 )`, limit)
	if err != nil {
		return 0, fmt.Errorf("mark training: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark training rows: %w", err)
	}
	return int(n), nil
}

// CountUntrained returns the number of events not yet used for training.
func (s *SQLiteStore) CountUntrained(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback_events WHERE used_for_training = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count untrained: %w", err)
	}
	return n, nil
}

// Count returns the total number of stored events.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM feedback_events`).Scan(&n); err != nil {
		return 0
	}
	return n
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.FeedbackEvent, error) {
	var (
		e                             model.FeedbackEvent
		action, channel               string
		feedbackAt                    int64
		execAction, execChannel       sql.NullString
		execTheme                     sql.NullString
		executedAt, measuredAt        sql.NullInt64
		outcome                       string
		outcomeValue                  sql.NullFloat64
		engBefore, engAfter           sql.NullFloat64
		msiBefore, msiAfter           sql.NullFloat64
		cpiBefore, cpiAfter           sql.NullFloat64
	)

	err := row.Scan(
		&e.ID, &e.RecommendationID, &e.TargetEntityID,
		&action, &channel, &e.RecommendedTheme, &e.OriginalConfidence,
		(*string)(&e.FeedbackType), &e.FeedbackBy, &feedbackAt, &e.FeedbackReason,
		&execAction, &execChannel, &execTheme, &executedAt,
		&outcome, &outcomeValue, &measuredAt,
		&engBefore, &engAfter, &msiBefore, &msiAfter, &cpiBefore, &cpiAfter,
		&e.UsedForTraining,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FeedbackEvent{}, ErrNotFound
	}
	if err != nil {
		return model.FeedbackEvent{}, fmt.Errorf("scan feedback event: %w", err)
	}

	e.RecommendedAction = types.ActionType(action)
	e.RecommendedChannel = types.Channel(channel)
	e.FeedbackAt = time.Unix(0, feedbackAt).UTC()
	e.OutcomeType = types.OutcomeType(outcome)

	if execAction.Valid {
		a := types.ActionType(execAction.String)
		e.ExecutedAction = &a
	}
	if execChannel.Valid {
		c := types.Channel(execChannel.String)
		e.ExecutedChannel = &c
	}
	if execTheme.Valid {
		e.ExecutedTheme = &execTheme.String
	}
	if executedAt.Valid {
		t := time.Unix(0, executedAt.Int64).UTC()
		e.ExecutedAt = &t
	}
	if measuredAt.Valid {
		t := time.Unix(0, measuredAt.Int64).UTC()
		e.OutcomeMeasuredAt = &t
	}
	e.OutcomeValue = nullFloat(outcomeValue)
	e.EngagementBefore = nullFloat(engBefore)
	e.EngagementAfter = nullFloat(engAfter)
	e.MSIBefore = nullFloat(msiBefore)
	e.MSIAfter = nullFloat(msiAfter)
	e.CPIBefore = nullFloat(cpiBefore)
	e.CPIAfter = nullFloat(cpiAfter)
	return e, nil
}

func scanEvents(rows *sql.Rows) ([]model.FeedbackEvent, error) {
	defer rows.Close()

	var out []model.FeedbackEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback events: %w", err)
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func actionPtr(a *types.ActionType) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

func channelPtr(c *types.Channel) *string {
	if c == nil {
		return nil
	}
	s := string(*c)
	return &s
}

func timePtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := t.UnixNano()
	return &n
}
