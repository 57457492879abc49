package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nextstep-backend/internal/db"
)

type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
	Night     TimeOfDay = "Night"
)

// Outcome values written to the interactions table.
const (
	OutcomeSuggested = "suggested"
	OutcomeSuccess   = "success"
	OutcomeStruggled = "struggled"
)

const DefaultHistoryLimit = 10

// Record is one row of the interaction log.
type Record struct {
	ID          int64     `json:"id"`
	Timestamp   string    `json:"timestamp"`
	TimeOfDay   TimeOfDay `json:"time_of_day"`
	TaskType    string    `json:"task_type"`
	SubtaskSize string    `json:"subtask_size"`
	Outcome     string    `json:"outcome"`
}

// Sink receives every record after it was stored (event bus, etc).
type Sink interface {
	Publish(ctx context.Context, rec Record) error
}

// Bucket maps a local time to its time-of-day bucket.
func Bucket(t time.Time) TimeOfDay {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}

type Recorder struct {
	db     *sql.DB
	driver string
	sink   Sink
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Recorder)

func WithSink(s Sink) Option {
	return func(r *Recorder) { r.sink = s }
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(database *sql.DB, driver string, logger *zap.Logger, opts ...Option) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{db: database, driver: driver, now: time.Now, logger: logger}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Log appends one interaction. Callers treat a failure as operator-only noise.
func (r *Recorder) Log(ctx context.Context, taskType, size, outcome string) error {
	now := r.now()
	rec := Record{
		Timestamp:   now.Format("2006-01-02T15:04:05.000000"),
		TimeOfDay:   Bucket(now),
		TaskType:    taskType,
		SubtaskSize: size,
		Outcome:     outcome,
	}

	_, err := r.db.ExecContext(ctx, db.Rebind(r.driver, `
		INSERT INTO interactions (timestamp, time_of_day, task_type, subtask_size, outcome)
		VALUES (?, ?, ?, ?, ?)
	`), rec.Timestamp, string(rec.TimeOfDay), rec.TaskType, rec.SubtaskSize, rec.Outcome)
	if err != nil {
		return fmt.Errorf("insert interaction: %w", err)
	}

	if r.sink != nil {
		if err := r.sink.Publish(ctx, rec); err != nil {
			r.logger.Warn("interaction sink publish failed", zap.Error(err))
		}
	}

	return nil
}

// Recent returns the newest records first. limit <= 0 means DefaultHistoryLimit.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver, `
		SELECT id, COALESCE(timestamp,''), COALESCE(time_of_day,''),
		       COALESCE(task_type,''), COALESCE(subtask_size,''), COALESCE(outcome,'')
		FROM interactions
		ORDER BY id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		var tod string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &tod, &rec.TaskType, &rec.SubtaskSize, &rec.Outcome); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		rec.TimeOfDay = TimeOfDay(tod)
		out = append(out, rec)
	}
	return out, rows.Err()
}
