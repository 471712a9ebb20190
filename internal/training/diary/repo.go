package diary

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const diaryColumns = `id, user_id, date, kind, exercise_id, exercise_name, sets, reps_per_set, activity_name, duration, notes, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add appends the entry. Entries are never updated or merged.
func (r *Repo) Add(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diary.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", entry.Date))
	span.SetAttributes(attribute.String("kind", entry.Kind))

	repsJson, err := json.Marshal(entry.RepsPerSet)
	if err != nil {
		return nil, fmt.Errorf("marshal reps: %w", err)
	}

	entry.CreatedAt = time.Now()

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO diary_record
				(id, user_id, date, kind, exercise_id, exercise_name, sets, reps_per_set, activity_name, duration, notes, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`,
		entry.ID, entry.UserID, entry.Date, entry.Kind, entry.ExerciseID,
		entry.ExerciseName, entry.Sets, repsJson, entry.ActivityName,
		entry.Duration, entry.Notes, entry.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert diary entry: %w", err)
	}

	return &entry, nil
}

// ListRange returns entries with dates in [dateFrom, dateTo], newest first.
func (r *Repo) ListRange(ctx context.Context, userID, dateFrom, dateTo string) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diary.listRange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", dateFrom))
	span.SetAttributes(attribute.String("to", dateTo))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+diaryColumns+`
			FROM diary_record
			WHERE user_id = $1
				AND date >= $2 AND date <= $3
			ORDER BY date DESC, created_at DESC;`,
		userID, dateFrom, dateTo,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2entries(rows)
}

// ListRecent returns the newest entries, up to limit.
func (r *Repo) ListRecent(ctx context.Context, userID string, limit int) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diary.listRecent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+diaryColumns+`
			FROM diary_record
			WHERE user_id = $1
			ORDER BY date DESC, created_at DESC
			LIMIT $2;`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2entries(rows)
}

// HasEntries reports whether any entry exists for the date.
func (r *Repo) HasEntries(ctx context.Context, userID, date string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.diary.hasEntries")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	var count int
	if err = r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM diary_record WHERE user_id = $1 AND date = $2;`,
		userID, date,
	).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repo) rows2entries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var repsJson []byte
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Date, &entry.Kind,
			&entry.ExerciseID, &entry.ExerciseName, &entry.Sets, &repsJson,
			&entry.ActivityName, &entry.Duration, &entry.Notes, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if len(repsJson) > 0 {
			if err := json.Unmarshal(repsJson, &entry.RepsPerSet); err != nil {
				return nil, fmt.Errorf("unmarshal reps: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
