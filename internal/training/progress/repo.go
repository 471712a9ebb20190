package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrProgressNotFound = errors.New("progress record not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID string, exerciseID training.ExerciseID) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", string(exerciseID)))

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id, exercise_id, current_name, current_level, next_name, next_level, created_at, updated_at
			FROM progress_record
			WHERE user_id = $1 AND exercise_id = $2;`,
		userID, exerciseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := r.rows2records(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrProgressNotFound
	}
	return &records[0], nil
}

func (r *Repo) List(ctx context.Context, userID string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id, exercise_id, current_name, current_level, next_name, next_level, created_at, updated_at
			FROM progress_record
			WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2records(rows)
}

// Upsert writes the record for its (user, exercise) key, creating it on
// first use.
func (r *Repo) Upsert(ctx context.Context, record Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", string(record.ExerciseID)))
	span.SetAttributes(attribute.Int("level", record.CurrentStage.Level))

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO progress_record
				(user_id, exercise_id, current_name, current_level, next_name, next_level, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (user_id, exercise_id) DO UPDATE SET
				current_name = EXCLUDED.current_name,
				current_level = EXCLUDED.current_level,
				next_name = EXCLUDED.next_name,
				next_level = EXCLUDED.next_level,
				updated_at = EXCLUDED.updated_at;`,
		record.UserID, record.ExerciseID,
		record.CurrentStage.Name, record.CurrentStage.Level,
		record.NextStage.Name, record.NextStage.Level,
		record.CreatedAt, record.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert progress record: %w", err)
	}
	return nil
}

func (r *Repo) rows2records(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(
			&record.UserID, &record.ExerciseID,
			&record.CurrentStage.Name, &record.CurrentStage.Level,
			&record.NextStage.Name, &record.NextStage.Level,
			&record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
