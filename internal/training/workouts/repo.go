package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrWorkoutNotFound = errors.New("workout not found")

const workoutColumns = `id, user_id, plan_id, date, exercise_id, exercise_name, sets, reps_per_set, created_at, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, record Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", record.Date))
	span.SetAttributes(attribute.String("exercise", string(record.ExerciseID)))

	repsJson, err := json.Marshal(record.RepsPerSet)
	if err != nil {
		return nil, fmt.Errorf("marshal reps: %w", err)
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO workout_record
				(id, user_id, plan_id, date, exercise_id, exercise_name, sets, reps_per_set, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		record.ID, record.UserID, record.PlanID, record.Date, record.ExerciseID,
		record.ExerciseName, record.Sets, repsJson, record.CreatedAt, record.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert workout record: %w", err)
	}

	return &record, nil
}

// Update replaces the mutable payload of an existing record. Used after
// a merge, the record keeps its id and key.
func (r *Repo) Update(ctx context.Context, record *Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", record.ID))

	repsJson, err := json.Marshal(record.RepsPerSet)
	if err != nil {
		return fmt.Errorf("marshal reps: %w", err)
	}
	record.UpdatedAt = time.Now()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_record SET
				plan_id = $1, exercise_name = $2, sets = $3, reps_per_set = $4, updated_at = $5
			WHERE id = $6 AND user_id = $7;`,
		record.PlanID, record.ExerciseName, record.Sets, repsJson,
		record.UpdatedAt, record.ID, record.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, userID, id string) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout_record
			WHERE user_id = $1 AND id = $2;`,
		userID, id,
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
		return nil, ErrWorkoutNotFound
	}
	return &records[0], nil
}

// GetByKey returns the record for the given (user, date, exercise) key.
func (r *Repo) GetByKey(ctx context.Context, userID, date string, exerciseID training.ExerciseID) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.getByKey")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))
	span.SetAttributes(attribute.String("exercise", string(exerciseID)))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout_record
			WHERE user_id = $1 AND date = $2 AND exercise_id = $3;`,
		userID, date, exerciseID,
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
		return nil, ErrWorkoutNotFound
	}
	return &records[0], nil
}

func (r *Repo) ListByDate(ctx context.Context, userID, date string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listByDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout_record
			WHERE user_id = $1 AND date = $2
			ORDER BY created_at ASC;`,
		userID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2records(rows)
}

// ListRange returns records with dates in [dateFrom, dateTo], newest first.
func (r *Repo) ListRange(ctx context.Context, userID, dateFrom, dateTo string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listRange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", dateFrom))
	span.SetAttributes(attribute.String("to", dateTo))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+workoutColumns+`
			FROM workout_record
			WHERE user_id = $1
				AND date >= $2 AND date <= $3
			ORDER BY date DESC, created_at DESC;`,
		userID, dateFrom, dateTo,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2records(rows)
}

// Delete removes the record, reporting whether anything was deleted.
func (r *Repo) Delete(ctx context.Context, userID, id string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_record WHERE user_id = $1 AND id = $2;`,
		userID, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) rows2records(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var record Record
		var repsJson []byte
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.PlanID, &record.Date,
			&record.ExerciseID, &record.ExerciseName, &record.Sets,
			&repsJson, &record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if len(repsJson) > 0 {
			if err := json.Unmarshal(repsJson, &record.RepsPerSet); err != nil {
				return nil, fmt.Errorf("unmarshal reps: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
