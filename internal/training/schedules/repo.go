package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrScheduleNotFound = errors.New("schedule not found")

const scheduleColumns = `id, user_id, plan_id, date, exercises, targets, status, swapped, generated, created_at, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add inserts a new schedule. At most one schedule may exist per
// (user, plan, date); a second insert for the same key fails on the
// unique constraint.
func (r *Repo) Add(ctx context.Context, schedule Schedule) (_ *Schedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", schedule.Date))

	exercisesJson, targetsJson, err := marshalPayload(&schedule)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO schedule
				(id, user_id, plan_id, date, exercises, targets, status, swapped, generated, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		schedule.ID, schedule.UserID, schedule.PlanID, schedule.Date,
		exercisesJson, targetsJson, schedule.Status, schedule.Swapped,
		schedule.Generated, schedule.CreatedAt, schedule.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}

	return &schedule, nil
}

// Upsert inserts the schedule or, when one already exists for the same
// (user, plan, date), replaces its payload.
func (r *Repo) Upsert(ctx context.Context, schedule Schedule) (_ *Schedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", schedule.Date))

	exercisesJson, targetsJson, err := marshalPayload(&schedule)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	if _, err = r.db.Exec(
		ctx,
		`INSERT INTO schedule
				(id, user_id, plan_id, date, exercises, targets, status, swapped, generated, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (user_id, plan_id, date) DO UPDATE SET
				exercises = EXCLUDED.exercises,
				targets = EXCLUDED.targets,
				status = EXCLUDED.status,
				swapped = EXCLUDED.swapped,
				generated = EXCLUDED.generated,
				updated_at = EXCLUDED.updated_at;`,
		schedule.ID, schedule.UserID, schedule.PlanID, schedule.Date,
		exercisesJson, targetsJson, schedule.Status, schedule.Swapped,
		schedule.Generated, schedule.CreatedAt, schedule.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert schedule: %w", err)
	}

	return &schedule, nil
}

// GetByDate returns the schedule for the given date. An empty planID
// matches a schedule of any plan.
func (r *Repo) GetByDate(ctx context.Context, userID, planID, date string) (_ *Schedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.getByDate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+scheduleColumns+`
			FROM schedule
			WHERE user_id = $1
				AND ($2::text = '' OR plan_id = $2)
				AND date = $3
			ORDER BY updated_at DESC
			LIMIT 1;`,
		userID, planID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules, err := r.rows2schedules(rows)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, ErrScheduleNotFound
	}
	return &schedules[0], nil
}

// ListRange returns schedules with dates in [dateFrom, dateTo], ordered by date.
// An empty planID matches all plans.
func (r *Repo) ListRange(ctx context.Context, userID, planID, dateFrom, dateTo string) (_ []Schedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.listRange")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("from", dateFrom))
	span.SetAttributes(attribute.String("to", dateTo))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+scheduleColumns+`
			FROM schedule
			WHERE user_id = $1
				AND ($2::text = '' OR plan_id = $2)
				AND date >= $3 AND date <= $4
			ORDER BY date ASC;`,
		userID, planID, dateFrom, dateTo,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return r.rows2schedules(rows)
}

// Update replaces the mutable payload of an existing schedule.
func (r *Repo) Update(ctx context.Context, schedule *Schedule) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", schedule.ID))

	exercisesJson, targetsJson, err := marshalPayload(schedule)
	if err != nil {
		return err
	}
	schedule.UpdatedAt = time.Now()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE schedule SET
				exercises = $1, targets = $2, status = $3, swapped = $4, generated = $5, updated_at = $6
			WHERE id = $7 AND user_id = $8;`,
		exercisesJson, targetsJson, schedule.Status, schedule.Swapped,
		schedule.Generated, schedule.UpdatedAt, schedule.ID, schedule.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// UpdateBoth applies both schedule updates in one transaction,
// all-or-nothing. Used by the swap engine.
func (r *Repo) UpdateBoth(ctx context.Context, first, second *Schedule) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.updateBoth")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, schedule := range []*Schedule{first, second} {
		exercisesJson, targetsJson, merr := marshalPayload(schedule)
		if merr != nil {
			err = merr
			return err
		}
		schedule.UpdatedAt = time.Now()

		tag, uerr := tx.Exec(
			ctx,
			`UPDATE schedule SET
					exercises = $1, targets = $2, status = $3, swapped = $4, generated = $5, updated_at = $6
				WHERE id = $7 AND user_id = $8;`,
			exercisesJson, targetsJson, schedule.Status, schedule.Swapped,
			schedule.Generated, schedule.UpdatedAt, schedule.ID, schedule.UserID,
		)
		if uerr != nil {
			err = uerr
			return err
		}
		if tag.RowsAffected() == 0 {
			err = ErrScheduleNotFound
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateStatus flips only the status of the schedule at the given date.
func (r *Repo) UpdateStatus(ctx context.Context, userID, planID, date string, status Status) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.schedules.updateStatus")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("date", date))
	span.SetAttributes(attribute.String("status", string(status)))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE schedule SET status = $1, updated_at = $2
			WHERE user_id = $3
				AND ($4::text = '' OR plan_id = $4)
				AND date = $5;`,
		status, time.Now(), userID, planID, date,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func marshalPayload(schedule *Schedule) (exercisesJson, targetsJson []byte, err error) {
	exercisesJson, err = json.Marshal(schedule.Exercises)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal exercises: %w", err)
	}
	targetsJson, err = json.Marshal(schedule.Targets)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal targets: %w", err)
	}
	return exercisesJson, targetsJson, nil
}

func (r *Repo) rows2schedules(rows pgx.Rows) ([]Schedule, error) {
	var schedules []Schedule
	for rows.Next() {
		var schedule Schedule
		var exercisesJson, targetsJson []byte
		if err := rows.Scan(
			&schedule.ID, &schedule.UserID, &schedule.PlanID, &schedule.Date,
			&exercisesJson, &targetsJson, &schedule.Status, &schedule.Swapped,
			&schedule.Generated, &schedule.CreatedAt, &schedule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if len(exercisesJson) > 0 {
			if err := json.Unmarshal(exercisesJson, &schedule.Exercises); err != nil {
				return nil, fmt.Errorf("unmarshal exercises: %w", err)
			}
		}
		if len(targetsJson) > 0 {
			if err := json.Unmarshal(targetsJson, &schedule.Targets); err != nil {
				return nil, fmt.Errorf("unmarshal targets: %w", err)
			}
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}
