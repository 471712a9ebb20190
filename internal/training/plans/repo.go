package plans

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

var ErrPlanNotFound = errors.New("plan not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Add inserts the plan and archives all previously active plans of the user,
// keeping at most one active plan.
func (r *Repo) Add(ctx context.Context, plan Plan) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	scopeJson, err := json.Marshal(plan.ExerciseScope)
	if err != nil {
		return nil, fmt.Errorf("marshal exercise scope: %w", err)
	}
	templateJson, err := json.Marshal(plan.ScheduleTemplate)
	if err != nil {
		return nil, fmt.Errorf("marshal schedule template: %w", err)
	}
	startLevelsJson, err := json.Marshal(plan.StartLevels)
	if err != nil {
		return nil, fmt.Errorf("marshal start levels: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`UPDATE training_plan SET status = $1 WHERE user_id = $2 AND status = $3;`,
		PlanArchived, plan.UserID, PlanActive,
	); err != nil {
		return nil, fmt.Errorf("archive previous plans: %w", err)
	}

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now()
	}
	plan.Status = PlanActive

	if _, err = tx.Exec(
		ctx,
		`INSERT INTO training_plan
				(id, user_id, name, exercise_scope, schedule_type, schedule_template, start_levels, sets_range, stage_name, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		plan.ID, plan.UserID, plan.Name, scopeJson, plan.ScheduleType,
		templateJson, startLevelsJson, plan.SetsRange, plan.StageName,
		plan.Status, plan.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	span.SetAttributes(attribute.String("plan.id", plan.ID))
	return &plan, nil
}

// GetActive returns the single active plan of the user.
func (r *Repo) GetActive(ctx context.Context, userID string) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.getActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT
				id, user_id, name, exercise_scope, schedule_type, schedule_template, start_levels, sets_range, stage_name, status, created_at
			FROM training_plan
			WHERE user_id = $1 AND status = $2
			ORDER BY created_at DESC
			LIMIT 1;`,
		userID, PlanActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans, err := r.rows2plans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrPlanNotFound
	}
	return &plans[0], nil
}

// Get returns the plan with the given id, regardless of status.
func (r *Repo) Get(ctx context.Context, userID, planID string) (_ *Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("plan.id", planID))

	rows, err := r.db.Query(
		ctx,
		`SELECT
				id, user_id, name, exercise_scope, schedule_type, schedule_template, start_levels, sets_range, stage_name, status, created_at
			FROM training_plan
			WHERE user_id = $1 AND id = $2;`,
		userID, planID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans, err := r.rows2plans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) != 1 {
		return nil, ErrPlanNotFound
	}
	return &plans[0], nil
}

// ArchiveActive archives all active plans of the user and returns
// how many were archived.
func (r *Repo) ArchiveActive(ctx context.Context, userID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.plans.archiveActive")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE training_plan SET status = $1 WHERE user_id = $2 AND status = $3;`,
		PlanArchived, userID, PlanActive,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repo) rows2plans(rows pgx.Rows) ([]Plan, error) {
	var plans []Plan
	for rows.Next() {
		var plan Plan
		var scopeJson, templateJson, startLevelsJson []byte
		if err := rows.Scan(
			&plan.ID, &plan.UserID, &plan.Name, &scopeJson, &plan.ScheduleType,
			&templateJson, &startLevelsJson, &plan.SetsRange, &plan.StageName,
			&plan.Status, &plan.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		if err := json.Unmarshal(scopeJson, &plan.ExerciseScope); err != nil {
			return nil, fmt.Errorf("unmarshal exercise scope: %w", err)
		}
		if len(templateJson) > 0 {
			if err := json.Unmarshal(templateJson, &plan.ScheduleTemplate); err != nil {
				return nil, fmt.Errorf("unmarshal schedule template: %w", err)
			}
		}
		if len(startLevelsJson) > 0 {
			if err := json.Unmarshal(startLevelsJson, &plan.StartLevels); err != nil {
				return nil, fmt.Errorf("unmarshal start levels: %w", err)
			}
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}
