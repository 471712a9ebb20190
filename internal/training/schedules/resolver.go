package schedules

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/pkg"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ErrNoTrainingToday means the date has no planned training: either the
// template derives nothing for it, or the plan is calendar-typed and no
// explicit schedule exists. A normal negative result, not a failure.
var ErrNoTrainingToday = errors.New("no training today")

type resolverStore interface {
	GetByDate(ctx context.Context, userID, planID, date string) (*Schedule, error)
	Add(ctx context.Context, schedule Schedule) (*Schedule, error)
}

// Resolver answers "what does this user train on this date".
// Two tiers: a persisted schedule always wins; otherwise the answer is a
// pure function of (plan, date), materialized on first access.
type Resolver struct {
	store resolverStore
}

func NewResolver(store resolverStore) *Resolver {
	return &Resolver{
		store: store,
	}
}

// DeriveFromTemplate computes the exercises and targets the plan template
// assigns to the date, without touching storage. Returns an empty slice
// for days the template leaves free and for calendar-typed plans.
func DeriveFromTemplate(plan *plans.Plan, date string) ([]training.ExerciseID, map[training.ExerciseID]Target, error) {
	if plan.ScheduleType == plans.ScheduleCalendar {
		return nil, nil, nil
	}

	weekday, err := training.Weekday(date)
	if err != nil {
		return nil, nil, err
	}
	dayOfMonth, err := training.DayOfMonth(date)
	if err != nil {
		return nil, nil, err
	}

	var exercises []training.ExerciseID
	targets := make(map[training.ExerciseID]Target)
	for exerciseID, entry := range plan.ScheduleTemplate {
		var included bool
		switch plan.ScheduleType {
		case plans.ScheduleWeek:
			included = containsDay(entry.DaysOfWeek, weekday)
		case plans.ScheduleMonth:
			included = containsDay(entry.DaysOfMonth, dayOfMonth)
		}
		if !included {
			continue
		}
		exercises = append(exercises, exerciseID)
		targets[exerciseID] = Target{
			Level:     plan.StartLevel(exerciseID),
			SetsRange: plan.SetsRange,
		}
	}

	// map iteration order is random, keep canonical exercise order
	sort.Slice(exercises, func(i, j int) bool {
		return exerciseOrder(exercises[i]) < exerciseOrder(exercises[j])
	})

	if len(exercises) == 0 {
		return nil, nil, nil
	}
	return exercises, targets, nil
}

// ResolveDay resolves the training for the date, materializing a schedule
// on first access. Idempotent: a second call finds the persisted schedule
// and short-circuits.
func (r *Resolver) ResolveDay(ctx context.Context, plan *plans.Plan, date string) (_ *Schedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "schedules.resolveDay")
	defer func() {
		if err != nil && !errors.Is(err, ErrNoTrainingToday) {
			tracing.EndSpanWithErrCheck(span, err)
			return
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("date", date))

	if _, err := training.ParseDate(date); err != nil {
		return nil, err
	}

	existing, err := r.store.GetByDate(ctx, plan.UserID, plan.ID, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrScheduleNotFound) {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	// calendar plans have no implicit days, nothing to derive
	if plan.ScheduleType == plans.ScheduleCalendar {
		return nil, ErrNoTrainingToday
	}

	exercises, targets, err := DeriveFromTemplate(plan, date)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return nil, ErrNoTrainingToday
	}

	materialized, err := r.store.Add(ctx, Schedule{
		ID:        uuid.NewString(),
		UserID:    plan.UserID,
		PlanID:    plan.ID,
		Date:      date,
		Exercises: exercises,
		Targets:   targets,
		Status:    StatusPlanned,
		Generated: true,
	})
	if err != nil {
		// a concurrent request materialized the same day first; use its schedule
		if pkg.IsUniqueViolationError(err) {
			return r.store.GetByDate(ctx, plan.UserID, plan.ID, date)
		}
		return nil, fmt.Errorf("materialize schedule: %w", err)
	}
	return materialized, nil
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

func exerciseOrder(id training.ExerciseID) int {
	for i, e := range training.AllExercises {
		if e == id {
			return i
		}
	}
	return len(training.AllExercises)
}
