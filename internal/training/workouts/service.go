package workouts

import (
	"context"
	"errors"
	"fmt"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/training/schedules"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type recordsStore interface {
	Add(ctx context.Context, record Record) (*Record, error)
	Update(ctx context.Context, record *Record) error
	Get(ctx context.Context, userID, id string) (*Record, error)
	GetByKey(ctx context.Context, userID, date string, exerciseID training.ExerciseID) (*Record, error)
	ListByDate(ctx context.Context, userID, date string) ([]Record, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

type scheduleStore interface {
	GetByDate(ctx context.Context, userID, planID, date string) (*schedules.Schedule, error)
	UpdateStatus(ctx context.Context, userID, planID, date string, status schedules.Status) error
}

type activePlanGetter interface {
	GetActive(ctx context.Context, userID string) (*plans.Plan, error)
}

type progressAdvancer interface {
	Advance(ctx context.Context, userID string, exerciseID training.ExerciseID, startLevel int) error
}

type diaryChecker interface {
	HasEntries(ctx context.Context, userID, date string) (bool, error)
}

// Service ties a log submission to its side effects: the day's record
// is merged or created, the day's schedule flips to completed, and the
// exercise progression advances one level.
type Service struct {
	records   recordsStore
	schedules scheduleStore
	plans     activePlanGetter
	progress  progressAdvancer
	diaries   diaryChecker
}

func NewService(
	records recordsStore,
	scheduleStore scheduleStore,
	planGetter activePlanGetter,
	progress progressAdvancer,
	diaries diaryChecker,
) *Service {
	return &Service{
		records:   records,
		schedules: scheduleStore,
		plans:     planGetter,
		progress:  progress,
		diaries:   diaries,
	}
}

// Log merges the submission into the existing same-day record for the
// exercise, or creates a new one. The merge is find-then-update without
// a transaction, so two concurrent logs for the same key can lose one
// delta. Accepted as best effort.
func (s *Service) Log(ctx context.Context, userID string, input LogInput) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.log")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", string(input.ExerciseID)))

	sets, repsPerSet, err := input.Normalize()
	if err != nil {
		return nil, err
	}

	startLevel := 1
	planID := input.PlanID
	activePlan, err := s.plans.GetActive(ctx, userID)
	switch {
	case err == nil:
		startLevel = activePlan.StartLevel(input.ExerciseID)
		if planID == "" {
			planID = activePlan.ID
		}
	case errors.Is(err, plans.ErrPlanNotFound):
		// logging without a plan is fine, progression starts at level 1
	default:
		return nil, fmt.Errorf("get active plan: %w", err)
	}

	incoming := Record{
		UserID:       userID,
		PlanID:       planID,
		Date:         input.Date,
		ExerciseID:   input.ExerciseID,
		ExerciseName: input.ExerciseName,
		Sets:         sets,
		RepsPerSet:   repsPerSet,
	}

	var record *Record
	existing, err := s.records.GetByKey(ctx, userID, input.Date, input.ExerciseID)
	switch {
	case err == nil:
		merged := Merge(*existing, incoming)
		if err := s.records.Update(ctx, &merged); err != nil {
			return nil, fmt.Errorf("update record: %w", err)
		}
		record = &merged
	case errors.Is(err, ErrWorkoutNotFound):
		incoming.ID = uuid.NewString()
		record, err = s.records.Add(ctx, incoming)
		if err != nil {
			return nil, fmt.Errorf("add record: %w", err)
		}
	default:
		return nil, fmt.Errorf("get record: %w", err)
	}

	if err := s.completeScheduledDay(ctx, userID, input.Date); err != nil {
		return nil, err
	}

	if err := s.progress.Advance(ctx, userID, input.ExerciseID, startLevel); err != nil {
		return nil, fmt.Errorf("advance progression: %w", err)
	}

	return record, nil
}

// completeScheduledDay flips the day's schedule to completed. Rest days
// and days without a schedule are left alone.
func (s *Service) completeScheduledDay(ctx context.Context, userID, date string) error {
	schedule, err := s.schedules.GetByDate(ctx, userID, "", date)
	if errors.Is(err, schedules.ErrScheduleNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get schedule: %w", err)
	}
	if schedule.Status.IsRest() || schedule.Status == schedules.StatusCompleted {
		return nil
	}
	if err := s.schedules.UpdateStatus(ctx, userID, schedule.PlanID, date, schedules.StatusCompleted); err != nil {
		return fmt.Errorf("complete schedule: %w", err)
	}
	return nil
}

// DeleteResult reports the day's state after a record was removed.
type DeleteResult struct {
	Date      string             `json:"date"`
	DayStatus training.DayStatus `json:"dayStatus"`
}

// Delete removes the record and rolls the day back: when no record
// remains for the date and the schedule is a completed non-rest day,
// its status reverts to planned.
func (s *Service) Delete(ctx context.Context, userID, id string) (_ *DeleteResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	record, err := s.records.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	deleted, err := s.records.Delete(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}
	if !deleted {
		return nil, ErrWorkoutNotFound
	}

	remaining, err := s.records.ListByDate(ctx, userID, record.Date)
	if err != nil {
		return nil, fmt.Errorf("list remaining records: %w", err)
	}
	hasWorkout := len(remaining) > 0

	hasDiary, err := s.diaries.HasEntries(ctx, userID, record.Date)
	if err != nil {
		return nil, fmt.Errorf("check diary entries: %w", err)
	}

	scheduleRest := false
	schedule, err := s.schedules.GetByDate(ctx, userID, "", record.Date)
	switch {
	case errors.Is(err, schedules.ErrScheduleNotFound):
		// nothing to roll back
	case err != nil:
		return nil, fmt.Errorf("get schedule: %w", err)
	default:
		scheduleRest = schedule.Status.IsRest()
		if !hasWorkout && !scheduleRest && schedule.Status == schedules.StatusCompleted {
			if err := s.schedules.UpdateStatus(ctx, userID, schedule.PlanID, record.Date, schedules.StatusPlanned); err != nil {
				return nil, fmt.Errorf("roll back schedule: %w", err)
			}
			log.Debugf("workout %s deleted, schedule for %s rolled back to planned", id, record.Date)
		}
	}

	dayStatus := training.DayNone
	switch {
	case hasWorkout || hasDiary:
		dayStatus = training.DayTrained
	case scheduleRest:
		dayStatus = training.DayRest
	}

	return &DeleteResult{
		Date:      record.Date,
		DayStatus: dayStatus,
	}, nil
}
