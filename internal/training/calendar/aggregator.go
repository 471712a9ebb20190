package calendar

import (
	"context"
	"fmt"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/diary"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/training/schedules"
	"github.com/keepfit/keepfit/internal/training/workouts"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// PlanType is what a day asked for, before looking at what was logged.
type PlanType string

const (
	PlanTypePlanned PlanType = "planned"
	PlanTypeRest    PlanType = "rest"
	PlanTypeNone    PlanType = "none"
)

// DayDetail is the full picture for one day of the month.
type DayDetail struct {
	PlanType         PlanType              `json:"planType"`
	HasTraining      bool                  `json:"hasTraining"`
	ScheduleStatus   schedules.Status      `json:"scheduleStatus,omitempty"`
	PlannedExercises []training.ExerciseID `json:"plannedExercises,omitempty"`
}

// MonthStatus maps every date of the month to its day status, plus the
// per-day detail behind it.
type MonthStatus struct {
	StatusMap map[string]training.DayStatus `json:"statusMap"`
	DetailMap map[string]DayDetail          `json:"detailMap"`
}

type workoutsLister interface {
	ListRange(ctx context.Context, userID, dateFrom, dateTo string) ([]workouts.Record, error)
}

type diaryLister interface {
	ListRange(ctx context.Context, userID, dateFrom, dateTo string) ([]diary.Entry, error)
}

type schedulesLister interface {
	ListRange(ctx context.Context, userID, planID, dateFrom, dateTo string) ([]schedules.Schedule, error)
}

// Aggregator builds the monthly view out of plans, schedules, workout
// records and diary entries.
type Aggregator struct {
	workouts  workoutsLister
	diaries   diaryLister
	schedules schedulesLister
}

func NewAggregator(workoutsStore workoutsLister, diaryStore diaryLister, scheduleStore schedulesLister) *Aggregator {
	return &Aggregator{
		workouts:  workoutsStore,
		diaries:   diaryStore,
		schedules: scheduleStore,
	}
}

// BuildMonthStatus computes the day status for every date of the month.
// The three store reads are independent and run concurrently. Persisted
// schedules always win over the plan template; a calendar plan never
// derives implicit days.
func (a *Aggregator) BuildMonthStatus(ctx context.Context, userID string, plan *plans.Plan, year, month int) (_ *MonthStatus, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "calendar.buildMonthStatus")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("year", year))
	span.SetAttributes(attribute.Int("month", month))

	dates, err := training.MonthDates(year, month)
	if err != nil {
		return nil, err
	}
	dateFrom, dateTo := dates[0], dates[len(dates)-1]

	planID := ""
	if plan != nil {
		planID = plan.ID
	}

	var (
		workoutRecords []workouts.Record
		diaryEntries   []diary.Entry
		monthSchedules []schedules.Schedule
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var gerr error
		workoutRecords, gerr = a.workouts.ListRange(groupCtx, userID, dateFrom, dateTo)
		return gerr
	})
	group.Go(func() error {
		var gerr error
		diaryEntries, gerr = a.diaries.ListRange(groupCtx, userID, dateFrom, dateTo)
		return gerr
	})
	group.Go(func() error {
		var gerr error
		monthSchedules, gerr = a.schedules.ListRange(groupCtx, userID, planID, dateFrom, dateTo)
		return gerr
	})
	if err = group.Wait(); err != nil {
		return nil, fmt.Errorf("fetch month data: %w", err)
	}

	trainedDates := make(map[string]bool, len(workoutRecords)+len(diaryEntries))
	for _, record := range workoutRecords {
		trainedDates[record.Date] = true
	}
	for _, entry := range diaryEntries {
		trainedDates[entry.Date] = true
	}

	scheduleByDate := make(map[string]*schedules.Schedule, len(monthSchedules))
	for i := range monthSchedules {
		scheduleByDate[monthSchedules[i].Date] = &monthSchedules[i]
	}

	status := &MonthStatus{
		StatusMap: make(map[string]training.DayStatus, len(dates)),
		DetailMap: make(map[string]DayDetail, len(dates)),
	}
	for _, date := range dates {
		detail, derr := a.dayDetail(plan, scheduleByDate[date], date, trainedDates[date])
		if derr != nil {
			return nil, derr
		}
		status.DetailMap[date] = detail
		status.StatusMap[date] = dayStatus(detail.PlanType, detail.HasTraining)
	}
	return status, nil
}

func (a *Aggregator) dayDetail(plan *plans.Plan, schedule *schedules.Schedule, date string, hasTraining bool) (DayDetail, error) {
	detail := DayDetail{
		PlanType:    PlanTypeNone,
		HasTraining: hasTraining,
	}

	if schedule != nil {
		detail.ScheduleStatus = schedule.Status
		detail.PlannedExercises = schedule.Exercises
		switch {
		case schedule.Status.IsRest():
			detail.PlanType = PlanTypeRest
		case len(schedule.Exercises) > 0:
			detail.PlanType = PlanTypePlanned
		}
		return detail, nil
	}

	if plan == nil || plan.ScheduleType == plans.ScheduleCalendar {
		return detail, nil
	}

	// same derivation as the resolver, but never materialized
	exercises, _, err := schedules.DeriveFromTemplate(plan, date)
	if err != nil {
		return DayDetail{}, fmt.Errorf("derive template for %s: %w", date, err)
	}
	if len(exercises) > 0 {
		detail.PlanType = PlanTypePlanned
		detail.PlannedExercises = exercises
	}
	return detail, nil
}

func dayStatus(planType PlanType, hasTraining bool) training.DayStatus {
	switch {
	case planType == PlanTypeRest:
		return training.DayRest
	case planType == PlanTypePlanned && hasTraining:
		return training.DayTrained
	case planType == PlanTypePlanned:
		return training.DayPlanned
	case hasTraining:
		return training.DayExtra
	default:
		return training.DayNone
	}
}
