package workouts

import (
	"context"
	"testing"

	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/training/schedules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressStub struct {
	advanced    map[training.ExerciseID]int
	startLevels map[training.ExerciseID]int
}

func newProgressStub() *progressStub {
	return &progressStub{
		advanced:    make(map[training.ExerciseID]int),
		startLevels: make(map[training.ExerciseID]int),
	}
}

func (p *progressStub) Advance(_ context.Context, _ string, exerciseID training.ExerciseID, startLevel int) error {
	p.advanced[exerciseID]++
	p.startLevels[exerciseID] = startLevel
	return nil
}

type diaryStub struct {
	hasEntries bool
}

func (d *diaryStub) HasEntries(_ context.Context, _, _ string) (bool, error) {
	return d.hasEntries, nil
}

type serviceFixture struct {
	service   *Service
	records   *repoMock
	schedules interface {
		Add(ctx context.Context, schedule schedules.Schedule) (*schedules.Schedule, error)
		GetByDate(ctx context.Context, userID, planID, date string) (*schedules.Schedule, error)
		UpdateStatus(ctx context.Context, userID, planID, date string, status schedules.Status) error
	}
	plans    *plans.Plan
	progress *progressStub
	diary    *diaryStub
}

func newServiceFixture(t *testing.T, withPlan bool) *serviceFixture {
	t.Helper()

	records := NewMockWorkoutsRepo()
	scheduleStore := schedules.NewMockSchedulesRepo()
	planStore := plans.NewMockPlansRepo()
	progress := newProgressStub()
	diary := &diaryStub{}

	f := &serviceFixture{
		records:   records,
		schedules: scheduleStore,
		progress:  progress,
		diary:     diary,
	}

	if withPlan {
		plan, err := planStore.Add(context.Background(), plans.Plan{
			ID:            "plan1",
			UserID:        "user1",
			Name:          "week plan",
			ExerciseScope: training.BasicExercises,
			ScheduleType:  plans.ScheduleWeek,
			StartLevels:   map[training.ExerciseID]int{training.ExercisePush: 3},
		})
		require.NoError(t, err)
		f.plans = plan
	}

	f.service = NewService(records, scheduleStore, planStore, progress, diary)
	return f
}

func (f *serviceFixture) seedSchedule(t *testing.T, date string, status schedules.Status) {
	t.Helper()
	_, err := f.schedules.Add(context.Background(), schedules.Schedule{
		ID:        "sched-" + date,
		UserID:    "user1",
		PlanID:    "plan1",
		Date:      date,
		Exercises: []training.ExerciseID{training.ExercisePush},
		Status:    status,
		Generated: true,
	})
	require.NoError(t, err)
}

func TestService_Log_createsAndCompletes(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)
	f.seedSchedule(t, "2024-01-01", schedules.StatusPlanned)

	record, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		Sets:       2,
		Reps:       10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "plan1", record.PlanID)
	assert.Equal(t, 2, record.Sets)
	assert.Equal(t, []int{10, 10}, record.RepsPerSet)

	schedule, err := f.schedules.GetByDate(ctx, "user1", "plan1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, schedules.StatusCompleted, schedule.Status)

	assert.Equal(t, 1, f.progress.advanced[training.ExercisePush])
	assert.Equal(t, 3, f.progress.startLevels[training.ExercisePush])
}

func TestService_Log_mergesSecondSubmission(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)

	_, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		RepsPerSet: []int{10, 8},
	})
	require.NoError(t, err)

	merged, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		RepsPerSet: []int{6},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Sets)
	assert.Equal(t, []int{10, 8, 6}, merged.RepsPerSet)

	// still one record for the day and exercise
	records, err := f.records.ListByDate(ctx, "user1", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// but every log advances progression
	assert.Equal(t, 2, f.progress.advanced[training.ExercisePush])
}

func TestService_Log_restDayStaysRest(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)
	f.seedSchedule(t, "2024-01-06", schedules.StatusRest)

	_, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-06",
		ExerciseID: training.ExerciseSquat,
		Sets:       1,
		Reps:       20,
	})
	require.NoError(t, err)

	schedule, err := f.schedules.GetByDate(ctx, "user1", "plan1", "2024-01-06")
	require.NoError(t, err)
	assert.Equal(t, schedules.StatusRest, schedule.Status)
}

func TestService_Log_withoutPlan(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, false)

	record, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExerciseLeg,
		Sets:       1,
		Reps:       15,
	})
	require.NoError(t, err)
	assert.Empty(t, record.PlanID)
	assert.Equal(t, 1, f.progress.startLevels[training.ExerciseLeg])
}

func TestService_Log_rejectsEmpty(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)

	_, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
	})
	require.ErrorIs(t, err, ErrEmptyLog)

	records, err := f.records.ListByDate(ctx, "user1", "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestService_Delete_rollsBackCompletedDay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)
	f.seedSchedule(t, "2024-01-01", schedules.StatusPlanned)

	record, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		Sets:       2,
		Reps:       10,
	})
	require.NoError(t, err)

	result, err := f.service.Delete(ctx, "user1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", result.Date)
	assert.Equal(t, training.DayNone, result.DayStatus)

	schedule, err := f.schedules.GetByDate(ctx, "user1", "plan1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, schedules.StatusPlanned, schedule.Status)
}

func TestService_Delete_otherRecordRemains(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)
	f.seedSchedule(t, "2024-01-01", schedules.StatusPlanned)

	pushRecord, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		Sets:       2,
		Reps:       10,
	})
	require.NoError(t, err)
	_, err = f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExerciseSquat,
		Sets:       1,
		Reps:       20,
	})
	require.NoError(t, err)

	result, err := f.service.Delete(ctx, "user1", pushRecord.ID)
	require.NoError(t, err)
	assert.Equal(t, training.DayTrained, result.DayStatus)

	// day stays completed, a record is still there
	schedule, err := f.schedules.GetByDate(ctx, "user1", "plan1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, schedules.StatusCompleted, schedule.Status)
}

func TestService_Delete_diaryKeepsDayTrained(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)
	f.diary.hasEntries = true

	record, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		Sets:       1,
		Reps:       10,
	})
	require.NoError(t, err)

	result, err := f.service.Delete(ctx, "user1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, training.DayTrained, result.DayStatus)
}

func TestService_Delete_restDay(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)
	f.seedSchedule(t, "2024-01-06", schedules.StatusRest)

	record, err := f.service.Log(ctx, "user1", LogInput{
		Date:       "2024-01-06",
		ExerciseID: training.ExercisePush,
		Sets:       1,
		Reps:       10,
	})
	require.NoError(t, err)

	result, err := f.service.Delete(ctx, "user1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, training.DayRest, result.DayStatus)
}

func TestService_Delete_notFound(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, true)

	_, err := f.service.Delete(ctx, "user1", "no-such-id")
	require.ErrorIs(t, err, ErrWorkoutNotFound)
}
