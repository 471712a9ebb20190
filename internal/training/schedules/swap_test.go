package schedules

import (
	"context"
	"testing"

	"github.com/keepfit/keepfit/internal/training"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSwapDays(t *testing.T, store *repoMock) (*Schedule, *Schedule) {
	t.Helper()
	ctx := context.Background()

	monday, err := store.Add(ctx, Schedule{
		ID:        "mon",
		UserID:    "user1",
		PlanID:    "plan1",
		Date:      "2024-01-01",
		Exercises: []training.ExerciseID{training.ExercisePush},
		Targets: map[training.ExerciseID]Target{
			training.ExercisePush: {Level: 3},
		},
		Status:    StatusPlanned,
		Generated: true,
	})
	require.NoError(t, err)

	wednesday, err := store.Add(ctx, Schedule{
		ID:        "wed",
		UserID:    "user1",
		PlanID:    "plan1",
		Date:      "2024-01-03",
		Exercises: []training.ExerciseID{training.ExerciseSquat, training.ExerciseLeg},
		Targets: map[training.ExerciseID]Target{
			training.ExerciseSquat: {Level: 1},
			training.ExerciseLeg:   {Level: 2},
		},
		Status:    StatusCompleted,
		Generated: false,
	})
	require.NoError(t, err)

	return monday, wednesday
}

func TestSwapper_Swap(t *testing.T) {
	store := NewMockSchedulesRepo()
	seedSwapDays(t, store)
	swapper := NewSwapper(store)

	first, second, err := swapper.Swap(context.Background(), "user1", "plan1", "2024-01-01", "2024-01-03")
	require.NoError(t, err)

	// payloads exchanged
	assert.Equal(t, []training.ExerciseID{training.ExerciseSquat, training.ExerciseLeg}, first.Exercises)
	assert.Equal(t, []training.ExerciseID{training.ExercisePush}, second.Exercises)
	assert.Equal(t, StatusCompleted, first.Status)
	assert.Equal(t, StatusPlanned, second.Status)
	assert.Equal(t, Target{Level: 3}, second.Targets[training.ExercisePush])

	// both marked swapped
	assert.True(t, first.Swapped)
	assert.True(t, second.Swapped)

	// each slot keeps its own generated flag
	assert.True(t, first.Generated)
	assert.False(t, second.Generated)

	// dates stay with their slots
	assert.Equal(t, "2024-01-01", first.Date)
	assert.Equal(t, "2024-01-03", second.Date)
}

func TestSwapper_missingDay(t *testing.T) {
	store := NewMockSchedulesRepo()
	seedSwapDays(t, store)
	swapper := NewSwapper(store)

	_, _, err := swapper.Swap(context.Background(), "user1", "plan1", "2024-01-01", "2024-01-05")
	require.ErrorIs(t, err, ErrSwapMissingDay)

	// nothing was written
	monday, err := store.GetByDate(context.Background(), "user1", "plan1", "2024-01-01")
	require.NoError(t, err)
	assert.False(t, monday.Swapped)
	assert.Equal(t, []training.ExerciseID{training.ExercisePush}, monday.Exercises)
}

func TestSwapper_invalidInput(t *testing.T) {
	swapper := NewSwapper(NewMockSchedulesRepo())

	_, _, err := swapper.Swap(context.Background(), "user1", "plan1", "not-a-date", "2024-01-03")
	assert.Error(t, err)

	_, _, err = swapper.Swap(context.Background(), "user1", "plan1", "2024-01-01", "2024-01-01")
	assert.Error(t, err)
}
