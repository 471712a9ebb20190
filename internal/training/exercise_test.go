package training

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExerciseID(t *testing.T) {
	assert.True(t, ExercisePush.Valid())
	assert.True(t, ExerciseHand.Valid())
	assert.False(t, ExerciseID("bench").Valid())

	assert.Equal(t, "俯卧撑", ExercisePush.Name())
	assert.Equal(t, "倒立撑", ExerciseHand.Name())
	assert.Equal(t, "bench", ExerciseID("bench").Name())
}

func TestExerciseByName(t *testing.T) {
	id, ok := ExerciseByName("深蹲")
	assert.True(t, ok)
	assert.Equal(t, ExerciseSquat, id)

	id, ok = ExerciseByName("pull")
	assert.True(t, ok)
	assert.Equal(t, ExercisePull, id)

	_, ok = ExerciseByName("bench press")
	assert.False(t, ok)
}

func TestExerciseScope(t *testing.T) {
	assert.Equal(t, BasicExercises, ScopeFour.Exercises())
	assert.Equal(t, AllExercises, ScopeSix.Exercises())
	assert.Equal(t, BasicExercises, ExerciseScope("whatever").Exercises())
	assert.Len(t, AllExercises, 6)
	assert.Len(t, BasicExercises, 4)
}
