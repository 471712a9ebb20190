package workouts

import (
	"errors"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/training"
)

var ErrEmptyLog = errors.New("log needs sets or reps per set")

// Record is a single day's log for one exercise. At most one record
// exists per (user, date, exercise); repeated logs for the same key are
// merged into the existing record.
type Record struct {
	ID           string              `json:"id"`
	UserID       string              `json:"-"`
	PlanID       string              `json:"planId,omitempty"`
	Date         string              `json:"date"`
	ExerciseID   training.ExerciseID `json:"exerciseId"`
	ExerciseName string              `json:"exerciseName,omitempty"`
	Sets         int                 `json:"sets"`
	RepsPerSet   []int               `json:"repsPerSet"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// LogInput is a raw log submission. RepsPerSet may be given explicitly,
// or synthesized from Sets x Reps when only the scalars are present.
type LogInput struct {
	PlanID       string              `json:"planId"`
	Date         string              `json:"date"`
	ExerciseID   training.ExerciseID `json:"exerciseId"`
	ExerciseName string              `json:"exerciseName"`
	Sets         int                 `json:"sets"`
	Reps         int                 `json:"reps"`
	RepsPerSet   []int               `json:"repsPerSet"`
}

// Normalize validates the input and resolves its sets / reps-per-set
// shape. An explicit RepsPerSet wins; otherwise Sets copies of Reps are
// synthesized. Inputs with neither sets nor reps are rejected.
func (in *LogInput) Normalize() (sets int, repsPerSet []int, err error) {
	if !in.ExerciseID.Valid() {
		return 0, nil, fmt.Errorf("unknown exercise: %s", in.ExerciseID)
	}
	if _, err := training.ParseDate(in.Date); err != nil {
		return 0, nil, fmt.Errorf("invalid date %q: %w", in.Date, err)
	}

	if len(in.RepsPerSet) > 0 {
		for _, reps := range in.RepsPerSet {
			if reps <= 0 {
				return 0, nil, fmt.Errorf("invalid reps count: %d", reps)
			}
		}
		sets = in.Sets
		if sets <= 0 {
			sets = len(in.RepsPerSet)
		}
		return sets, in.RepsPerSet, nil
	}

	if in.Sets <= 0 {
		return 0, nil, ErrEmptyLog
	}
	if in.Reps > 0 {
		repsPerSet = make([]int, in.Sets)
		for i := range repsPerSet {
			repsPerSet[i] = in.Reps
		}
	}
	return in.Sets, repsPerSet, nil
}

// Merge folds the incoming record into the existing one: reps per set
// are concatenated in order, sets are added, and non-empty incoming
// scalars replace the existing ones. Merging the same incoming record
// twice appends twice, dedupe is the caller's problem.
func Merge(existing, incoming Record) Record {
	merged := existing
	merged.Sets = existing.Sets + incoming.Sets
	merged.RepsPerSet = append(append([]int{}, existing.RepsPerSet...), incoming.RepsPerSet...)
	if incoming.PlanID != "" {
		merged.PlanID = incoming.PlanID
	}
	if incoming.ExerciseName != "" {
		merged.ExerciseName = incoming.ExerciseName
	}
	return merged
}
