package diary

import (
	"errors"
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/training"
)

// Entry kinds: a structured exercise log or a freeform other activity.
const (
	KindExercise = "exercise"
	KindOther    = "other"
)

var (
	ErrEmptyEntry      = errors.New("entry needs sets or reps per set")
	ErrMissingActivity = errors.New("activity name and duration required")
)

// Entry is a supplementary log. Unlike workout records, entries are
// append-only and never merged or deduplicated.
type Entry struct {
	ID           string              `json:"id"`
	UserID       string              `json:"-"`
	Date         string              `json:"date"`
	Kind         string              `json:"kind"`
	ExerciseID   training.ExerciseID `json:"exerciseId,omitempty"`
	ExerciseName string              `json:"exerciseName,omitempty"`
	Sets         int                 `json:"sets,omitempty"`
	RepsPerSet   []int               `json:"repsPerSet,omitempty"`
	ActivityName string              `json:"activityName,omitempty"`
	Duration     int                 `json:"duration,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// Validate checks the entry against its kind's shape.
func (e *Entry) Validate() error {
	if _, err := training.ParseDate(e.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", e.Date, err)
	}

	switch e.Kind {
	case KindExercise:
		if !e.ExerciseID.Valid() {
			return fmt.Errorf("unknown exercise: %s", e.ExerciseID)
		}
		if e.Sets <= 0 && len(e.RepsPerSet) == 0 {
			return ErrEmptyEntry
		}
		for _, reps := range e.RepsPerSet {
			if reps <= 0 {
				return fmt.Errorf("invalid reps count: %d", reps)
			}
		}
	case KindOther:
		if e.ActivityName == "" || e.Duration <= 0 {
			return ErrMissingActivity
		}
	default:
		return fmt.Errorf("unknown entry kind: %s", e.Kind)
	}
	return nil
}
