package schedules

import (
	"strings"
	"time"

	"github.com/keepfit/keepfit/internal/training"
)

type Status string

const (
	StatusPlanned   Status = "planned"
	StatusCompleted Status = "completed"
	StatusRest      Status = "rest"
)

// rest markers recognized in stored status values, case-insensitive
var restMarkers = map[string]bool{
	"rest":   true,
	"rested": true,
	"休息":     true,
}

// IsRestMarker reports whether the raw status value marks a rest day.
func IsRestMarker(status string) bool {
	return restMarkers[strings.ToLower(strings.TrimSpace(status))]
}

func (s Status) IsRest() bool {
	return IsRestMarker(string(s))
}

// Target is the per-exercise goal for a scheduled day.
type Target struct {
	Level     int    `json:"level"`
	SetsRange string `json:"setsRange,omitempty"`
}

// Schedule is a materialized or explicitly authored day of training.
// At most one exists per (user, plan, date).
type Schedule struct {
	ID        string                             `json:"id"`
	UserID    string                             `json:"-"`
	PlanID    string                             `json:"planId,omitempty"`
	Date      string                             `json:"date"`
	Exercises []training.ExerciseID              `json:"exercises"`
	Targets   map[training.ExerciseID]Target     `json:"targets,omitempty"`
	Status    Status                             `json:"status"`
	Swapped   bool                               `json:"swapped"`
	Generated bool                               `json:"generated"`
	CreatedAt time.Time                          `json:"createdAt"`
	UpdatedAt time.Time                          `json:"updatedAt"`
}

// HasExercises reports whether the day actually plans any training.
func (s *Schedule) HasExercises() bool {
	return len(s.Exercises) > 0
}
