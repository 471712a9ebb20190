package plans

import (
	"fmt"
	"time"

	"github.com/keepfit/keepfit/internal/training"
)

type ScheduleType string

const (
	ScheduleWeek     ScheduleType = "week"
	ScheduleMonth    ScheduleType = "month"
	ScheduleCalendar ScheduleType = "calendar"
)

func (st ScheduleType) Valid() bool {
	switch st {
	case ScheduleWeek, ScheduleMonth, ScheduleCalendar:
		return true
	}
	return false
}

type PlanStatus string

const (
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

// TemplateEntry is the recurring rule for one exercise:
// which weekdays (1..7, Monday first) or which days of the month (1..31)
// the exercise is planned on.
type TemplateEntry struct {
	DaysOfWeek  []int `json:"daysOfWeek,omitempty"`
	DaysOfMonth []int `json:"daysOfMonth,omitempty"`
}

type Plan struct {
	ID               string                                 `json:"planId"`
	UserID           string                                 `json:"-"`
	Name             string                                 `json:"name"`
	ExerciseScope    []training.ExerciseID                  `json:"exerciseScope"`
	ScheduleType     ScheduleType                           `json:"scheduleType"`
	ScheduleTemplate map[training.ExerciseID]TemplateEntry  `json:"scheduleTemplate,omitempty"`
	StartLevels      map[training.ExerciseID]int            `json:"startLevels,omitempty"`
	SetsRange        string                                 `json:"setsRange,omitempty"`
	StageName        string                                 `json:"stageName,omitempty"`
	Status           PlanStatus                             `json:"status"`
	CreatedAt        time.Time                              `json:"createdAt"`
}

// StartLevel returns the configured starting level for the exercise,
// defaulting to 1.
func (p *Plan) StartLevel(exerciseID training.ExerciseID) int {
	if level, ok := p.StartLevels[exerciseID]; ok && level > 0 {
		return level
	}
	return 1
}

// Validate checks the plan as submitted by a client.
func (p *Plan) Validate() error {
	if !p.ScheduleType.Valid() {
		return fmt.Errorf("invalid schedule type: %s", p.ScheduleType)
	}
	if len(p.ExerciseScope) == 0 {
		return fmt.Errorf("exercise scope empty")
	}
	for _, exID := range p.ExerciseScope {
		if !exID.Valid() {
			return fmt.Errorf("unknown exercise: %s", exID)
		}
	}
	if p.ScheduleType == ScheduleCalendar {
		// explicit per-date authoring, no recurring template
		return nil
	}
	if len(p.ScheduleTemplate) == 0 {
		return fmt.Errorf("schedule template empty for %s plan", p.ScheduleType)
	}
	for exID, entry := range p.ScheduleTemplate {
		if !exID.Valid() {
			return fmt.Errorf("unknown exercise in template: %s", exID)
		}
		for _, d := range entry.DaysOfWeek {
			if d < 1 || d > 7 {
				return fmt.Errorf("exercise %s: day of week out of range: %d", exID, d)
			}
		}
		for _, d := range entry.DaysOfMonth {
			if d < 1 || d > 31 {
				return fmt.Errorf("exercise %s: day of month out of range: %d", exID, d)
			}
		}
	}
	return nil
}
