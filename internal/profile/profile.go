package profile

import (
	"fmt"
	"time"
)

// Ability levels a user can self-report.
const (
	AbilityBeginner     = "beginner"
	AbilityIntermediate = "intermediate"
	AbilityAdvanced     = "advanced"
)

// Profile holds the user's training preferences, used when
// recommending a plan.
type Profile struct {
	UserID            string    `json:"-"`
	AbilityLevel      string    `json:"abilityLevel"`
	TrainingFrequency int       `json:"trainingFrequency"`
	SessionDuration   int       `json:"sessionDuration"`
	InjuryNotes       string    `json:"injuryNotes,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (p *Profile) Validate() error {
	switch p.AbilityLevel {
	case AbilityBeginner, AbilityIntermediate, AbilityAdvanced, "":
	default:
		return fmt.Errorf("unknown ability level: %s", p.AbilityLevel)
	}
	if p.TrainingFrequency < 0 || p.TrainingFrequency > 7 {
		return fmt.Errorf("invalid training frequency: %d", p.TrainingFrequency)
	}
	if p.SessionDuration < 0 {
		return fmt.Errorf("invalid session duration: %d", p.SessionDuration)
	}
	return nil
}
