package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/keepfit/keepfit/internal/training"
)

const unlockLevel = 6

// Stage is one step on an exercise's progression ladder.
type Stage struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Record tracks one user's progression for one exercise. Levels only
// ever go up, one per logged workout, with no upper bound.
type Record struct {
	UserID       string              `json:"-"`
	ExerciseID   training.ExerciseID `json:"exerciseId"`
	CurrentStage Stage               `json:"currentStage"`
	NextStage    Stage               `json:"nextStage"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// StageLabel names a progression level, e.g. level 3 is 第3式.
func StageLabel(level int) string {
	return fmt.Sprintf("第%d式", level)
}

func NewStagePair(level int) (current, next Stage) {
	return Stage{Name: StageLabel(level), Level: level},
		Stage{Name: StageLabel(level + 1), Level: level + 1}
}

// Display tiers for the overall stage name shown to the user.
const (
	TierBeginner     = "初试身手"
	TierIntermediate = "渐入佳境"
	TierAdvanced     = "炉火纯青"
	TierMaster       = "闭关修炼"
)

// ClassifyStageName normalizes a free-text stage name to one of the
// four canonical tiers by substring matching.
func ClassifyStageName(name string) string {
	switch {
	case strings.Contains(name, "闭"):
		return TierMaster
	case strings.Contains(name, "炉"):
		return TierAdvanced
	case strings.Contains(name, "渐"), strings.Contains(name, "中"):
		return TierIntermediate
	default:
		return TierBeginner
	}
}

// BasicsMastered reports whether all four basic exercises reached the
// unlock level, keyed by current level per exercise.
func BasicsMastered(levels map[training.ExerciseID]int) bool {
	for _, exerciseID := range training.BasicExercises {
		if levels[exerciseID] < unlockLevel {
			return false
		}
	}
	return true
}

// LockedExercises returns the advanced exercises still gated behind the
// four basics. Evaluated live from current levels, never cached.
func LockedExercises(levels map[training.ExerciseID]int) []training.ExerciseID {
	if BasicsMastered(levels) {
		return nil
	}
	return append([]training.ExerciseID{}, training.AdvancedExercises...)
}
