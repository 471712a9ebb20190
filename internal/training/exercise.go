package training

// ExerciseID is one of the six canonical calisthenics exercises.
type ExerciseID string

const (
	ExercisePush   ExerciseID = "push"
	ExerciseSquat  ExerciseID = "squat"
	ExercisePull   ExerciseID = "pull"
	ExerciseLeg    ExerciseID = "leg"
	ExerciseBridge ExerciseID = "bridge"
	ExerciseHand   ExerciseID = "hand"
)

// BasicExercises are the four foundational movements. The two advanced
// ones (bridge, hand) unlock only after all four reach the mastery level.
var BasicExercises = []ExerciseID{
	ExercisePush,
	ExerciseLeg,
	ExercisePull,
	ExerciseSquat,
}

var AdvancedExercises = []ExerciseID{
	ExerciseBridge,
	ExerciseHand,
}

// AllExercises in canonical display order.
var AllExercises = []ExerciseID{
	ExercisePush,
	ExerciseSquat,
	ExercisePull,
	ExerciseLeg,
	ExerciseBridge,
	ExerciseHand,
}

var exerciseNames = map[ExerciseID]string{
	ExercisePush:   "俯卧撑",
	ExerciseSquat:  "深蹲",
	ExercisePull:   "引体向上",
	ExerciseLeg:    "举腿",
	ExerciseBridge: "桥",
	ExerciseHand:   "倒立撑",
}

func (e ExerciseID) Valid() bool {
	_, ok := exerciseNames[e]
	return ok
}

// Name returns the canonical display name of the exercise,
// or the raw id for unknown ones.
func (e ExerciseID) Name() string {
	if name, ok := exerciseNames[e]; ok {
		return name
	}
	return string(e)
}

// ExerciseByName maps a display name (or a raw id) back to the exercise id.
func ExerciseByName(name string) (ExerciseID, bool) {
	for id, n := range exerciseNames {
		if n == name || string(id) == name {
			return id, true
		}
	}
	return "", false
}

// ExerciseScope names a predefined subset of the six exercises.
type ExerciseScope string

const (
	ScopeFour ExerciseScope = "four"
	ScopeSix  ExerciseScope = "six"
)

// Exercises returns the exercise ids belonging to the scope.
// Unknown scopes default to the four basics.
func (s ExerciseScope) Exercises() []ExerciseID {
	if s == ScopeSix {
		return AllExercises
	}
	return BasicExercises
}
