package training

// DayStatus is the aggregate state of a single calendar day, combining
// what was planned with what was actually logged.
type DayStatus string

const (
	DayTrained DayStatus = "trained"
	DayPlanned DayStatus = "planned"
	DayRest    DayStatus = "rest"
	DayExtra   DayStatus = "extra"
	DayNone    DayStatus = "none"
)

var dayStatusPriority = map[DayStatus]int{
	DayTrained: 5,
	DayPlanned: 4,
	DayRest:    3,
	DayExtra:   2,
	DayNone:    1,
}

// HigherPriority picks the day status that should win a display tie.
func HigherPriority(a, b DayStatus) DayStatus {
	if dayStatusPriority[a] >= dayStatusPriority[b] {
		return a
	}
	return b
}
