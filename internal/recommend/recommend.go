package recommend

import (
	"context"
	"errors"
	"strings"

	"github.com/keepfit/keepfit/internal/profile"
	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Rule is one recommendation tier: how often to train and with which
// exercise scope.
type Rule struct {
	Name            string
	WeeklyFrequency int
	Scope           training.ExerciseScope
	SetsRange       string
	StartLevel      int
}

// The tiers, easiest first. Picked by name match or weekly frequency.
var rules = []Rule{
	{Name: "初试身手", WeeklyFrequency: 2, Scope: training.ScopeFour, SetsRange: "2-3", StartLevel: 1},
	{Name: "渐入佳境", WeeklyFrequency: 3, Scope: training.ScopeSix, SetsRange: "2-3", StartLevel: 2},
	{Name: "炉火纯青", WeeklyFrequency: 4, Scope: training.ScopeSix, SetsRange: "3-4", StartLevel: 3},
	{Name: "闭关修炼", WeeklyFrequency: 5, Scope: training.ScopeSix, SetsRange: "3-5", StartLevel: 4},
	{Name: "登峰造极", WeeklyFrequency: 6, Scope: training.ScopeSix, SetsRange: "4-5", StartLevel: 5},
}

const defaultRuleName = "渐入佳境"

// trainingDays spreads f sessions over the week, Monday=1..Sunday=7.
var trainingDays = map[int][]int{
	1: {1},
	2: {1, 4},
	3: {1, 3, 5},
	4: {1, 3, 5, 6},
	5: {1, 2, 4, 5, 6},
	6: {1, 2, 3, 4, 5, 6},
	7: {1, 2, 3, 4, 5, 6, 7},
}

type profileGetter interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
}

// Service builds a suggested plan from a named tier or a target weekly
// frequency, falling back to the user's profile. The suggestion is not
// persisted, creating the plan stays an explicit user action.
type Service struct {
	profiles profileGetter
}

func NewService(profiles profileGetter) *Service {
	return &Service{
		profiles: profiles,
	}
}

func (s *Service) Recommend(ctx context.Context, userID string, planName string, weeklyFrequency int) (_ *plans.Plan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "recommend.plan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("planName", planName))
	span.SetAttributes(attribute.Int("weeklyFrequency", weeklyFrequency))

	if weeklyFrequency == 0 {
		userProfile, perr := s.profiles.Get(ctx, userID)
		switch {
		case perr == nil:
			weeklyFrequency = userProfile.TrainingFrequency
		case errors.Is(perr, profile.ErrProfileNotFound):
			// no profile, name or default decides
		default:
			return nil, perr
		}
	}

	rule := pickRule(planName, weeklyFrequency)
	return buildPlan(userID, rule), nil
}

func pickRule(planName string, weeklyFrequency int) Rule {
	if planName != "" {
		for _, rule := range rules {
			if strings.Contains(planName, rule.Name) || strings.Contains(rule.Name, planName) {
				return rule
			}
		}
	}
	if weeklyFrequency > 0 {
		best := rules[0]
		for _, rule := range rules[1:] {
			if absDiff(rule.WeeklyFrequency, weeklyFrequency) < absDiff(best.WeeklyFrequency, weeklyFrequency) {
				best = rule
			}
		}
		return best
	}
	for _, rule := range rules {
		if rule.Name == defaultRuleName {
			return rule
		}
	}
	return rules[0]
}

// buildPlan distributes the scope's exercises round-robin over the
// week's training days.
func buildPlan(userID string, rule Rule) *plans.Plan {
	days := trainingDays[rule.WeeklyFrequency]
	exercises := rule.Scope.Exercises()

	daysPerExercise := make(map[training.ExerciseID][]int, len(exercises))
	if len(exercises) <= len(days) {
		// few exercises, full scope every session
		for _, exerciseID := range exercises {
			daysPerExercise[exerciseID] = days
		}
	} else {
		// split the scope round-robin over the sessions
		for j, exerciseID := range exercises {
			day := days[j%len(days)]
			daysPerExercise[exerciseID] = append(daysPerExercise[exerciseID], day)
		}
	}

	template := make(map[training.ExerciseID]plans.TemplateEntry, len(exercises))
	startLevels := make(map[training.ExerciseID]int, len(exercises))
	for _, exerciseID := range exercises {
		template[exerciseID] = plans.TemplateEntry{DaysOfWeek: daysPerExercise[exerciseID]}
		startLevels[exerciseID] = rule.StartLevel
	}

	return &plans.Plan{
		ID:               uuid.NewString(),
		UserID:           userID,
		Name:             rule.Name,
		ExerciseScope:    exercises,
		ScheduleType:     plans.ScheduleWeek,
		ScheduleTemplate: template,
		StartLevels:      startLevels,
		SetsRange:        rule.SetsRange,
		StageName:        rule.Name,
	}
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
