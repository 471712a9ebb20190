package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"

	"go.opentelemetry.io/otel/attribute"
)

var ErrSwapMissingDay = errors.New("both dates must have a schedule to swap")

type swapStore interface {
	GetByDate(ctx context.Context, userID, planID, date string) (*Schedule, error)
	UpdateBoth(ctx context.Context, first, second *Schedule) error
}

// Swapper exchanges the planned training of two dates.
type Swapper struct {
	store swapStore
}

func NewSwapper(store swapStore) *Swapper {
	return &Swapper{
		store: store,
	}
}

// Swap exchanges exercises, targets and status between the schedules at
// dateA and dateB, marking both as swapped. Each slot keeps its own
// generated flag: generated-ness tracks the day, not the payload.
// All-or-nothing: if either date has no schedule, nothing is written.
func (s *Swapper) Swap(ctx context.Context, userID, planID, dateA, dateB string) (_ *Schedule, _ *Schedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "schedules.swap")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("dateA", dateA))
	span.SetAttributes(attribute.String("dateB", dateB))

	if _, err := training.ParseDate(dateA); err != nil {
		return nil, nil, err
	}
	if _, err := training.ParseDate(dateB); err != nil {
		return nil, nil, err
	}
	if dateA == dateB {
		return nil, nil, fmt.Errorf("cannot swap a date with itself: %s", dateA)
	}

	first, err := s.store.GetByDate(ctx, userID, planID, dateA)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrSwapMissingDay, dateA)
		}
		return nil, nil, fmt.Errorf("get schedule %s: %w", dateA, err)
	}
	second, err := s.store.GetByDate(ctx, userID, planID, dateB)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrSwapMissingDay, dateB)
		}
		return nil, nil, fmt.Errorf("get schedule %s: %w", dateB, err)
	}

	first.Exercises, second.Exercises = second.Exercises, first.Exercises
	first.Targets, second.Targets = second.Targets, first.Targets
	first.Status, second.Status = second.Status, first.Status
	first.Swapped = true
	second.Swapped = true

	if err := s.store.UpdateBoth(ctx, first, second); err != nil {
		return nil, nil, fmt.Errorf("update swapped schedules: %w", err)
	}
	return first, second, nil
}
