package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"

	"go.opentelemetry.io/otel/attribute"
)

type progressStore interface {
	Get(ctx context.Context, userID string, exerciseID training.ExerciseID) (*Record, error)
	List(ctx context.Context, userID string) ([]Record, error)
	Upsert(ctx context.Context, record Record) error
}

// Tracker advances per-exercise progression. One successful log equals
// exactly one level step, regardless of volume.
type Tracker struct {
	store progressStore
}

func NewTracker(store progressStore) *Tracker {
	return &Tracker{
		store: store,
	}
}

// Advance moves the exercise one level up, creating the record at
// startLevel on the first log. Logging a gated exercise still advances
// it, the gate only controls what is offered, not what counts.
func (t *Tracker) Advance(ctx context.Context, userID string, exerciseID training.ExerciseID, startLevel int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "progress.advance")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("exercise", string(exerciseID)))

	if !exerciseID.Valid() {
		return fmt.Errorf("unknown exercise: %s", exerciseID)
	}
	if startLevel < 1 {
		startLevel = 1
	}

	record, err := t.store.Get(ctx, userID, exerciseID)
	switch {
	case errors.Is(err, ErrProgressNotFound):
		current, next := NewStagePair(startLevel)
		return t.store.Upsert(ctx, Record{
			UserID:       userID,
			ExerciseID:   exerciseID,
			CurrentStage: current,
			NextStage:    next,
		})
	case err != nil:
		return fmt.Errorf("get progress: %w", err)
	}

	current, next := NewStagePair(record.CurrentStage.Level + 1)
	record.CurrentStage = current
	record.NextStage = next
	return t.store.Upsert(ctx, *record)
}

// Levels returns the current level per exercise, 0 for exercises never
// logged.
func (t *Tracker) Levels(ctx context.Context, userID string) (map[training.ExerciseID]int, error) {
	records, err := t.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	levels := make(map[training.ExerciseID]int, len(records))
	for _, record := range records {
		levels[record.ExerciseID] = record.CurrentStage.Level
	}
	return levels, nil
}
