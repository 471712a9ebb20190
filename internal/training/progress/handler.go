package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type activePlanGetter interface {
	GetActive(ctx context.Context, userID string) (*plans.Plan, error)
}

// Item is one exercise's progression state for the overview.
type Item struct {
	ExerciseID   training.ExerciseID `json:"exerciseId"`
	ExerciseName string              `json:"exerciseName"`
	CurrentStage Stage               `json:"currentStage"`
	NextStage    Stage               `json:"nextStage"`
	Locked       bool                `json:"locked"`
}

type OverviewResponse struct {
	StageName string `json:"stageName"`
	Items     []Item `json:"items"`
}

type Handler struct {
	repo       progressStore
	tracker    *Tracker
	planGetter activePlanGetter
}

func NewHandler(repo progressStore, tracker *Tracker, planGetter activePlanGetter) *Handler {
	return &Handler{
		repo:       repo,
		tracker:    tracker,
		planGetter: planGetter,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/progress", handler.HandleOverview).Methods("GET", "OPTIONS").Name("progress-overview")
}

// HandleOverview returns all six exercises with their current stages,
// the gate state of the advanced ones, and the display tier.
func (handler *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.overview")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	records, err := handler.repo.List(ctx, userID)
	if err != nil {
		log.Errorf("failed to list progress for [%s]: %s", userID, err)
		http.Error(w, "list progress error", http.StatusInternalServerError)
		return
	}

	recordByExercise := make(map[training.ExerciseID]Record, len(records))
	levels := make(map[training.ExerciseID]int, len(records))
	for _, record := range records {
		recordByExercise[record.ExerciseID] = record
		levels[record.ExerciseID] = record.CurrentStage.Level
	}

	locked := make(map[training.ExerciseID]bool)
	for _, exerciseID := range LockedExercises(levels) {
		locked[exerciseID] = true
	}

	items := make([]Item, 0, len(training.AllExercises))
	for _, exerciseID := range training.AllExercises {
		item := Item{
			ExerciseID:   exerciseID,
			ExerciseName: exerciseID.Name(),
			Locked:       locked[exerciseID],
		}
		if record, ok := recordByExercise[exerciseID]; ok {
			item.CurrentStage = record.CurrentStage
			item.NextStage = record.NextStage
		} else {
			item.CurrentStage, item.NextStage = NewStagePair(1)
		}
		items = append(items, item)
	}

	stageName := TierBeginner
	if BasicsMastered(levels) {
		stageName = TierIntermediate
	}
	// an explicit plan stage name pins the display tier, the unlock
	// check above still runs on raw levels
	activePlan, err := handler.planGetter.GetActive(ctx, userID)
	switch {
	case err == nil:
		if activePlan.StageName != "" {
			stageName = ClassifyStageName(activePlan.StageName)
		}
	case errors.Is(err, plans.ErrPlanNotFound):
		// no plan, keep the derived tier
	default:
		log.Errorf("failed to get active plan for [%s]: %s", userID, err)
	}

	respJson, err := json.Marshal(OverviewResponse{
		StageName: stageName,
		Items:     items,
	})
	if err != nil {
		http.Error(w, "marshal progress error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
