package diary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 50

type diaryRepo interface {
	Add(ctx context.Context, entry Entry) (*Entry, error)
	ListRange(ctx context.Context, userID, dateFrom, dateTo string) ([]Entry, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]Entry, error)
}

type progressAdvancer interface {
	Advance(ctx context.Context, userID string, exerciseID training.ExerciseID, startLevel int) error
}

type activePlanGetter interface {
	GetActive(ctx context.Context, userID string) (*plans.Plan, error)
}

type HistoryResponse struct {
	Entries []Entry `json:"entries"`
}

type Handler struct {
	repo           diaryRepo
	progress       progressAdvancer
	planGetter     activePlanGetter
	metricsManager *metrics.Manager
}

func NewHandler(
	repo diaryRepo,
	progress progressAdvancer,
	planGetter activePlanGetter,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		progress:       progress,
		planGetter:     planGetter,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/diary", handler.HandleAddExercise).Methods("POST", "OPTIONS").Name("add-diary")
	router.HandleFunc("/diary/other", handler.HandleAddOther).Methods("POST", "OPTIONS").Name("add-diary-other")
	router.HandleFunc("/diary/history", handler.HandleHistory).Methods("GET", "OPTIONS").Name("diary-history")
	router.HandleFunc("/diary/range", handler.HandleRange).Methods("GET", "OPTIONS").Name("diary-range")
}

// HandleAddExercise appends an exercise entry and advances that
// exercise's progression, same as a regular workout log would.
func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diary.addExercise")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Tracef("add diary entry, unmarshal json params: %s", err)
		http.Error(w, "add diary entry failed", http.StatusBadRequest)
		return
	}
	entry.Kind = KindExercise

	handler.storeEntry(ctx, w, userID, entry)
}

// HandleAddOther appends a freeform activity entry, e.g. a run or a
// swim, which counts the day as trained but has no progression.
func (handler *Handler) HandleAddOther(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diary.addOther")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Tracef("add diary entry, unmarshal json params: %s", err)
		http.Error(w, "add diary entry failed", http.StatusBadRequest)
		return
	}
	entry.Kind = KindOther

	handler.storeEntry(ctx, w, userID, entry)
}

func (handler *Handler) storeEntry(ctx context.Context, w http.ResponseWriter, userID string, entry Entry) {
	if err := entry.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry.ID = uuid.NewString()
	entry.UserID = userID

	added, err := handler.repo.Add(ctx, entry)
	if err != nil {
		log.Errorf("failed to add diary entry for [%s]: %s", userID, err)
		http.Error(w, "add diary entry error", http.StatusInternalServerError)
		return
	}

	if added.Kind == KindExercise {
		startLevel := 1
		if activePlan, err := handler.planGetter.GetActive(ctx, userID); err == nil {
			startLevel = activePlan.StartLevel(added.ExerciseID)
		} else if !errors.Is(err, plans.ErrPlanNotFound) {
			log.Errorf("failed to get active plan for [%s]: %s", userID, err)
		}
		if err := handler.progress.Advance(ctx, userID, added.ExerciseID, startLevel); err != nil {
			log.Errorf("failed to advance progression for [%s]: %s", userID, err)
		}
	}

	handler.metricsManager.CounterDiaryEntries.Inc()

	respJson, err := json.Marshal(added)
	if err != nil {
		http.Error(w, "marshal response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

// HandleHistory returns the newest entries, capped by ?limit=.
func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diary.history")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	limit := defaultHistoryLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := handler.repo.ListRecent(ctx, userID, limit)
	if err != nil {
		log.Errorf("failed to list diary entries for [%s]: %s", userID, err)
		http.Error(w, "list diary entries error", http.StatusInternalServerError)
		return
	}
	handler.writeEntries(w, entries)
}

// HandleRange returns entries in [?dateFrom, ?dateTo].
func (handler *Handler) HandleRange(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.diary.range")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	dateFrom := r.URL.Query().Get("dateFrom")
	dateTo := r.URL.Query().Get("dateTo")
	if dateFrom == "" || dateTo == "" {
		http.Error(w, "dateFrom/dateTo required", http.StatusBadRequest)
		return
	}
	if _, err := training.ParseDate(dateFrom); err != nil {
		http.Error(w, "invalid dateFrom", http.StatusBadRequest)
		return
	}
	if _, err := training.ParseDate(dateTo); err != nil {
		http.Error(w, "invalid dateTo", http.StatusBadRequest)
		return
	}

	entries, err := handler.repo.ListRange(ctx, userID, dateFrom, dateTo)
	if err != nil {
		log.Errorf("failed to list diary entries for [%s]: %s", userID, err)
		http.Error(w, "list diary entries error", http.StatusInternalServerError)
		return
	}
	handler.writeEntries(w, entries)
}

func (handler *Handler) writeEntries(w http.ResponseWriter, entries []Entry) {
	if entries == nil {
		entries = []Entry{}
	}
	respJson, err := json.Marshal(HistoryResponse{Entries: entries})
	if err != nil {
		http.Error(w, "marshal diary entries error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
