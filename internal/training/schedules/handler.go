package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type schedulesRepo interface {
	Upsert(ctx context.Context, schedule Schedule) (*Schedule, error)
	GetByDate(ctx context.Context, userID, planID, date string) (*Schedule, error)
	ListRange(ctx context.Context, userID, planID, dateFrom, dateTo string) ([]Schedule, error)
}

type swapper interface {
	Swap(ctx context.Context, userID, planID, dateA, dateB string) (*Schedule, *Schedule, error)
}

type ListResponse struct {
	Schedules []Schedule `json:"schedules"`
}

type SwapRequest struct {
	PlanID string `json:"planId"`
	DateA  string `json:"dateA"`
	DateB  string `json:"dateB"`
}

type SwapResponse struct {
	First  *Schedule `json:"first"`
	Second *Schedule `json:"second"`
}

type Handler struct {
	repo           schedulesRepo
	swapper        swapper
	metricsManager *metrics.Manager
}

func NewHandler(repo schedulesRepo, swapper swapper, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		swapper:        swapper,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/schedules", handler.HandleList).Methods("GET", "OPTIONS").Name("list-schedules")
	router.HandleFunc("/schedules", handler.HandleUpsert).Methods("PUT", "OPTIONS").Name("upsert-schedules")
	router.HandleFunc("/schedules/swap", handler.HandleSwap).Methods("POST", "OPTIONS").Name("swap-schedules")
}

// HandleList returns schedules for ?date= or ?dateFrom=&dateTo=, optionally
// narrowed by ?planId=.
func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedules.list")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)
	planID := r.URL.Query().Get("planId")

	dateFrom := r.URL.Query().Get("dateFrom")
	dateTo := r.URL.Query().Get("dateTo")
	if date := r.URL.Query().Get("date"); date != "" {
		dateFrom, dateTo = date, date
	}
	if dateFrom == "" || dateTo == "" {
		http.Error(w, "date or dateFrom/dateTo required", http.StatusBadRequest)
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

	schedules, err := handler.repo.ListRange(ctx, userID, planID, dateFrom, dateTo)
	if err != nil {
		log.Errorf("failed to list schedules for [%s]: %s", userID, err)
		http.Error(w, "list schedules error", http.StatusInternalServerError)
		return
	}
	if schedules == nil {
		schedules = []Schedule{}
	}

	respJson, err := json.Marshal(ListResponse{Schedules: schedules})
	if err != nil {
		http.Error(w, "marshal schedules error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

// HandleUpsert explicitly authors schedules: set a day's exercises, mark a
// rest day, adjust targets. Accepts a batch; every entry needs a valid date.
func (handler *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedules.upsert")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var incoming []Schedule
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		log.Tracef("upsert schedules, unmarshal json params: %s", err)
		http.Error(w, "upsert schedules failed", http.StatusBadRequest)
		return
	}
	if len(incoming) == 0 {
		http.Error(w, "no schedules given", http.StatusBadRequest)
		return
	}

	// validate everything before the first write, no partial batches
	for i := range incoming {
		if _, err := training.ParseDate(incoming[i].Date); err != nil {
			http.Error(w, "invalid date: "+incoming[i].Date, http.StatusBadRequest)
			return
		}
		for _, exerciseID := range incoming[i].Exercises {
			if !exerciseID.Valid() {
				http.Error(w, "unknown exercise: "+string(exerciseID), http.StatusBadRequest)
				return
			}
		}
		if incoming[i].Status == "" {
			incoming[i].Status = StatusPlanned
		}
	}

	stored := make([]Schedule, 0, len(incoming))
	for _, schedule := range incoming {
		schedule.UserID = userID
		schedule.Generated = false
		if schedule.ID == "" {
			schedule.ID = uuid.NewString()
		}
		upserted, err := handler.repo.Upsert(ctx, schedule)
		if err != nil {
			log.Errorf("failed to upsert schedule [%s] for [%s]: %s", schedule.Date, userID, err)
			http.Error(w, "upsert schedules error", http.StatusInternalServerError)
			return
		}
		stored = append(stored, *upserted)
	}

	respJson, err := json.Marshal(ListResponse{Schedules: stored})
	if err != nil {
		http.Error(w, "marshal schedules error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.schedules.swap")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if _, err := training.ParseDate(req.DateA); err != nil {
		http.Error(w, "invalid dateA", http.StatusBadRequest)
		return
	}
	if _, err := training.ParseDate(req.DateB); err != nil {
		http.Error(w, "invalid dateB", http.StatusBadRequest)
		return
	}

	first, second, err := handler.swapper.Swap(ctx, userID, req.PlanID, req.DateA, req.DateB)
	if err != nil {
		if errors.Is(err, ErrSwapMissingDay) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("failed to swap schedules [%s <-> %s] for [%s]: %s", req.DateA, req.DateB, userID, err)
		http.Error(w, "swap schedules error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterSchedulesSwapped.Inc()

	respJson, err := json.Marshal(SwapResponse{First: first, Second: second})
	if err != nil {
		http.Error(w, "marshal swap response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
