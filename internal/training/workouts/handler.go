package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/training/schedules"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type dayResolver interface {
	ResolveDay(ctx context.Context, plan *plans.Plan, date string) (*schedules.Schedule, error)
}

type historyLister interface {
	ListRange(ctx context.Context, userID, dateFrom, dateTo string) ([]Record, error)
}

type TodayResponse struct {
	Date     string              `json:"date"`
	Schedule *schedules.Schedule `json:"schedule"`
	RestDay  bool                `json:"restDay"`
	Workouts []Record            `json:"workouts"`
}

type HistoryResponse struct {
	Workouts []Record `json:"workouts"`
}

type Handler struct {
	service        *Service
	repo           historyLister
	planGetter     activePlanGetter
	resolver       dayResolver
	metricsManager *metrics.Manager
}

func NewHandler(
	service *Service,
	repo historyLister,
	planGetter activePlanGetter,
	resolver dayResolver,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		service:        service,
		repo:           repo,
		planGetter:     planGetter,
		resolver:       resolver,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workouts/today", handler.HandleToday).Methods("GET", "OPTIONS").Name("workouts-today")
	router.HandleFunc("/workouts", handler.HandleLog).Methods("POST", "OPTIONS").Name("log-workout")
	router.HandleFunc("/workouts/history", handler.HandleHistory).Methods("GET", "OPTIONS").Name("workouts-history")
	router.HandleFunc("/workouts/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")
}

// HandleToday resolves the current date against the active plan,
// materializing the day's schedule when it is derived for the first time.
func (handler *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.today")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	today := training.Today()
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		if _, err := training.ParseDate(dateParam); err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		today = dateParam
	}

	activePlan, err := handler.planGetter.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, plans.ErrPlanNotFound) {
			http.Error(w, "no plan", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get active plan for [%s]: %s", userID, err)
		http.Error(w, "get plan error", http.StatusInternalServerError)
		return
	}

	resp := TodayResponse{Date: today, Workouts: []Record{}}
	schedule, err := handler.resolver.ResolveDay(ctx, activePlan, today)
	switch {
	case err == nil:
		resp.Schedule = schedule
		resp.RestDay = schedule.Status.IsRest()
	case errors.Is(err, schedules.ErrNoTrainingToday):
		resp.RestDay = true
	default:
		log.Errorf("failed to resolve today for [%s]: %s", userID, err)
		http.Error(w, "resolve day error", http.StatusInternalServerError)
		return
	}

	if workouts, err := handler.repo.ListRange(ctx, userID, today, today); err == nil {
		resp.Workouts = workouts
	} else {
		log.Errorf("failed to list today's workouts for [%s]: %s", userID, err)
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "marshal response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleLog(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.log")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var input LogInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Tracef("log workout, unmarshal json params: %s", err)
		http.Error(w, "log workout failed", http.StatusBadRequest)
		return
	}

	if !input.ExerciseID.Valid() {
		http.Error(w, "unknown exercise: "+string(input.ExerciseID), http.StatusBadRequest)
		return
	}
	if _, err := training.ParseDate(input.Date); err != nil {
		http.Error(w, "invalid date: "+input.Date, http.StatusBadRequest)
		return
	}

	record, err := handler.service.Log(ctx, userID, input)
	if err != nil {
		if errors.Is(err, ErrEmptyLog) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Errorf("failed to log workout for [%s]: %s", userID, err)
		http.Error(w, "log workout error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutsLogged.Inc()

	respJson, err := json.Marshal(record)
	if err != nil {
		http.Error(w, "marshal response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

// HandleHistory returns records in [?dateFrom, ?dateTo], newest first.
func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.history")
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

	workouts, err := handler.repo.ListRange(ctx, userID, dateFrom, dateTo)
	if err != nil {
		log.Errorf("failed to list workouts for [%s]: %s", userID, err)
		http.Error(w, "list workouts error", http.StatusInternalServerError)
		return
	}
	if workouts == nil {
		workouts = []Record{}
	}

	respJson, err := json.Marshal(HistoryResponse{Workouts: workouts})
	if err != nil {
		http.Error(w, "marshal workouts error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)
	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "workout id required", http.StatusBadRequest)
		return
	}

	result, err := handler.service.Delete(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete workout [%s] for [%s]: %s", id, userID, err)
		http.Error(w, "delete workout error", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutsDeleted.Inc()

	respJson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "marshal response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
