package plans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type plansRepo interface {
	Add(ctx context.Context, plan Plan) (*Plan, error)
	GetActive(ctx context.Context, userID string) (*Plan, error)
	ArchiveActive(ctx context.Context, userID string) (int, error)
}

type recommender interface {
	Recommend(ctx context.Context, userID string, planName string, weeklyFrequency int) (*Plan, error)
}

type ResetPlanResponse struct {
	Archived int `json:"archived"`
}

type Handler struct {
	repo           plansRepo
	recommender    recommender
	metricsManager *metrics.Manager
}

func NewHandler(repo plansRepo, recommender recommender, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		recommender:    recommender,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/plan", handler.HandleCreate).Methods("POST", "OPTIONS").Name("new-plan")
	router.HandleFunc("/plan/current", handler.HandleCurrent).Methods("GET", "OPTIONS").Name("current-plan")
	router.HandleFunc("/plan/reset", handler.HandleReset).Methods("POST", "OPTIONS").Name("reset-plan")
	router.HandleFunc("/plan/recommend", handler.HandleRecommend).Methods("POST", "OPTIONS").Name("recommend-plan")
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.create")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var plan Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		log.Tracef("new plan, unmarshal json params: %s", err)
		http.Error(w, "add plan failed", http.StatusBadRequest)
		return
	}

	if err := plan.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan.UserID = userID
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}

	addedPlan, err := handler.repo.Add(ctx, plan)
	if err != nil {
		log.Errorf("failed to add new plan for [%s]: %s", userID, err)
		http.Error(w, "error, failed to add new plan", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterPlansCreated.Inc()

	planJson, err := json.Marshal(addedPlan)
	if err != nil {
		log.Errorf("marshal added plan: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusCreated)
}

func (handler *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.current")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	plan, err := handler.repo.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			http.Error(w, "no plan", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get active plan for [%s]: %s", userID, err)
		http.Error(w, "get plan error", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("marshal plan: %s", err)
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, planJson)
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.reset")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	archived, err := handler.repo.ArchiveActive(ctx, userID)
	if err != nil {
		log.Errorf("failed to reset plans for [%s]: %s", userID, err)
		http.Error(w, "reset plans error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ResetPlanResponse{Archived: archived})
	if err != nil {
		http.Error(w, "marshal response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

type recommendRequest struct {
	PlanName        string `json:"planName"`
	WeeklyFrequency int    `json:"weeklyFrequency"`
}

func (handler *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans.recommend")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	plan, err := handler.recommender.Recommend(ctx, userID, req.PlanName, req.WeeklyFrequency)
	if err != nil {
		log.Errorf("failed to recommend plan for [%s]: %s", userID, err)
		http.Error(w, "recommend plan error", http.StatusInternalServerError)
		return
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		http.Error(w, "marshal plan error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, planJson)
}
