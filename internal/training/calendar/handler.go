package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type activePlanGetter interface {
	GetActive(ctx context.Context, userID string) (*plans.Plan, error)
}

type MonthResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	*MonthStatus
}

type Handler struct {
	aggregator *Aggregator
	planGetter activePlanGetter
}

func NewHandler(aggregator *Aggregator, planGetter activePlanGetter) *Handler {
	return &Handler{
		aggregator: aggregator,
		planGetter: planGetter,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/calendar/{year}/{month}", handler.HandleMonth).Methods("GET", "OPTIONS").Name("calendar-month")
}

// HandleMonth returns the per-day status map for the given month. Works
// without an active plan too, logged days then show up as extra.
func (handler *Handler) HandleMonth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.calendar.month")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "invalid year", http.StatusBadRequest)
		return
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	}

	var activePlan *plans.Plan
	activePlan, err = handler.planGetter.GetActive(ctx, userID)
	if err != nil && !errors.Is(err, plans.ErrPlanNotFound) {
		log.Errorf("failed to get active plan for [%s]: %s", userID, err)
		http.Error(w, "get plan error", http.StatusInternalServerError)
		return
	}

	monthStatus, err := handler.aggregator.BuildMonthStatus(ctx, userID, activePlan, year, month)
	if err != nil {
		log.Errorf("failed to build month status [%d-%d] for [%s]: %s", year, month, userID, err)
		http.Error(w, "build month status error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(MonthResponse{
		Year:        year,
		Month:       month,
		MonthStatus: monthStatus,
	})
	if err != nil {
		http.Error(w, "marshal month status error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
