package aiparse

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keepfit/keepfit/internal/middleware"
	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ParseRequest struct {
	Text string `json:"text"`
}

type ParseResponse struct {
	Exercises []ParsedExercise `json:"exercises"`
}

type Handler struct {
	parser         *Parser
	metricsManager *metrics.Manager
}

func NewHandler(parser *Parser, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		parser:         parser,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	parseSubrouter := router.PathPrefix("/aiparse").Subrouter()
	parseSubrouter.HandleFunc("", handler.HandleParse).Methods("POST", "OPTIONS").Name("ai-parse")

	// model calls are slow and cost money, so this endpoint is rate limited
	parseSubrouter.Use(middleware.RateLimit(rateLimiter, "ai-parse", allowedPerMin, handler.metricsManager))
}

// HandleParse extracts structured exercise tuples from freeform text.
// The caller decides what to do with them, nothing is logged here.
func (handler *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.aiparse.parse")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	parsed, err := handler.parser.Parse(ctx, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyText):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrNothingFound):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			log.Errorf("failed to parse text for [%s]: %s", userID, err)
			http.Error(w, "parse error", http.StatusInternalServerError)
		}
		return
	}

	handler.metricsManager.CounterTextsParsed.Inc()

	respJson, err := json.Marshal(ParseResponse{Exercises: parsed})
	if err != nil {
		http.Error(w, "marshal response error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
