package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/usersession"
	"github.com/keepfit/keepfit/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type profileRepo interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Upsert(ctx context.Context, profile Profile) (*Profile, error)
}

type Handler struct {
	repo profileRepo
}

func NewHandler(repo profileRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/profile", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	router.HandleFunc("/profile", handler.HandleUpsert).Methods("PUT", "OPTIONS").Name("upsert-profile")
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	profile, err := handler.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "no profile", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get profile for [%s]: %s", userID, err)
		http.Error(w, "get profile error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(profile)
	if err != nil {
		http.Error(w, "marshal profile error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.upsert")
	defer span.End()

	userID := usersession.UserIDFromContext(ctx)

	var profile Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		log.Tracef("upsert profile, unmarshal json params: %s", err)
		http.Error(w, "upsert profile failed", http.StatusBadRequest)
		return
	}
	if err := profile.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	profile.UserID = userID

	upserted, err := handler.repo.Upsert(ctx, profile)
	if err != nil {
		log.Errorf("failed to upsert profile for [%s]: %s", userID, err)
		http.Error(w, "upsert profile error", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(upserted)
	if err != nil {
		http.Error(w, "marshal profile error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
