package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/keepfit/keepfit/internal/usersession"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoMock struct {
	mutex    sync.Mutex
	profiles map[string]Profile
}

func newRepoMock() *repoMock {
	return &repoMock{
		profiles: make(map[string]Profile),
	}
}

func (r *repoMock) Get(_ context.Context, userID string) (*Profile, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &profile, nil
}

func (r *repoMock) Upsert(_ context.Context, profile Profile) (*Profile, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now()
	if existing, ok := r.profiles[profile.UserID]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	r.profiles[profile.UserID] = profile
	return &profile, nil
}

func userRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(usersession.ContextWithUserID(req.Context(), "user1"))
}

func TestHandler_UpsertGet(t *testing.T) {
	handler := NewHandler(newRepoMock())

	profileJson, err := json.Marshal(Profile{
		AbilityLevel:      AbilityBeginner,
		TrainingFrequency: 3,
		SessionDuration:   30,
		InjuryNotes:       "left wrist",
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.HandleUpsert(rr, userRequest(t, "PUT", "/profile", profileJson))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.HandleGet(rr, userRequest(t, "GET", "/profile", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, AbilityBeginner, got.AbilityLevel)
	assert.Equal(t, 3, got.TrainingFrequency)
	assert.Equal(t, "left wrist", got.InjuryNotes)
}

func TestHandler_Get_notFound(t *testing.T) {
	handler := NewHandler(newRepoMock())

	rr := httptest.NewRecorder()
	handler.HandleGet(rr, userRequest(t, "GET", "/profile", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Upsert_invalid(t *testing.T) {
	handler := NewHandler(newRepoMock())

	testCases := []Profile{
		{AbilityLevel: "pro"},
		{TrainingFrequency: 9},
		{SessionDuration: -10},
	}
	for _, profile := range testCases {
		profileJson, err := json.Marshal(profile)
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		handler.HandleUpsert(rr, userRequest(t, "PUT", "/profile", profileJson))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}
}
