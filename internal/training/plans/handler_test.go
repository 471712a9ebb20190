package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/usersession"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recommenderStub struct {
	plan *Plan
	err  error
}

func (r *recommenderStub) Recommend(_ context.Context, _ string, _ string, _ int) (*Plan, error) {
	return r.plan, r.err
}

func userRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := usersession.ContextWithUserID(req.Context(), "user1")
	return req.WithContext(ctx)
}

func testWeekPlan() Plan {
	return Plan{
		Name:          "beginner week",
		ExerciseScope: training.BasicExercises,
		ScheduleType:  ScheduleWeek,
		ScheduleTemplate: map[training.ExerciseID]TemplateEntry{
			training.ExercisePush:  {DaysOfWeek: []int{1, 3, 5}},
			training.ExerciseSquat: {DaysOfWeek: []int{2, 4}},
		},
		StartLevels: map[training.ExerciseID]int{
			training.ExercisePush: 2,
		},
		SetsRange: "2-3",
	}
}

func TestHandler_Create(t *testing.T) {
	repo := NewMockPlansRepo()
	handler := NewHandler(repo, &recommenderStub{}, metrics.NewTestManager())

	planJson, err := json.Marshal(testWeekPlan())
	require.NoError(t, err)

	req := userRequest(t, "POST", "/plan", planJson)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, PlanActive, created.Status)
	assert.Equal(t, ScheduleWeek, created.ScheduleType)

	stored, err := repo.GetActive(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
}

func TestHandler_Create_archivesPrevious(t *testing.T) {
	repo := NewMockPlansRepo()
	handler := NewHandler(repo, &recommenderStub{}, metrics.NewTestManager())

	first := testWeekPlan()
	firstJson, err := json.Marshal(first)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, userRequest(t, "POST", "/plan", firstJson))
	require.Equal(t, http.StatusCreated, rr.Code)
	var firstCreated Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &firstCreated))

	second := testWeekPlan()
	second.Name = "second plan"
	secondJson, err := json.Marshal(second)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	handler.HandleCreate(rr, userRequest(t, "POST", "/plan", secondJson))
	require.Equal(t, http.StatusCreated, rr.Code)

	active, err := repo.GetActive(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "second plan", active.Name)
	assert.Equal(t, PlanArchived, repo.plans[firstCreated.ID].Status)
}

func TestHandler_Create_invalid(t *testing.T) {
	repo := NewMockPlansRepo()
	handler := NewHandler(repo, &recommenderStub{}, metrics.NewTestManager())

	invalid := testWeekPlan()
	invalid.ScheduleType = "fortnight"
	invalidJson, err := json.Marshal(invalid)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, userRequest(t, "POST", "/plan", invalidJson))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	noTemplate := testWeekPlan()
	noTemplate.ScheduleTemplate = nil
	noTemplateJson, err := json.Marshal(noTemplate)
	require.NoError(t, err)

	rr = httptest.NewRecorder()
	handler.HandleCreate(rr, userRequest(t, "POST", "/plan", noTemplateJson))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Current_noPlan(t *testing.T) {
	repo := NewMockPlansRepo()
	handler := NewHandler(repo, &recommenderStub{}, metrics.NewTestManager())

	rr := httptest.NewRecorder()
	handler.HandleCurrent(rr, userRequest(t, "GET", "/plan/current", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "no plan")
}

func TestHandler_Reset(t *testing.T) {
	repo := NewMockPlansRepo()
	handler := NewHandler(repo, &recommenderStub{}, metrics.NewTestManager())

	planJson, err := json.Marshal(testWeekPlan())
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	handler.HandleCreate(rr, userRequest(t, "POST", "/plan", planJson))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	handler.HandleReset(rr, userRequest(t, "POST", "/plan/reset", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ResetPlanResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Archived)

	_, err = repo.GetActive(context.Background(), "user1")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestHandler_Recommend(t *testing.T) {
	recommended := testWeekPlan()
	recommended.Name = "渐入佳境"
	handler := NewHandler(NewMockPlansRepo(), &recommenderStub{plan: &recommended}, metrics.NewTestManager())

	reqJson, err := json.Marshal(recommendRequest{WeeklyFrequency: 3})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.HandleRecommend(rr, userRequest(t, "POST", "/plan/recommend", reqJson))
	require.Equal(t, http.StatusOK, rr.Code)

	var got Plan
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "渐入佳境", got.Name)
}
