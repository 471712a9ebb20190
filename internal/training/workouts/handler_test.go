package workouts

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keepfit/keepfit/internal/telemetry/metrics"
	"github.com/keepfit/keepfit/internal/training"
	"github.com/keepfit/keepfit/internal/training/plans"
	"github.com/keepfit/keepfit/internal/training/schedules"
	"github.com/keepfit/keepfit/internal/usersession"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(usersession.ContextWithUserID(req.Context(), "user1"))
}

type handlerFixture struct {
	handler *Handler
	records *repoMock
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	records := NewMockWorkoutsRepo()
	scheduleStore := schedules.NewMockSchedulesRepo()
	planStore := plans.NewMockPlansRepo()

	// a week plan training push every day, so today always resolves
	template := map[training.ExerciseID]plans.TemplateEntry{
		training.ExercisePush: {DaysOfWeek: []int{1, 2, 3, 4, 5, 6, 7}},
	}
	_, err := planStore.Add(context.Background(), plans.Plan{
		ID:               "plan1",
		UserID:           "user1",
		Name:             "daily push",
		ExerciseScope:    training.BasicExercises,
		ScheduleType:     plans.ScheduleWeek,
		ScheduleTemplate: template,
		SetsRange:        "2-3",
	})
	require.NoError(t, err)

	service := NewService(records, scheduleStore, planStore, newProgressStub(), &diaryStub{})
	resolver := schedules.NewResolver(scheduleStore)
	handler := NewHandler(service, records, planStore, resolver, metrics.NewTestManager())

	return &handlerFixture{
		handler: handler,
		records: records,
	}
}

func TestHandler_Today(t *testing.T) {
	f := newHandlerFixture(t)

	rr := httptest.NewRecorder()
	f.handler.HandleToday(rr, userRequest(t, "GET", "/workouts/today", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp TodayResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, training.Today(), resp.Date)
	require.NotNil(t, resp.Schedule)
	assert.Contains(t, resp.Schedule.Exercises, training.ExercisePush)
	assert.True(t, resp.Schedule.Generated)
	assert.False(t, resp.RestDay)
	assert.Empty(t, resp.Workouts)
}

func TestHandler_Today_noPlan(t *testing.T) {
	records := NewMockWorkoutsRepo()
	scheduleStore := schedules.NewMockSchedulesRepo()
	planStore := plans.NewMockPlansRepo()
	service := NewService(records, scheduleStore, planStore, newProgressStub(), &diaryStub{})
	handler := NewHandler(service, records, planStore, schedules.NewResolver(scheduleStore), metrics.NewTestManager())

	rr := httptest.NewRecorder()
	handler.HandleToday(rr, userRequest(t, "GET", "/workouts/today", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "no plan")
}

func TestHandler_Log_History(t *testing.T) {
	f := newHandlerFixture(t)

	input := LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		RepsPerSet: []int{10, 8},
	}
	inputJson, err := json.Marshal(input)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	f.handler.HandleLog(rr, userRequest(t, "POST", "/workouts", inputJson))
	require.Equal(t, http.StatusCreated, rr.Code)

	var record Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, 2, record.Sets)

	rr = httptest.NewRecorder()
	f.handler.HandleHistory(rr, userRequest(t, "GET", "/workouts/history?dateFrom=2024-01-01&dateTo=2024-01-31", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var history HistoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history.Workouts, 1)
	assert.Equal(t, record.ID, history.Workouts[0].ID)
}

func TestHandler_Log_invalid(t *testing.T) {
	f := newHandlerFixture(t)

	testCases := []struct {
		name  string
		input LogInput
	}{
		{
			name:  "unknown exercise",
			input: LogInput{Date: "2024-01-01", ExerciseID: "plank", Sets: 1, Reps: 5},
		},
		{
			name:  "invalid date",
			input: LogInput{Date: "not a date", ExerciseID: training.ExercisePush, Sets: 1, Reps: 5},
		},
		{
			name:  "empty log",
			input: LogInput{Date: "2024-01-01", ExerciseID: training.ExercisePush},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inputJson, err := json.Marshal(tc.input)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			f.handler.HandleLog(rr, userRequest(t, "POST", "/workouts", inputJson))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	f := newHandlerFixture(t)

	inputJson, err := json.Marshal(LogInput{
		Date:       "2024-01-01",
		ExerciseID: training.ExercisePush,
		Sets:       1,
		Reps:       10,
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	f.handler.HandleLog(rr, userRequest(t, "POST", "/workouts", inputJson))
	require.Equal(t, http.StatusCreated, rr.Code)

	var record Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))

	req := userRequest(t, "DELETE", "/workouts/"+record.ID, nil)
	req = mux.SetURLVars(req, map[string]string{"id": record.ID})
	rr = httptest.NewRecorder()
	f.handler.HandleDelete(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var result DeleteResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, training.DayNone, result.DayStatus)

	// second delete is a not found no-op
	rr = httptest.NewRecorder()
	f.handler.HandleDelete(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
