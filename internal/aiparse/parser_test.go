package aiparse

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

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completionStub struct {
	content string
	err     error
	calls   int
}

func (s *completionStub) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.content}},
		},
	}, nil
}

const testCacheSize = 512 * 1024

func TestParser_Parse(t *testing.T) {
	stub := &completionStub{
		content: `[{"exercise":"俯卧撑","sets":3,"reps":10,"confidence":0.95},{"exercise":"深蹲","sets":2,"reps":20,"confidence":0.8}]`,
	}
	parser := NewParser(stub, "gpt-4o-mini", testCacheSize)

	parsed, err := parser.Parse(context.Background(), "今天做了3组俯卧撑每组10个，还有2组深蹲")
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	assert.Equal(t, training.ExercisePush, parsed[0].ExerciseID)
	assert.Equal(t, 3, parsed[0].Sets)
	assert.Equal(t, 10, parsed[0].Reps)
	assert.Equal(t, training.ExerciseSquat, parsed[1].ExerciseID)
}

func TestParser_Parse_cached(t *testing.T) {
	stub := &completionStub{
		content: `[{"exercise":"push","sets":1,"reps":10,"confidence":0.9}]`,
	}
	parser := NewParser(stub, "gpt-4o-mini", testCacheSize)

	for i := 0; i < 3; i++ {
		parsed, err := parser.Parse(context.Background(), "10 pushups")
		require.NoError(t, err)
		require.Len(t, parsed, 1)
	}
	// first call hits the model, the rest the cache
	assert.Equal(t, 1, stub.calls)
}

func TestParser_Parse_proseWrappedJson(t *testing.T) {
	stub := &completionStub{
		content: "Here is the result:\n```json\n[{\"exercise\":\"pull\",\"sets\":2,\"reps\":5,\"confidence\":0.7}]\n```",
	}
	parser := NewParser(stub, "gpt-4o-mini", testCacheSize)

	parsed, err := parser.Parse(context.Background(), "did some pullups")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, training.ExercisePull, parsed[0].ExerciseID)
}

func TestParser_Parse_bestConfidenceWins(t *testing.T) {
	stub := &completionStub{
		content: `[{"exercise":"push","sets":1,"reps":10,"confidence":0.4},{"exercise":"俯卧撑","sets":3,"reps":12,"confidence":0.9}]`,
	}
	parser := NewParser(stub, "gpt-4o-mini", testCacheSize)

	parsed, err := parser.Parse(context.Background(), "pushups twice")
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, 3, parsed[0].Sets)
	assert.InDelta(t, 0.9, parsed[0].Confidence, 0.001)
}

func TestParser_Parse_errors(t *testing.T) {
	parser := NewParser(&completionStub{content: "[]"}, "gpt-4o-mini", testCacheSize)
	_, err := parser.Parse(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	parser = NewParser(&completionStub{content: `[{"exercise":"swimming","sets":1,"reps":1,"confidence":0.9}]`}, "gpt-4o-mini", testCacheSize)
	_, err = parser.Parse(context.Background(), "went swimming")
	assert.ErrorIs(t, err, ErrNothingFound)

	parser = NewParser(&completionStub{content: "sorry, no idea"}, "gpt-4o-mini", testCacheSize)
	_, err = parser.Parse(context.Background(), "gibberish")
	assert.Error(t, err)
}

func TestHandler_Parse(t *testing.T) {
	stub := &completionStub{
		content: `[{"exercise":"push","sets":2,"reps":10,"confidence":0.9}]`,
	}
	handler := NewHandler(NewParser(stub, "gpt-4o-mini", testCacheSize), metrics.NewTestManager())

	reqJson, err := json.Marshal(ParseRequest{Text: "2x10 pushups"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/aiparse", bytes.NewReader(reqJson))
	req = req.WithContext(usersession.ContextWithUserID(req.Context(), "user1"))

	rr := httptest.NewRecorder()
	handler.HandleParse(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ParseResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Exercises, 1)
	assert.Equal(t, training.ExercisePush, resp.Exercises[0].ExerciseID)
}

func TestHandler_Parse_emptyText(t *testing.T) {
	handler := NewHandler(NewParser(&completionStub{}, "gpt-4o-mini", testCacheSize), metrics.NewTestManager())

	reqJson, err := json.Marshal(ParseRequest{Text: ""})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/aiparse", bytes.NewReader(reqJson))
	req = req.WithContext(usersession.ContextWithUserID(req.Context(), "user1"))

	rr := httptest.NewRecorder()
	handler.HandleParse(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
