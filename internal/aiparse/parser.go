package aiparse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/keepfit/keepfit/internal/telemetry/tracing"
	"github.com/keepfit/keepfit/internal/training"

	"github.com/coocood/freecache"
	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

const (
	oneHour     = 60 * 60
	cacheExpire = oneHour * 24

	systemPrompt = `You extract workout data from freeform training notes, often written in Chinese.
The known exercises are: push (俯卧撑), squat (深蹲), pull (引体向上), leg (举腿), bridge (桥), hand (倒立撑).
Respond with a JSON array only, no prose. Each element:
{"exercise": "<one of the known names or ids>", "sets": <int>, "reps": <int>, "confidence": <0..1>}.
Skip activities that are none of the known exercises.`
)

var (
	ErrEmptyText    = errors.New("empty text")
	ErrNothingFound = errors.New("no exercises recognized")
)

// ParsedExercise is one structured tuple extracted from freeform text.
type ParsedExercise struct {
	ExerciseID training.ExerciseID `json:"exerciseId"`
	Sets       int                 `json:"sets"`
	Reps       int                 `json:"reps"`
	Confidence float64             `json:"confidence"`
}

// rawParsed mirrors what the model is asked to return.
type rawParsed struct {
	Exercise   string  `json:"exercise"`
	Sets       int     `json:"sets"`
	Reps       int     `json:"reps"`
	Confidence float64 `json:"confidence"`
}

type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Parser turns freeform workout notes into structured exercise tuples
// via a chat completion. Identical texts are served from an in-process
// cache instead of a second model call.
type Parser struct {
	client completionClient
	cache  *freecache.Cache
	model  string
}

func NewParser(client completionClient, model string, cacheSizeBytes int) *Parser {
	return &Parser{
		client: client,
		cache:  freecache.NewCache(cacheSizeBytes),
		model:  model,
	}
}

func (p *Parser) Parse(ctx context.Context, text string) (_ []ParsedExercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "aiparse.parse")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	cacheKey := []byte(text)
	if cached, cerr := p.cache.Get(cacheKey); cerr == nil {
		var parsed []ParsedExercise
		if jerr := json.Unmarshal(cached, &parsed); jerr == nil {
			return parsed, nil
		}
		log.Warnf("failed to unmarshal cached parse result, dropping it")
		p.cache.Del(cacheKey)
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	parsed, err := parseCompletion(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	if cached, merr := json.Marshal(parsed); merr == nil {
		if serr := p.cache.Set(cacheKey, cached, cacheExpire); serr != nil {
			log.Warnf("failed to cache parse result: %s", serr)
		}
	}
	return parsed, nil
}

// parseCompletion extracts the JSON array from the model output. Models
// occasionally wrap the array in prose or code fences, so a strict
// unmarshal is tried first and the bracketed substring second.
func parseCompletion(content string) ([]ParsedExercise, error) {
	var raw []rawParsed
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		start := strings.Index(content, "[")
		end := strings.LastIndex(content, "]")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no json array in completion: %q", content)
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("unmarshal completion: %w", err)
		}
	}

	// best confidence wins per exercise
	bestByExercise := make(map[training.ExerciseID]ParsedExercise)
	for _, r := range raw {
		exerciseID, ok := resolveExercise(r.Exercise)
		if !ok {
			log.Tracef("aiparse: skipping unknown exercise %q", r.Exercise)
			continue
		}
		if r.Sets <= 0 && r.Reps <= 0 {
			continue
		}
		parsed := ParsedExercise{
			ExerciseID: exerciseID,
			Sets:       r.Sets,
			Reps:       r.Reps,
			Confidence: r.Confidence,
		}
		if best, exists := bestByExercise[exerciseID]; !exists || parsed.Confidence > best.Confidence {
			bestByExercise[exerciseID] = parsed
		}
	}
	if len(bestByExercise) == 0 {
		return nil, ErrNothingFound
	}

	results := make([]ParsedExercise, 0, len(bestByExercise))
	for _, exerciseID := range training.AllExercises {
		if parsed, ok := bestByExercise[exerciseID]; ok {
			results = append(results, parsed)
		}
	}
	return results, nil
}

func resolveExercise(name string) (training.ExerciseID, bool) {
	name = strings.TrimSpace(name)
	if exerciseID := training.ExerciseID(strings.ToLower(name)); exerciseID.Valid() {
		return exerciseID, true
	}
	return training.ExerciseByName(name)
}
