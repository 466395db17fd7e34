package question

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/arjunalabs/arjuna-backend/internal/model"
)

// jsonObjectRegex extracts the first JSON object from a completion. Models
// occasionally wrap the payload in prose or markdown fences.
var jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)

// Generator produces questions from an OpenAI-compatible generative-language
// API (Gemini's compatibility endpoint in production).
type Generator struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	log     zerolog.Logger
}

// NewGenerator creates a Generator. baseURL may be empty for the default
// OpenAI endpoint; timeout bounds every Fetch call.
func NewGenerator(baseURL, apiKey, modelName string, timeout time.Duration, log zerolog.Logger) *Generator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Generator{
		api:     openai.NewClientWithConfig(cfg),
		model:   modelName,
		timeout: timeout,
		log:     log.With().Str("component", "question_generator").Logger(),
	}
}

// Fetch asks the model for one MCQ and validates its shape.
func (g *Generator) Fetch(ctx context.Context, language string, difficulty model.Difficulty) (*model.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(language, difficulty)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: generate: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: model returned no choices", ErrUnavailable)
	}

	raw := resp.Choices[0].Message.Content
	q, err := parsePayload(raw)
	if err != nil {
		g.log.Warn().Err(err).Str("raw", raw).Msg("Discarding malformed question payload")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// The model sometimes echoes a different difficulty; the request's
	// difficulty is authoritative for adaptation bookkeeping.
	q.Difficulty = difficulty
	return q, nil
}

func buildPrompt(language string, difficulty model.Difficulty) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate a %s level multiple choice question about %s.\n", difficulty, language)
	sb.WriteString("Return ONLY valid JSON in this exact format:\n")
	sb.WriteString(`{
  "question": "question text",
  "options": ["A) option1", "B) option2", "C) option3", "D) option4"],
  "correctAnswer": "A",
  "explanation": "brief explanation",
  "difficulty": "` + string(difficulty) + `"
}`)
	return sb.String()
}

// payload mirrors the wire format the prompt demands.
type payload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// parsePayload extracts and validates a question from raw model output.
func parsePayload(raw string) (*model.Question, error) {
	match := jsonObjectRegex.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var p payload
	if err := json.Unmarshal([]byte(match), &p); err != nil {
		return nil, fmt.Errorf("decode question: %v", err)
	}

	if strings.TrimSpace(p.Question) == "" {
		return nil, fmt.Errorf("empty question text")
	}
	if len(p.Options) != 4 {
		return nil, fmt.Errorf("expected 4 options, got %d", len(p.Options))
	}

	options := make([]model.Option, 0, 4)
	seen := make(map[string]bool, 4)
	for _, o := range p.Options {
		opt, err := parseOption(o)
		if err != nil {
			return nil, err
		}
		if seen[opt.Key] {
			return nil, fmt.Errorf("duplicate option key %q", opt.Key)
		}
		seen[opt.Key] = true
		options = append(options, opt)
	}

	correct := strings.ToUpper(strings.TrimSpace(p.CorrectAnswer))
	if !seen[correct] {
		return nil, fmt.Errorf("correct answer %q is not an option key", p.CorrectAnswer)
	}

	return &model.Question{
		Text:          strings.TrimSpace(p.Question),
		Options:       options,
		CorrectOption: correct,
		Explanation:   strings.TrimSpace(p.Explanation),
	}, nil
}

// parseOption splits an "A) text" style option into key and text.
func parseOption(s string) (model.Option, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 {
		return model.Option{}, fmt.Errorf("option %q too short", s)
	}

	key := strings.ToUpper(s[:1])
	if key < "A" || key > "Z" {
		return model.Option{}, fmt.Errorf("option %q has no letter label", s)
	}

	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, ") "):
		rest = rest[2:]
	case strings.HasPrefix(rest, ")"):
		rest = rest[1:]
	case strings.HasPrefix(rest, ". "):
		rest = rest[2:]
	default:
		return model.Option{}, fmt.Errorf("option %q is not labeled like %q", s, "A) text")
	}

	text := strings.TrimSpace(rest)
	if text == "" {
		return model.Option{}, fmt.Errorf("option %q has empty text", s)
	}
	return model.Option{Key: key, Text: text}, nil
}
