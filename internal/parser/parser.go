// Package parser converts free-text shift notes into structured horse
// events through a text-generation model, validates the structured
// reply, and applies it through the store layer.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/store"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// Result is the summary a Parse call always resolves to. On failure,
// entities applied before the failing call remain applied; there is no
// rollback.
type Result struct {
	Success     bool
	AddedEvents int
	AddedHorses int
	Err         error
}

// parsedSchedule is the required shape of the model's reply. A pointer
// field distinguishes an absent horseEvents key (a hard parse failure)
// from an empty list.
type parsedSchedule struct {
	HorseEvents *[]model.HorseEvent `json:"horseEvents"`
	NewHorses   []model.Horse       `json:"newHorses"`
}

// Parser orchestrates prompt construction, the external call, reply
// validation, and the apply phase. One parse runs at a time; there is
// deliberately no retry policy, since a failed parse surfaces
// immediately and the caller may resubmit the same text.
type Parser struct {
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client

	horses *store.Horses
	tasks  *store.Tasks
	events *store.Events

	mu sync.Mutex
}

// New creates a parser bound to the given coordinators.
func New(
	apiKey string,
	cfg model.AIConfig,
	horses *store.Horses,
	tasks *store.Tasks,
	events *store.Events,
) *Parser {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Parser{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{},
		horses:    horses,
		tasks:     tasks,
		events:    events,
	}
}

// Parse analyzes the shift notes and commits the extracted entities.
// It always resolves to a Result and never lets an internal error
// escape. New horses are applied before the events that may reference
// them, so a horse lookup on a fresh event resolves immediately.
func (p *Parser) Parse(ctx context.Context, text string) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	today := model.Today()

	horses, err := p.horses.List(ctx)
	if err != nil {
		return Result{Err: fmt.Errorf("reading horses: %w", err)}
	}
	tasks, err := p.tasks.List(ctx)
	if err != nil {
		return Result{Err: fmt.Errorf("reading tasks: %w", err)}
	}
	todayEvents, err := p.events.ListByDate(ctx, today)
	if err != nil {
		return Result{Err: fmt.Errorf("reading today's events: %w", err)}
	}

	prompt := buildPrompt(text, horses, tasks, todayEvents, today)

	reply, err := p.callAPI(ctx, prompt)
	if err != nil {
		return Result{Err: err}
	}

	parsed, err := decodeReply(reply)
	if err != nil {
		return Result{Err: err}
	}

	return p.apply(ctx, parsed)
}

// apply commits the parsed entities through the store mutation entry
// points. A failing call aborts the phase; earlier additions stay.
func (p *Parser) apply(ctx context.Context, parsed *parsedSchedule) Result {
	var addedHorses, addedEvents int

	for _, horse := range parsed.NewHorses {
		if horse.ID == "" {
			horse.ID = model.ID("horse-" + uuid.New().String())
		}
		if err := p.horses.Add(ctx, horse); err != nil {
			return Result{
				AddedHorses: addedHorses,
				Err:         fmt.Errorf("adding horse %q: %w", horse.Name, err),
			}
		}
		addedHorses++
	}

	for _, event := range *parsed.HorseEvents {
		if event.ID == "" {
			event.ID = model.ID("event-" + uuid.New().String())
		}
		if err := p.events.Add(ctx, event); err != nil {
			return Result{
				AddedHorses: addedHorses,
				AddedEvents: addedEvents,
				Err:         fmt.Errorf("adding event at %s: %w", event.Time, err),
			}
		}
		addedEvents++
	}

	return Result{
		Success:     true,
		AddedEvents: addedEvents,
		AddedHorses: addedHorses,
	}
}

// decodeReply parses the model's textual payload. Anything that is not
// a JSON object carrying a horseEvents array is a hard failure; no
// partial acceptance of malformed replies.
func decodeReply(reply string) (*parsedSchedule, error) {
	var parsed parsedSchedule
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &parsed); err != nil {
		return nil, fmt.Errorf("reply is not valid JSON: %w", err)
	}
	if parsed.HorseEvents == nil {
		return nil, fmt.Errorf("reply is missing the horseEvents field")
	}
	return &parsed, nil
}

// callAPI makes a single request to the Claude Messages API and returns
// the primary textual content of the reply.
func (p *Parser) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := apiRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling text-generation API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("response contains no text content")
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
