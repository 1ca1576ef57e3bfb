package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akotova/stablemate/internal/model"
	"github.com/akotova/stablemate/internal/repo"
	"github.com/akotova/stablemate/internal/seed"
	"github.com/akotova/stablemate/internal/store"
	"github.com/akotova/stablemate/tests/testutil"
)

// roundTripFunc stubs the HTTP transport with a canned handler.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// textReply wraps a schedule payload in the Messages API response shape.
func textReply(t *testing.T, payload string) *http.Response {
	t.Helper()
	body, err := json.Marshal(apiResponse{
		ID:   "msg_test",
		Type: "message",
		Role: "assistant",
		Content: []apiContentBlock{
			{Type: "text", Text: payload},
		},
	})
	require.NoError(t, err)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type parserFixture struct {
	parser *Parser
	horses *store.Horses
	tasks  *store.Tasks
	events *store.Events
}

func newFixture(t *testing.T, rt roundTripFunc) *parserFixture {
	t.Helper()
	st := testutil.NewTestStorage(t)
	tasksRepo := repo.NewTasks(st, 0)
	require.NoError(t, seed.EnsureDefaultTasks(context.Background(), tasksRepo))

	horses := store.NewHorses(repo.NewHorses(st, 0))
	tasks := store.NewTasks(tasksRepo)
	events := store.NewEvents(repo.NewEvents(st, 0))

	p := New("test-key", model.AIConfig{}, horses, tasks, events)
	p.client.Transport = rt

	return &parserFixture{parser: p, horses: horses, tasks: tasks, events: events}
}

func TestParse_AppliesEventsAndNewHorses(t *testing.T) {
	today := model.Today()
	payload := `{
		"horseEvents": [
			{"id": "", "horseId": "h-new", "tasksIds": ["default-collect", "default-disassemble"], "time": "11:00", "date": "` + today + `", "completed": false}
		],
		"newHorses": [
			{"id": "h-new", "name": "Звезда", "colors": []}
		]
	}`

	var captured apiRequest
	fx := newFixture(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "test-key", req.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, req.Header.Get("anthropic-version"))
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		return textReply(t, payload), nil
	})

	result := fx.parser.Parse(context.Background(), "11 Звезда с+р")

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.AddedHorses)
	assert.Equal(t, 1, result.AddedEvents)

	assert.Equal(t, defaultModel, captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Contains(t, captured.Messages[0].Content, "11 Звезда с+р",
		"the raw notes must reach the prompt verbatim")

	horse, err := fx.horses.FindByID(context.Background(), "h-new")
	require.NoError(t, err)
	require.NotNil(t, horse, "new horses apply before the events that reference them")
	assert.Equal(t, "Звезда", horse.Name)

	events, err := fx.events.ListByDate(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.ID("h-new"), events[0].HorseID)
	assert.True(t, strings.HasPrefix(string(events[0].ID), "event-"),
		"a blank event id gets a generated one")
}

func TestParse_MissingHorseEventsFieldFails(t *testing.T) {
	fx := newFixture(t, func(*http.Request) (*http.Response, error) {
		return textReply(t, `{"newHorses": []}`), nil
	})

	result := fx.parser.Parse(context.Background(), "11 Николь")

	require.Error(t, result.Err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Err.Error(), "horseEvents")

	events, err := fx.events.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events, "a rejected reply must not mutate any collection")
}

func TestParse_MalformedReplyFails(t *testing.T) {
	fx := newFixture(t, func(*http.Request) (*http.Response, error) {
		return textReply(t, "Не могу распарсить это расписание."), nil
	})

	result := fx.parser.Parse(context.Background(), "что-то невнятное")

	require.Error(t, result.Err)
	assert.False(t, result.Success)

	events, err := fx.events.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParse_EmptyEventsListSucceeds(t *testing.T) {
	fx := newFixture(t, func(*http.Request) (*http.Response, error) {
		return textReply(t, `{"horseEvents": [], "newHorses": []}`), nil
	})

	result := fx.parser.Parse(context.Background(), "сегодня выходной")

	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	assert.Zero(t, result.AddedEvents)
	assert.Zero(t, result.AddedHorses)
}

func TestParse_APIErrorSurfaces(t *testing.T) {
	fx := newFixture(t, func(*http.Request) (*http.Response, error) {
		body := `{"error": {"type": "authentication_error", "message": "invalid x-api-key"}}`
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	})

	result := fx.parser.Parse(context.Background(), "11 Николь")

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "invalid x-api-key")
}

func TestParse_PartialApplyKeepsEarlierEntities(t *testing.T) {
	today := model.Today()
	// The second event carries no tasks and is rejected by the
	// repository; the first stays applied.
	payload := `{
		"horseEvents": [
			{"id": "e-ok", "horseId": "h1", "tasksIds": ["default-walk"], "time": "09:00", "date": "` + today + `", "completed": false},
			{"id": "e-bad", "horseId": "h1", "tasksIds": [], "time": "10:00", "date": "` + today + `", "completed": false}
		],
		"newHorses": []
	}`
	fx := newFixture(t, func(*http.Request) (*http.Response, error) {
		return textReply(t, payload), nil
	})

	result := fx.parser.Parse(context.Background(), "9 и 10 прогулки")

	require.Error(t, result.Err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.AddedEvents)

	events, err := fx.events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1, "entities applied before the failure stay applied")
	assert.Equal(t, model.ID("e-ok"), events[0].ID)
}

func TestDecodeReply(t *testing.T) {
	parsed, err := decodeReply(` {"horseEvents": [], "newHorses": null} `)
	require.NoError(t, err)
	assert.Empty(t, *parsed.HorseEvents)

	_, err = decodeReply(`{"newHorses": []}`)
	assert.Error(t, err)

	_, err = decodeReply(`[1, 2, 3]`)
	assert.Error(t, err)
}

func TestParse_NumericIDsAccepted(t *testing.T) {
	today := model.Today()
	// Models occasionally emit numeric ids; ID unmarshaling accepts them.
	payload := `{
		"horseEvents": [
			{"id": 1756400000000, "horseId": 42, "tasksIds": ["default-collect"], "time": "11:00", "date": "` + today + `", "completed": false}
		],
		"newHorses": [
			{"id": 42, "name": "Гром", "colors": []}
		]
	}`
	fx := newFixture(t, func(*http.Request) (*http.Response, error) {
		return textReply(t, payload), nil
	})

	result := fx.parser.Parse(context.Background(), "11 Гром сбор")

	require.NoError(t, result.Err)
	events, err := fx.events.List(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.ID("42"), events[0].HorseID)
	assert.Equal(t, model.ID("1756400000000"), events[0].ID)
}
