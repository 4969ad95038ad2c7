package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/blindtaste/internal/app"
	"github.com/shrimpsizemoose/blindtaste/internal/store/sqlite"
	"github.com/shrimpsizemoose/blindtaste/internal/store/storetest"
)

const testConfig = `
[server]
port = ":0"

[database]
dsn = ":memory:"

[[api.required_headers]]
name = "X-Tasting-Client"
value = "console"
`

func setupServer(t *testing.T) (*httptest.Server, func()) {
	config, err := app.ParseConfig("test.toml", []byte(testConfig))
	require.NoError(t, err)

	st, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)

	service, err := app.New(config, st, app.NewLocalLocker(time.Second))
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewTastingHandler(service).Register(mux)
	server := httptest.NewServer(mux)

	return server, func() {
		server.Close()
		service.Close()
	}
}

type client struct {
	t      *testing.T
	server *httptest.Server
}

func (c client) do(method, path string, body interface{}) (int, map[string]json.RawMessage) {
	c.t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, c.server.URL+path, &payload)
	require.NoError(c.t, err)
	req.Header.Set("X-Tasting-Client", "console")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]json.RawMessage{}
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func idOf(t *testing.T, raw json.RawMessage) uuid.UUID {
	t.Helper()
	var record struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &record))
	return record.ID
}

func TestTastingHandler_Flow(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()
	c := client{t: t, server: server}

	status, body := c.do(http.MethodPost, "/api/v1/events", map[string]interface{}{"name": "Harvest Cup"})
	require.Equal(t, http.StatusCreated, status)
	eventID := idOf(t, body["event"])

	status, body = c.do(http.MethodPost, "/api/v1/rounds", map[string]interface{}{
		"event_id": eventID, "name": "Glass 1", "position": 1,
	})
	require.Equal(t, http.StatusCreated, status)
	roundID := idOf(t, body["round"])

	status, body = c.do(http.MethodPost, "/api/v1/participants", map[string]interface{}{"name": "Ana"})
	require.Equal(t, http.StatusCreated, status)
	anaID := idOf(t, body["participant"])

	status, _ = c.do(http.MethodPost, "/api/v1/evaluations", storetest.RedEvaluation(roundID, &anaID))
	require.Equal(t, http.StatusCreated, status)

	status, body = c.do(http.MethodGet, "/api/v1/events", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body["events"]), eventID.String())

	status, body = c.do(http.MethodGet, "/api/v1/rounds?event_id="+eventID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	var rounds []struct {
		ID       uuid.UUID `json:"id"`
		Position int       `json:"position"`
	}
	require.NoError(t, json.Unmarshal(body["rounds"], &rounds))
	require.Len(t, rounds, 1)
	assert.Equal(t, roundID, rounds[0].ID)

	status, body = c.do(http.MethodGet, "/api/v1/events/"+eventID.String()+"/open-round", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, roundID, idOf(t, body["round"]))

	status, body = c.do(http.MethodGet, "/api/v1/evaluations/answered-rounds?participant_id="+anaID.String()+"&event_id="+eventID.String(), nil)
	require.Equal(t, http.StatusOK, status)
	var answered []uuid.UUID
	require.NoError(t, json.Unmarshal(body["round_ids"], &answered))
	assert.Equal(t, []uuid.UUID{roundID}, answered)

	status, _ = c.do(http.MethodPost, "/api/v1/rounds/"+roundID.String()+"/close", nil)
	assert.Equal(t, http.StatusConflict, status, "no answer key yet")

	status, _ = c.do(http.MethodPost, "/api/v1/evaluations", storetest.RedEvaluation(roundID, nil))
	require.Equal(t, http.StatusCreated, status)

	status, body = c.do(http.MethodPost, "/api/v1/rounds/"+roundID.String()+"/close", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "1", string(body["count"]))

	status, _ = c.do(http.MethodGet, "/api/v1/events/"+eventID.String()+"/open-round", nil)
	assert.Equal(t, http.StatusNotFound, status, "only round is closed")

	status, body = c.do(http.MethodGet, "/api/v1/rounds/"+roundID.String()+"/winners", nil)
	require.Equal(t, http.StatusOK, status)
	var winners []struct {
		Position        int    `json:"position"`
		ParticipantName string `json:"participant_name"`
	}
	require.NoError(t, json.Unmarshal(body["winners"], &winners))
	require.Len(t, winners, 1)
	assert.Equal(t, "Ana", winners[0].ParticipantName)

	status, body = c.do(http.MethodGet, "/api/v1/events/"+eventID.String()+"/ranking?limit=5", nil)
	require.Equal(t, http.StatusOK, status)
	var rows []struct {
		Position   int     `json:"position"`
		Percentual float64 `json:"percentual"`
		BadgeKey   string  `json:"badge_key"`
	}
	require.NoError(t, json.Unmarshal(body["rows"], &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].Percentual)
	assert.Equal(t, "specialist", rows[0].BadgeKey)

	status, body = c.do(http.MethodGet, "/api/v1/rounds/"+roundID.String()+"/participants/"+anaID.String()+"/result", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body["result"]), `"groups"`)

	status, body = c.do(http.MethodGet, "/api/v1/events/"+eventID.String()+"/answer-key", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body["answer_keys"]), roundID.String())

	status, _ = c.do(http.MethodPost, "/api/v1/events/"+eventID.String()+"/close", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestTastingHandler_Errors(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()
	c := client{t: t, server: server}

	testCases := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		expected int
	}{
		{"Malformed id", http.MethodGet, "/api/v1/rounds/not-a-uuid/ranking", nil, http.StatusBadRequest},
		{"Unknown round", http.MethodGet, "/api/v1/rounds/" + uuid.NewString() + "/ranking", nil, http.StatusNotFound},
		{"Unknown event", http.MethodPost, "/api/v1/events/" + uuid.NewString() + "/close", nil, http.StatusNotFound},
		{"Invalid event", http.MethodPost, "/api/v1/events", map[string]interface{}{"name": ""}, http.StatusBadRequest},
		{"Bad limit", http.MethodGet, "/api/v1/events/" + uuid.NewString() + "/ranking?limit=-1", nil, http.StatusBadRequest},
		{"Rounds without event", http.MethodGet, "/api/v1/rounds", nil, http.StatusBadRequest},
		{"Rounds of unknown event", http.MethodGet, "/api/v1/rounds?event_id=" + uuid.NewString(), nil, http.StatusNotFound},
		{"Open round of unknown event", http.MethodGet, "/api/v1/events/" + uuid.NewString() + "/open-round", nil, http.StatusNotFound},
		{"Answered rounds without participant", http.MethodGet, "/api/v1/evaluations/answered-rounds?event_id=" + uuid.NewString(), nil, http.StatusBadRequest},
		{"Answered rounds of unknown event", http.MethodGet, "/api/v1/evaluations/answered-rounds?participant_id=" + uuid.NewString() + "&event_id=" + uuid.NewString(), nil, http.StatusNotFound},
		{"Invalid evaluation", http.MethodPost, "/api/v1/evaluations", map[string]interface{}{"round_id": uuid.NewString()}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := c.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.expected, status)
		})
	}
}

func TestTastingHandler_RequiredHeaders(t *testing.T) {
	server, cleanup := setupServer(t)
	defer cleanup()

	resp, err := http.Post(server.URL+"/api/v1/participants", "application/json", bytes.NewBufferString(`{"name":"Eve"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
