package livehttp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bodhion/internal/store/runs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type stubJournal struct {
	rows []runs.AuditRow
	err  error
}

func (s *stubJournal) Recent(int) ([]runs.AuditRow, error) { return s.rows, s.err }

func newTestServer(t *testing.T, journal JournalReader) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Addr: ":0",
		Status: func() Status {
			return Status{
				SessionID:      "sess-1",
				Mode:           "run",
				Strategy:       "sma",
				Feeds:          []string{"btc"},
				InterceptState: "enabled",
				AgentState:     "running",
				StartedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}
		},
		Journal: journal,
	})
	require.NoError(t, err)
	return srv
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := gjson.ParseBytes(rec.Body.Bytes())
	assert.Equal(t, "sess-1", body.Get("session_id").String())
	assert.Equal(t, "run", body.Get("mode").String())
	assert.Equal(t, "enabled", body.Get("intercept_state").String())
	assert.Equal(t, "running", body.Get("agent_state").String())
}

func TestJournalEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubJournal{rows: []runs.AuditRow{
		{ID: 1, TS: 1700000000000, Kind: "order", Symbol: "BTCUSDT", Detail: "{}"},
	}})

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journal?limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	rows := gjson.ParseBytes(rec.Body.Bytes()).Get("rows")
	require.Equal(t, int64(1), rows.Get("#").Int())
	assert.Equal(t, "order", rows.Get("0.kind").String())
}

func TestJournalEndpointWithoutJournal(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journal", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), gjson.ParseBytes(rec.Body.Bytes()).Get("rows.#").Int())
}

func TestNewServerRequiresStatus(t *testing.T) {
	_, err := NewServer(ServerConfig{Addr: ":0"})
	require.Error(t, err)
}
