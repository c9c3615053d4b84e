package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/sonos-relay-go/internal/db"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "relay-test.db")
	pair, err := db.Init(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { pair.Close() })

	return NewService(pair, 30, "@daily", nil)
}

func TestService_RecordIsBestEffort(t *testing.T) {
	service := newTestService(t)

	// Record surfaces nothing; verify through a query.
	service.Record("WEBHOOK_RECEIVED", "hook", map[string]any{"type": "metadataStatus"})

	events, total, hasMore, err := service.QueryEvents(EventQueryFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.False(t, hasMore)
	require.Equal(t, "WEBHOOK_RECEIVED", events[0].Type)
}

func TestService_QueryClampsLimit(t *testing.T) {
	service := newTestService(t)
	service.Record("COMMAND_ISSUED", "cmd", nil)

	_, _, _, err := service.QueryEvents(EventQueryFilters{Limit: MaxQueryLimit + 1})
	require.NoError(t, err)
}

func TestService_PruneJobLifecycle(t *testing.T) {
	service := newTestService(t)

	require.NoError(t, service.StartPruneJob())
	service.StopPruneJob()
}

func TestService_PruneJobRejectsBadSchedule(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relay-test.db")
	pair, err := db.Init(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { pair.Close() })

	service := NewService(pair, 30, "not-a-schedule", nil)
	require.Error(t, service.StartPruneJob())
}

func TestEventRoutes(t *testing.T) {
	service := newTestService(t)
	service.Record("SESSION_UPDATED", "session replaced", map[string]any{"group_id": "grp-1"})

	router := chi.NewRouter()
	RegisterRoutes(router, service)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Object  string  `json:"object"`
		Data    []Event `json:"data"`
		HasMore bool    `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, "list", list.Object)
	require.Len(t, list.Data, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events/"+list.Data[0].EventID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events?limit=zero", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
