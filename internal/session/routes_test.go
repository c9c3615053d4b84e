package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/sonos-relay-go/internal/auth"
	"github.com/strefethen/sonos-relay-go/internal/state"
)

type captureRecorder struct {
	lastPayload map[string]any
}

func (r *captureRecorder) Record(eventType, message string, payload map[string]any) {
	r.lastPayload = payload
}

func newTestRouter(store *state.Store) *chi.Mux {
	router := chi.NewRouter()
	RegisterRoutes(router, store, nil)
	return router
}

func postSession(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSetSession_Success(t *testing.T) {
	store := state.NewStore()
	router := newTestRouter(store)

	rec := postSession(router, `{"token":"tok-1","group_id":"grp-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["ok"])
	require.Equal(t, "grp-1", body["group_id"])

	token, groupID, ok := store.Session()
	require.True(t, ok)
	require.Equal(t, "tok-1", token)
	require.Equal(t, "grp-1", groupID)
}

func TestSetSession_ValidationLeavesStoreUnchanged(t *testing.T) {
	store := state.NewStore()
	store.SetSession("prior-token", "prior-group")
	router := newTestRouter(store)

	cases := []string{
		`{"token":"","group_id":"g1"}`,
		`{"token":"t1","group_id":""}`,
		`{}`,
		`not json`,
	}

	for _, body := range cases {
		rec := postSession(router, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		errBody := resp["error"].(map[string]any)
		require.Equal(t, "VALIDATION_ERROR", errBody["code"])
	}

	// Prior credentials survive every rejected write.
	token, groupID, ok := store.Session()
	require.True(t, ok)
	require.Equal(t, "prior-token", token)
	require.Equal(t, "prior-group", groupID)
}

func TestSetSession_ReplacesPriorSession(t *testing.T) {
	store := state.NewStore()
	router := newTestRouter(store)

	postSession(router, `{"token":"tok-1","group_id":"grp-1"}`)
	postSession(router, `{"token":"tok-2","group_id":"grp-2"}`)

	token, groupID, ok := store.Session()
	require.True(t, ok)
	require.Equal(t, "tok-2", token)
	require.Equal(t, "grp-2", groupID)
}

func TestSetSession_AuditRecordNamesDevice(t *testing.T) {
	store := state.NewStore()
	recorder := &captureRecorder{}
	router := chi.NewRouter()
	RegisterRoutes(router, store, recorder)

	req := httptest.NewRequest(http.MethodPost, "/v1/session", strings.NewReader(`{"token":"tok-1","group_id":"grp-1"}`))
	req = req.WithContext(auth.WithUser(req.Context(), auth.User{Sub: "device-1", DeviceName: "Kitchen Panel"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "grp-1", recorder.lastPayload["group_id"])
	require.Equal(t, "Kitchen Panel", recorder.lastPayload["device"])
}

func TestGetSession_NeverReturnsToken(t *testing.T) {
	store := state.NewStore()
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, false, body["configured"])

	store.SetSession("secret-token", "grp-1")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body["configured"])
	require.Equal(t, "grp-1", body["group_id"])
	require.NotContains(t, rec.Body.String(), "secret-token")
}
