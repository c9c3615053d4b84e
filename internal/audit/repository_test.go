package audit

import (
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/strefethen/sonos-relay-go/internal/db"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "relay-test.db")
	pair, err := db.Init(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { pair.Close() })

	return NewRepository(pair)
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo := newTestRepository(t)

	event, err := repo.InsertEvent(WriteEventInput{
		Type:    "WEBHOOK_RECEIVED",
		Message: "Webhook event ingested",
		Payload: map[string]any{"type": "playbackStatus"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, event.EventID)
	require.Equal(t, "WEBHOOK_RECEIVED", event.Type)
	require.Equal(t, EventLevelInfo, event.Level)
	require.Equal(t, "playbackStatus", event.Payload["type"])

	fetched, err := repo.GetEvent(event.EventID)
	require.NoError(t, err)
	require.Equal(t, event.EventID, fetched.EventID)
}

func TestRepository_GetMissingEvent(t *testing.T) {
	repo := newTestRepository(t)

	event, err := repo.GetEvent("no-such-event")
	require.NoError(t, err)
	require.Nil(t, event)
}

func TestRepository_QueryFiltersByType(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 3; i++ {
		_, err := repo.InsertEvent(WriteEventInput{Type: "WEBHOOK_RECEIVED", Message: "hook"})
		require.NoError(t, err)
	}
	_, err := repo.InsertEvent(WriteEventInput{Type: "COMMAND_ISSUED", Message: "play"})
	require.NoError(t, err)

	eventType := "WEBHOOK_RECEIVED"
	events, total, err := repo.QueryEvents(EventQueryFilters{Type: &eventType, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, events, 3)
	for _, event := range events {
		require.Equal(t, "WEBHOOK_RECEIVED", event.Type)
	}
}

func TestRepository_QueryPagination(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 5; i++ {
		_, err := repo.InsertEvent(WriteEventInput{Type: "COMMAND_ISSUED", Message: "cmd"})
		require.NoError(t, err)
	}

	events, total, err := repo.QueryEvents(EventQueryFilters{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, events, 2)

	events, _, err = repo.QueryEvents(EventQueryFilters{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestRepository_TimestampsCarrySubsecondPrecision(t *testing.T) {
	repo := newTestRepository(t)

	stamp := nowISO()
	parsed, err := time.Parse(time.RFC3339, stamp)
	require.NoError(t, err)
	require.Contains(t, stamp, ".")
	require.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)

	// Stored timestamps round-trip through the scanner without losing the
	// fractional part.
	event, err := repo.InsertEvent(WriteEventInput{Type: "COMMAND_ISSUED", Message: "cmd"})
	require.NoError(t, err)
	require.True(t, event.Timestamp.Equal(event.Timestamp.Truncate(time.Millisecond)))
}

func TestRepository_PruneKeepsRecentEvents(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.InsertEvent(WriteEventInput{Type: "SESSION_UPDATED", Message: "session"})
	require.NoError(t, err)

	pruned, err := repo.PruneOldEvents(30)
	require.NoError(t, err)
	require.Zero(t, pruned)

	_, total, err := repo.QueryEvents(EventQueryFilters{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}
