package audit

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strefethen/sonos-relay-go/internal/api"
)

// EventLevel represents the severity level of an audit event.
type EventLevel string

const (
	EventLevelInfo  EventLevel = "INFO"
	EventLevelWarn  EventLevel = "WARN"
	EventLevelError EventLevel = "ERROR"
)

// Event is a single recorded relay activity: a webhook delivery, a playback
// command, or a session change.
type Event struct {
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Level     EventLevel     `json:"level"`
	RequestID *string        `json:"request_id,omitempty"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload"`
}

// WriteEventInput contains the fields for creating a new event.
type WriteEventInput struct {
	Type      string         `json:"type"`
	Level     *EventLevel    `json:"level,omitempty"`
	RequestID *string        `json:"request_id,omitempty"`
	Message   string         `json:"message"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// EventQueryFilters contains optional filters for querying events.
type EventQueryFilters struct {
	Type   *string     `json:"type,omitempty"`
	Level  *EventLevel `json:"level,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// DBPair interface for dependency injection (matches db.DBPair).
type DBPair interface {
	Reader() *sql.DB
	Writer() *sql.DB
}

// Repository handles database operations for relay events.
// Uses separate reader/writer connections for optimal SQLite concurrency.
type Repository struct {
	reader *sql.DB
	writer *sql.DB
}

// NewRepository creates a new audit Repository.
func NewRepository(dbPair DBPair) *Repository {
	return &Repository{reader: dbPair.Reader(), writer: dbPair.Writer()}
}

// InsertEvent writes a new event. Generates the UUID, captures the
// timestamp, defaults level to INFO.
func (r *Repository) InsertEvent(input WriteEventInput) (*Event, error) {
	eventID := uuid.New().String()
	timestamp := nowISO()

	level := EventLevelInfo
	if input.Level != nil {
		level = *input.Level
	}

	payload := input.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	_, err = r.writer.Exec(`
		INSERT INTO relay_events (event_id, timestamp, type, level, request_id, message, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, eventID, timestamp, input.Type, string(level), input.RequestID, input.Message, string(payloadJSON))
	if err != nil {
		return nil, err
	}

	return r.GetEvent(eventID)
}

// GetEvent retrieves a single event by ID. Returns nil, nil if not found.
func (r *Repository) GetEvent(eventID string) (*Event, error) {
	row := r.reader.QueryRow(`
		SELECT event_id, timestamp, type, level, request_id, message, payload
		FROM relay_events
		WHERE event_id = ?
	`, eventID)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// QueryEvents retrieves events matching filters with pagination, newest
// first. Returns events and the total count across all pages.
func (r *Repository) QueryEvents(filters EventQueryFilters) ([]Event, int, error) {
	var conditions []string
	var args []any

	if filters.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, *filters.Type)
	}
	if filters.Level != nil {
		conditions = append(conditions, "level = ?")
		args = append(args, string(*filters.Level))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.reader.QueryRow("SELECT COUNT(*) FROM relay_events"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT event_id, timestamp, type, level, request_id, message, payload
		FROM relay_events` + where + `
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?`
	rows, err := r.reader.Query(query, append(args, filters.Limit, filters.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// PruneOldEvents deletes events older than retentionDays and returns the
// number deleted.
func (r *Repository) PruneOldEvents(retentionDays int) (int64, error) {
	cutoff := api.RFC3339Millis(time.Now().AddDate(0, 0, -retentionDays))

	result, err := r.writer.Exec("DELETE FROM relay_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var event Event
	var timestamp, level, payloadJSON string
	var requestID sql.NullString

	if err := row.Scan(&event.EventID, &timestamp, &event.Type, &level, &requestID, &event.Message, &payloadJSON); err != nil {
		return nil, err
	}

	parsed, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, err
	}
	event.Timestamp = parsed
	event.Level = EventLevel(level)
	if requestID.Valid {
		event.RequestID = &requestID.String
	}

	if err := json.Unmarshal([]byte(payloadJSON), &event.Payload); err != nil {
		event.Payload = map[string]any{}
	}

	return &event, nil
}

// nowISO stamps rows with millisecond precision so ORDER BY timestamp stays
// stable across inserts landing within the same second.
func nowISO() string {
	return api.RFC3339Millis(time.Now())
}
