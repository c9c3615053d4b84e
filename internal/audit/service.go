package audit

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Default configuration values
const (
	DefaultRetentionDays = 90
	DefaultQueryLimit    = 100
	MaxQueryLimit        = 1000
)

// Service provides the relay's activity history: a best-effort record of
// webhook deliveries, playback commands, and session changes. It is not a
// state store; the playback snapshot itself lives only in memory.
type Service struct {
	logger        *log.Logger
	repo          *Repository
	retentionDays int
	pruneSchedule string
	cron          *cron.Cron
}

// NewService creates a new audit service. pruneSchedule is a cron
// expression (e.g. "@daily"); logger may be nil.
func NewService(dbPair DBPair, retentionDays int, pruneSchedule string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	return &Service{
		logger:        logger,
		repo:          NewRepository(dbPair),
		retentionDays: retentionDays,
		pruneSchedule: pruneSchedule,
	}
}

// Record writes an event without surfacing failures to the caller. The
// ingestion and command paths call this; neither may fail because history
// could not be written.
func (s *Service) Record(eventType, message string, payload map[string]any) {
	if _, err := s.repo.InsertEvent(WriteEventInput{
		Type:    eventType,
		Message: message,
		Payload: payload,
	}); err != nil {
		s.logger.Printf("AUDIT: Failed to record %s event: %v", eventType, err)
	}
}

// RecordEvent writes a new event and returns it.
func (s *Service) RecordEvent(input WriteEventInput) (*Event, error) {
	event, err := s.repo.InsertEvent(input)
	if err != nil {
		return nil, fmt.Errorf("failed to record event: %w", err)
	}
	return event, nil
}

// QueryEvents retrieves events with filters and pagination. Clamps limit to
// MaxQueryLimit. Returns events, total count, and a hasMore flag.
func (s *Service) QueryEvents(filters EventQueryFilters) ([]Event, int, bool, error) {
	if filters.Limit == 0 {
		filters.Limit = DefaultQueryLimit
	}
	if filters.Limit > MaxQueryLimit {
		filters.Limit = MaxQueryLimit
	}

	events, total, err := s.repo.QueryEvents(filters)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to query events: %w", err)
	}

	hasMore := filters.Offset+len(events) < total
	return events, total, hasMore, nil
}

// GetEvent retrieves a single event by ID. Returns nil if not found.
func (s *Service) GetEvent(eventID string) (*Event, error) {
	return s.repo.GetEvent(eventID)
}

// StartPruneJob schedules the retention prune on the configured cron
// expression and runs one prune immediately.
func (s *Service) StartPruneJob() error {
	if count, err := s.Prune(); err != nil {
		s.logger.Printf("AUDIT: Error pruning events on start: %v", err)
	} else if count > 0 {
		s.logger.Printf("AUDIT: Pruned %d events on startup", count)
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.pruneSchedule, func() {
		if count, err := s.Prune(); err != nil {
			s.logger.Printf("AUDIT: Error pruning events: %v", err)
		} else if count > 0 {
			s.logger.Printf("AUDIT: Pruned %d events", count)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.pruneSchedule, err)
	}

	s.cron.Start()
	s.logger.Printf("AUDIT: Prune job scheduled (%s, retention: %d days)", s.pruneSchedule, s.retentionDays)
	return nil
}

// StopPruneJob stops the scheduled prune, waiting for a running prune to
// finish.
func (s *Service) StopPruneJob() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Printf("AUDIT: Prune job stopped")
}

// Prune deletes events past retention, returns count deleted.
func (s *Service) Prune() (int64, error) {
	return s.repo.PruneOldEvents(s.retentionDays)
}
