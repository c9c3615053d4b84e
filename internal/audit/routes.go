package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/sonos-relay-go/internal/api"
	"github.com/strefethen/sonos-relay-go/internal/apperrors"
)

// RegisterRoutes wires the event history routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/events", api.Handler(listEvents(service)))
	router.Method(http.MethodGet, "/v1/events/{eventId}", api.Handler(getEvent(service)))
}

func listEvents(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		var filters EventQueryFilters

		if eventType := r.URL.Query().Get("type"); eventType != "" {
			filters.Type = &eventType
		}
		if level := r.URL.Query().Get("level"); level != "" {
			eventLevel := EventLevel(level)
			filters.Level = &eventLevel
		}
		if limit := r.URL.Query().Get("limit"); limit != "" {
			parsed, err := strconv.Atoi(limit)
			if err != nil || parsed < 1 {
				return apperrors.NewValidationError("limit must be a positive integer", nil)
			}
			filters.Limit = parsed
		}
		if offset := r.URL.Query().Get("offset"); offset != "" {
			parsed, err := strconv.Atoi(offset)
			if err != nil || parsed < 0 {
				return apperrors.NewValidationError("offset must be a non-negative integer", nil)
			}
			filters.Offset = parsed
		}

		events, _, hasMore, err := service.QueryEvents(filters)
		if err != nil {
			return apperrors.NewInternalError("Failed to query events")
		}

		return api.WriteList(w, "/v1/events", events, hasMore)
	}
}

func getEvent(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		eventID := chi.URLParam(r, "eventId")

		event, err := service.GetEvent(eventID)
		if err != nil {
			return apperrors.NewInternalError("Failed to get event")
		}
		if event == nil {
			return apperrors.NewAppError(apperrors.ErrorCodeEventNotFound, "Event not found: "+eventID, 404, nil, nil)
		}

		return api.WriteResource(w, http.StatusOK, event)
	}
}
