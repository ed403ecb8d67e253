package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
	"github.com/agendavendas/scheduling-api/internal/core/ports"
)

// localLayouts are wall-clock forms read in the configured timezone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// parseSchedule reads an optional scheduled_at. Empty strings mean
// unscheduled.
func parseSchedule(raw *string, loc *time.Location) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("scheduled_at must be RFC 3339 or YYYY-MM-DDTHH:MM: %w", domain.ErrInvalidTimestamp)
}

// parseDate reads the optional date query parameter as local midnight.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, domain.InvalidField("date", "must be YYYY-MM-DD")
	}
	return t, nil
}

func toNewClient(req createClientRequest, at *time.Time) domain.NewClient {
	return domain.NewClient{
		SellerID:        req.SellerID,
		Name:            req.Name,
		Phone:           req.Phone,
		Description:     req.Description,
		ScheduledAt:     at,
		WhatsAppMessage: req.WhatsAppMessage,
	}
}

func toClientChanges(req updateClientRequest, at *time.Time) domain.ClientChanges {
	return domain.ClientChanges{
		Name:            req.Name,
		Phone:           req.Phone,
		Description:     req.Description,
		ScheduledAt:     at,
		Status:          domain.ClientStatus(req.Status),
		WhatsAppMessage: req.WhatsAppMessage,
	}
}

// toClientResponse renders timestamps in loc so clients see local offsets.
func toClientResponse(v *ports.ClientView, loc *time.Location) clientResponse {
	return clientResponse{
		ID:              v.ID,
		SellerID:        v.SellerID,
		SellerName:      v.SellerName,
		Name:            v.Name,
		Phone:           v.Phone,
		Description:     v.Description,
		WhatsAppMessage: v.WhatsAppMessage,
		ScheduledAt:     inLocation(v.ScheduledAt, loc),
		Status:          string(v.Status),
		ConcludedAt:     inLocation(v.ConcludedAt, loc),
		CreatedAt:       v.CreatedAt.In(loc),
		Classification:  string(v.Classification),
		WhatsAppURL:     v.WhatsAppURL,
	}
}

func toClientResponses(views []ports.ClientView, loc *time.Location) []clientResponse {
	out := make([]clientResponse, len(views))
	for i := range views {
		out[i] = toClientResponse(&views[i], loc)
	}
	return out
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	l := t.In(loc)
	return &l
}
