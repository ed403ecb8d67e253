package domain

import "time"

// ClientStatus is the stored lifecycle state of a client record.
type ClientStatus string

const (
	ClientPending   ClientStatus = "pending"
	ClientCompleted ClientStatus = "completed"
)

// Valid reports whether s is a known stored status.
func (s ClientStatus) Valid() bool {
	return s == ClientPending || s == ClientCompleted
}

// Client is a lead owned by a seller. A nil ScheduledAt marks a "talk now"
// lead that should be contacted immediately.
type Client struct {
	ID              int64        `json:"id"`
	SellerID        int64        `json:"seller_id"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Description     *string      `json:"description"`
	WhatsAppMessage *string      `json:"whatsapp_message"`
	ScheduledAt     *time.Time   `json:"scheduled_at"`
	Status          ClientStatus `json:"status"`
	ConcludedAt     *time.Time   `json:"concluded_at"`
	CreatedAt       time.Time    `json:"created_at"`

	// SellerName is only filled by the admin listing.
	SellerName string `json:"seller_name,omitempty"`
}

// NewClient holds the fields a seller supplies when creating a lead.
type NewClient struct {
	SellerID        int64
	Name            string
	Phone           string
	Description     *string
	ScheduledAt     *time.Time
	WhatsAppMessage *string
}

// ClientChanges replaces the editable fields of a client. ConcludedAt is
// computed by the service, never supplied by callers.
type ClientChanges struct {
	Name            string
	Phone           string
	Description     *string
	ScheduledAt     *time.Time
	Status          ClientStatus
	WhatsAppMessage *string
}

// Classification is the derived, never stored, display status.
type Classification string

const (
	ClassOverdue   Classification = "overdue"
	ClassUpcoming  Classification = "upcoming"
	ClassOnTime    Classification = "ontime"
	ClassCompleted Classification = "completed"
)

// UpcomingWindow is how far ahead a pending callback counts as upcoming.
const UpcomingWindow = 30 * time.Minute

// Classify derives the display status of c at instant now. Completed wins
// over any schedule; an unscheduled lead is always on time.
func Classify(c *Client, now time.Time) Classification {
	if c.Status == ClientCompleted {
		return ClassCompleted
	}
	if c.ScheduledAt == nil {
		return ClassOnTime
	}
	at := *c.ScheduledAt
	switch {
	case at.Before(now):
		return ClassOverdue
	case at.Before(now.Add(UpcomingWindow)):
		return ClassUpcoming
	default:
		return ClassOnTime
	}
}
