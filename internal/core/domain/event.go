package domain

// EventType names the kind of data that changed.
type EventType string

const (
	EventUserUpdated   EventType = "USER_UPDATED"
	EventClientUpdated EventType = "CLIENT_UPDATED"
)

// Event is an invalidation notice pushed to every open viewer. It never
// carries the mutated entity: receivers refetch through the read API.
// SellerID is an advisory hint; delivery is not scoped by it.
type Event struct {
	Type     EventType `json:"type"`
	SellerID *int64    `json:"seller_id,omitempty"`
}

// UserUpdated builds the event published after any user mutation.
func UserUpdated() Event {
	return Event{Type: EventUserUpdated}
}

// ClientUpdated builds the event published after any client mutation,
// hinting the seller the record belongs to.
func ClientUpdated(sellerID int64) Event {
	return Event{Type: EventClientUpdated, SellerID: &sellerID}
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventUserUpdated || t == EventClientUpdated
}
