package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// --- Users ---

type loginRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}

type createUserRequest struct {
	Name  string `json:"name"  validate:"required,max=120"`
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role"  validate:"omitempty,oneof=admin seller"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// --- Clients ---

// Timestamps are accepted as RFC 3339 or as local wall time
// ("2006-01-02T15:04" or with seconds) in the configured timezone.
type createClientRequest struct {
	SellerID        int64   `json:"seller_id"        validate:"required,gt=0"`
	Name            string  `json:"name"             validate:"required,max=200"`
	Phone           string  `json:"phone"            validate:"required,max=40"`
	Description     *string `json:"description"`
	ScheduledAt     *string `json:"scheduled_at"`
	WhatsAppMessage *string `json:"whatsapp_message"`
}

type updateClientRequest struct {
	Name            string  `json:"name"             validate:"required,max=200"`
	Phone           string  `json:"phone"            validate:"required,max=40"`
	Description     *string `json:"description"`
	ScheduledAt     *string `json:"scheduled_at"`
	Status          string  `json:"status"           validate:"required,oneof=pending completed"`
	WhatsAppMessage *string `json:"whatsapp_message"`
}

type clientResponse struct {
	ID              int64      `json:"id"`
	SellerID        int64      `json:"seller_id"`
	SellerName      string     `json:"seller_name,omitempty"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Description     *string    `json:"description"`
	WhatsAppMessage *string    `json:"whatsapp_message"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	Status          string     `json:"status"`
	ConcludedAt     *time.Time `json:"concluded_at"`
	CreatedAt       time.Time  `json:"created_at"`
	Classification  string     `json:"classification"`
	WhatsAppURL     string     `json:"whatsapp_url"`
}
