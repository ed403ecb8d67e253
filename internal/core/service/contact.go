package service

import (
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/agendavendas/scheduling-api/internal/core/domain"
)

// DefaultWhatsAppMessage is used when a client has no message of its own.
const DefaultWhatsAppMessage = "Olá {{ .Name }}, tudo bem? Gostaria de falar sobre seu interesse."

// ContactLinker renders WhatsApp messages and deep links for clients.
// Messages are text/template sources with sprig functions; a message that
// does not parse or execute is sent verbatim.
type ContactLinker struct {
	countryCode    string
	defaultMessage string
	loc            *time.Location
	funcs          template.FuncMap
}

type messageData struct {
	Name        string
	Phone       string
	SellerName  string
	ScheduledAt *time.Time
}

// NewContactLinker creates a linker for numbers in countryCode. An empty
// defaultMessage falls back to DefaultWhatsAppMessage and a nil loc means UTC.
func NewContactLinker(countryCode, defaultMessage string, loc *time.Location) *ContactLinker {
	if defaultMessage == "" {
		defaultMessage = DefaultWhatsAppMessage
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ContactLinker{
		countryCode:    countryCode,
		defaultMessage: defaultMessage,
		loc:            loc,
		funcs:          sprig.TxtFuncMap(),
	}
}

// Message returns the rendered outbound message for c.
func (l *ContactLinker) Message(c *domain.Client) string {
	src := l.defaultMessage
	if c.WhatsAppMessage != nil && strings.TrimSpace(*c.WhatsAppMessage) != "" {
		src = *c.WhatsAppMessage
	}
	if !strings.Contains(src, "{{") {
		return src
	}

	tmpl, err := template.New("whatsapp").Funcs(l.funcs).Option("missingkey=zero").Parse(src)
	if err != nil {
		return src
	}
	data := messageData{Name: c.Name, Phone: c.Phone, SellerName: c.SellerName}
	if c.ScheduledAt != nil {
		at := c.ScheduledAt.In(l.loc)
		data.ScheduledAt = &at
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return src
	}
	return b.String()
}

// URL returns the wa.me link carrying the rendered message.
func (l *ContactLinker) URL(c *domain.Client) string {
	return domain.WhatsAppURL(l.countryCode, c.Phone, l.Message(c))
}
