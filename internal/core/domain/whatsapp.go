package domain

import (
	"net/url"
	"strings"
)

// WhatsAppURL builds the wa.me deep link for phone, prefixed with the
// country calling code. Non-digits are stripped from both.
func WhatsAppURL(countryCode, phone, message string) string {
	return "https://wa.me/" + digits(countryCode) + digits(phone) + "?text=" + escapeText(message)
}

// escapeText percent-encodes message the way browsers encode a URI
// component, so spaces become %20 rather than '+'.
func escapeText(message string) string {
	return strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
