package domain

import (
	"strings"
	"time"
)

// View selects one of the agenda tabs.
type View string

const (
	ViewAll         View = ""
	ViewToday       View = "today"
	ViewDay         View = "day"
	ViewWeek        View = "week"
	ViewMonth       View = "month"
	ViewUnscheduled View = "unscheduled"
	ViewHistory     View = "history"
)

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	switch v {
	case ViewAll, ViewToday, ViewDay, ViewWeek, ViewMonth, ViewUnscheduled, ViewHistory:
		return true
	}
	return false
}

// ClientFilter narrows an already ordered client list.
type ClientFilter struct {
	View  View
	Date  time.Time // anchor for day/week/month; zero means today
	Query string
}

// Apply keeps the clients matching f, preserving order. Calendar boundaries
// are computed in loc.
func (f ClientFilter) Apply(clients []Client, now time.Time, loc *time.Location) []Client {
	anchor := f.Date
	if anchor.IsZero() {
		anchor = now
	}
	anchor = anchor.In(loc)
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Client, 0, len(clients))
	for i := range clients {
		c := &clients[i]
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(c.Phone, q) {
			continue
		}
		if !f.matchView(c, now.In(loc), anchor, loc) {
			continue
		}
		out = append(out, *c)
	}
	return out
}

func (f ClientFilter) matchView(c *Client, now, anchor time.Time, loc *time.Location) bool {
	switch f.View {
	case ViewToday:
		return c.Status == ClientPending && c.ScheduledAt != nil && sameDay(c.ScheduledAt.In(loc), now)
	case ViewDay:
		return c.ScheduledAt != nil && sameDay(c.ScheduledAt.In(loc), anchor)
	case ViewWeek:
		if c.ScheduledAt == nil {
			return false
		}
		start := startOfWeek(anchor)
		at := c.ScheduledAt.In(loc)
		return !at.Before(start) && at.Before(start.AddDate(0, 0, 7))
	case ViewMonth:
		if c.ScheduledAt == nil {
			return false
		}
		at := c.ScheduledAt.In(loc)
		return at.Year() == anchor.Year() && at.Month() == anchor.Month()
	case ViewUnscheduled:
		return c.Status == ClientPending && c.ScheduledAt == nil
	case ViewHistory:
		return c.Status == ClientCompleted
	default:
		return true
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// startOfWeek returns local midnight of the Sunday on or before t.
func startOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(t.Weekday()))
}
