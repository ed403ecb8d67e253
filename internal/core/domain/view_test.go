package domain

import (
	"testing"
	"time"
)

func names(clients []Client) []string {
	out := make([]string, len(clients))
	for i, c := range clients {
		out[i] = c.Name
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClientFilter_Apply(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	// Wednesday 2024-01-03 10:00 local.
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, loc)
	local := func(y int, m time.Month, d, h int) *time.Time {
		v := time.Date(y, m, d, h, 0, 0, 0, loc).UTC()
		return &v
	}

	clients := []Client{
		{Name: "today", Phone: "1100", Status: ClientPending, ScheduledAt: local(2024, 1, 3, 15)},
		{Name: "today-done", Phone: "1101", Status: ClientCompleted, ScheduledAt: local(2024, 1, 3, 9)},
		{Name: "late-night", Phone: "1102", Status: ClientPending, ScheduledAt: local(2024, 1, 3, 23)},
		{Name: "sunday", Phone: "1103", Status: ClientPending, ScheduledAt: local(2023, 12, 31, 8)},
		{Name: "next-sunday", Phone: "1104", Status: ClientPending, ScheduledAt: local(2024, 1, 7, 8)},
		{Name: "feb", Phone: "1105", Status: ClientPending, ScheduledAt: local(2024, 2, 1, 8)},
		{Name: "walk-in", Phone: "2200", Status: ClientPending},
		{Name: "walk-in-done", Phone: "2201", Status: ClientCompleted},
	}

	cases := []struct {
		name   string
		filter ClientFilter
		want   []string
	}{
		{"all", ClientFilter{}, names(clients)},
		{"today is pending only", ClientFilter{View: ViewToday}, []string{"today", "late-night"}},
		{"day includes completed", ClientFilter{View: ViewDay}, []string{"today", "today-done", "late-night"}},
		{"day anchored", ClientFilter{View: ViewDay, Date: time.Date(2024, 2, 1, 0, 0, 0, 0, loc)}, []string{"feb"}},
		{"week starts sunday", ClientFilter{View: ViewWeek}, []string{"today", "today-done", "late-night", "sunday"}},
		{"month", ClientFilter{View: ViewMonth}, []string{"today", "today-done", "late-night", "next-sunday"}},
		{"unscheduled", ClientFilter{View: ViewUnscheduled}, []string{"walk-in"}},
		{"history", ClientFilter{View: ViewHistory}, []string{"today-done", "walk-in-done"}},
		{"query by name", ClientFilter{Query: "WALK"}, []string{"walk-in", "walk-in-done"}},
		{"query by phone", ClientFilter{Query: "1105"}, []string{"feb"}},
		{"query and view", ClientFilter{View: ViewHistory, Query: "walk"}, []string{"walk-in-done"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := names(tc.filter.Apply(clients, now, loc))
			if !equal(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestView_Valid(t *testing.T) {
	for _, v := range []View{ViewAll, ViewToday, ViewDay, ViewWeek, ViewMonth, ViewUnscheduled, ViewHistory} {
		if !v.Valid() {
			t.Fatalf("%q should be valid", v)
		}
	}
	if View("year").Valid() {
		t.Fatal("unknown view accepted")
	}
}

func TestWhatsAppURL(t *testing.T) {
	got := WhatsAppURL("+55", "(11) 98888-7777", "Olá, tudo bem? 50% off & more")
	want := "https://wa.me/5511988887777?text=Ol%C3%A1%2C%20tudo%20bem%3F%2050%25%20off%20%26%20more"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestEvents(t *testing.T) {
	if ev := UserUpdated(); ev.Type != EventUserUpdated || ev.SellerID != nil {
		t.Fatalf("unexpected user event %+v", ev)
	}
	if ev := ClientUpdated(9); ev.Type != EventClientUpdated || *ev.SellerID != 9 {
		t.Fatalf("unexpected client event %+v", ev)
	}
	if EventType("SHIPMENT_UPDATED").Valid() {
		t.Fatal("unknown event type accepted")
	}
}
