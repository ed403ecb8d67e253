package domain

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	at := func(h, m int) *time.Time {
		v := time.Date(2024, 1, 1, h, m, 0, 0, time.UTC)
		return &v
	}

	cases := []struct {
		name   string
		client Client
		want   Classification
	}{
		{"past schedule is overdue", Client{ScheduledAt: at(11, 0), Status: ClientPending}, ClassOverdue},
		{"within 30 minutes is upcoming", Client{ScheduledAt: at(12, 20), Status: ClientPending}, ClassUpcoming},
		{"exactly now is upcoming", Client{ScheduledAt: at(12, 0), Status: ClientPending}, ClassUpcoming},
		{"30 minutes ahead is ontime", Client{ScheduledAt: at(12, 30), Status: ClientPending}, ClassOnTime},
		{"later today is ontime", Client{ScheduledAt: at(14, 0), Status: ClientPending}, ClassOnTime},
		{"unscheduled is ontime", Client{Status: ClientPending}, ClassOnTime},
		{"completed wins over overdue", Client{ScheduledAt: at(9, 0), Status: ClientCompleted}, ClassCompleted},
		{"completed without schedule", Client{Status: ClientCompleted}, ClassCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(&tc.client, now); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClassify_UsesInstantNotZone(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	brt := time.FixedZone("BRT", -3*3600)
	// 08:50 in BRT is 11:50 UTC.
	scheduled := time.Date(2024, 1, 1, 8, 50, 0, 0, brt)

	if got := Classify(&Client{ScheduledAt: &scheduled, Status: ClientPending}, now); got != ClassOverdue {
		t.Fatalf("expected overdue, got %s", got)
	}
}

func TestStatusAndRoleValidity(t *testing.T) {
	if !ClientPending.Valid() || !ClientCompleted.Valid() || ClientStatus("done").Valid() {
		t.Fatal("unexpected client status validity")
	}
	if !RoleAdmin.Valid() || !RoleSeller.Valid() || Role("").Valid() {
		t.Fatal("unexpected role validity")
	}
	if NormalizeEmail("  Foo@Bar.COM ") != "foo@bar.com" {
		t.Fatal("email not normalized")
	}
}
