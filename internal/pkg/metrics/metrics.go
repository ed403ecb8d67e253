// Package metrics defines and registers the custom Prometheus metrics for the
// scheduling API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agenda"

// ── Notification metrics ──────────────────────────────────────────────────────

// SessionsOpen tracks websocket sessions currently registered with the hub.
var SessionsOpen = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_sessions_open",
		Help:      "Current number of registered websocket sessions.",
	},
)

// NotificationsPublishedTotal counts change events handed to the notifier.
// Label:
//   - type: "USER_UPDATED" or "CLIENT_UPDATED"
var NotificationsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Total number of change events published.",
	},
	[]string{"type"},
)

// NotificationsDeliveredTotal counts frames queued to a session.
var NotificationsDeliveredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_delivered_total",
		Help:      "Total number of notification frames queued to websocket sessions.",
	},
)

// NotificationsDroppedTotal counts notifications that were not delivered.
// Label:
//   - reason: "session_not_open", "buffer_full", or "queue_full"
var NotificationsDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped, by reason.",
	},
	[]string{"reason"},
)

// NotificationQueueDepth tracks events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notification_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Client metrics ────────────────────────────────────────────────────────────

// ClientMutationsTotal counts successful client mutations.
// Label:
//   - op: "create", "update", "conclude", or "delete"
var ClientMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_mutations_total",
		Help:      "Total number of client mutations, by operation.",
	},
	[]string{"op"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "unknown", "disabled", or "master"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
