package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devforge_ws_active_sessions",
		Help: "Number of realtime sessions currently joined to a room.",
	})

	messagesBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devforge_ws_messages_broadcast_total",
		Help: "Total chat messages fanned out to rooms.",
	})

	aiTurns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devforge_ws_ai_turns_total",
		Help: "Total AI assistant turns dispatched.",
	})

	aiFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devforge_ws_ai_failures_total",
		Help: "AI completion calls that failed and were masked by the fallback reply.",
	})
)
