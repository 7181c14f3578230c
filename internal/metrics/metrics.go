package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BusPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_published_total",
			Help: "Total number of events published to redis streams.",
		},
		[]string{"stream", "event_type", "result"},
	)

	BusConsumedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_consumed_total",
			Help: "Total number of events consumed from redis streams.",
		},
		[]string{"stream", "event_type", "result"},
	)

	OutboxDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_dispatched_total",
			Help: "Total number of outbox messages handled by the dispatcher.",
		},
		[]string{"result"},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_transitions_total",
			Help: "Total number of application and match status transitions.",
		},
		[]string{"entity", "to"},
	)

	BotMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_total",
			Help: "Total number of messages sent by the telegram relay.",
		},
		[]string{"event_type", "result"},
	)
)

// MustRegister регистрирует коллекторы в глобальном реестре
func MustRegister() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		BusPublishedTotal,
		BusConsumedTotal,
		OutboxDispatchedTotal,
		TransitionsTotal,
		BotMessagesTotal,
	)
}

// Result переводит ошибку в значение метки result
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
