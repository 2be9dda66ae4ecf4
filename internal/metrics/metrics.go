// Package metrics defines the process's prometheus metric set.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tunnel metrics
	TunnelsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vlesstund_tunnels_active",
		Help: "Current number of open tunnel connections",
	})

	TunnelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlesstund_tunnels_total",
		Help: "Total number of tunnel connections accepted",
	})

	TunnelRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vlesstund_tunnel_rejections_total",
		Help: "Total number of rejected tunnel greetings, by reason",
	}, []string{"reason"})

	// Sub-connection metrics (both the non-Mux pipe and Mux sub-streams)
	SubConnectionsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vlesstund_subconnections_active",
		Help: "Current number of active outbound sub-connections",
	}, []string{"network"})

	SubConnectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vlesstund_subconnections_total",
		Help: "Total number of outbound sub-connections opened",
	}, []string{"network"})

	SubrequestBudgetRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlesstund_subrequest_budget_rejections_total",
		Help: "Total number of New frames rejected by the host sub-request budget",
	})

	// Traffic metrics
	BytesUplink = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlesstund_bytes_uplink_total",
		Help: "Total bytes read from tunnels",
	})

	BytesDownlink = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlesstund_bytes_downlink_total",
		Help: "Total bytes written to tunnels",
	})

	// Auth store metrics
	AuthCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vlesstund_auth_cache_hits_total",
		Help: "Total UUID authorization lookups served from each tier",
	}, []string{"tier"})

	AuthProviderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vlesstund_auth_provider_failures_total",
		Help: "Total provider fetch failures, by provider name",
	}, []string{"provider"})

	AuthorizedUUIDCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vlesstund_authorized_uuid_count",
		Help: "Current number of authorized UUIDs held in the store",
	})

	// System metrics
	PanicTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlesstund_panic_total",
		Help: "Total number of panics recovered",
	})

	// DoH metrics
	DoHQueriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vlesstund_doh_queries_total",
		Help: "Total number of DNS-over-HTTPS queries proxied",
	})
)
