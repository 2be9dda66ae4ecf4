package constants

import "time"

const (
	// DefaultServerPort is the port the HTTP/WebSocket listener binds when
	// PORT is not set in the environment.
	DefaultServerPort = 8080

	// ==================== Wire / Mux tuning ====================

	// ChunkSize bounds a single outgoing write-call's payload, per
	// spec.md §4.3 "Chunked writes".
	ChunkSize = 8 * 1024

	// DefaultMaxSubrequests is the host-imposed sub-request budget,
	// spec.md §4.3 "Host sub-request budget".
	DefaultMaxSubrequests = 48

	// EndedSetCapacity bounds the ended-sessions set; it halves itself on
	// overflow, spec.md §3 "Ended-sessions set".
	EndedSetCapacity = 256

	// WriteQueueSoftCap is the per-tunnel Mux write queue's soft cap;
	// exceeding it is a dropped-frame back-pressure signal.
	WriteQueueSoftCap = 100

	// WriteQueueCompactThreshold is how far the head index can advance
	// before the queue slice is compacted.
	WriteQueueCompactThreshold = 64

	// MuxParseIterationCap guards against infinite loops from a malformed
	// stream within one incoming chunk.
	MuxParseIterationCap = 1000

	// OutboundBandwidthSafetyValve caps any single outbound sub-connection
	// at 64MB/s. It is not configuration-exposed; it only protects the
	// host from one runaway tunnel.
	OutboundBandwidthSafetyValve = 64 * 1024 * 1024

	// ==================== Timeouts ====================

	// TCPConnectTimeout is the hard ceiling on an outbound TCP connect,
	// both for the non-Mux pipe and for each Mux sub-connection.
	TCPConnectTimeout = 3 * time.Second

	// DoHTimeout is the hard ceiling on a DNS-over-HTTPS round trip.
	DoHTimeout = 5 * time.Second

	// StatsReportTimeout is the hard ceiling on the traffic-report POST.
	StatsReportTimeout = 5 * time.Second

	// DefaultProviderFetchTimeout is the default per-provider HTTPS call
	// ceiling.
	DefaultProviderFetchTimeout = 10 * time.Second

	// ==================== Auth store ====================

	// DefaultUUIDCacheTTL is the L1/L2 TTL when UUID_CACHE_TTL is unset.
	DefaultUUIDCacheTTL = 300 * time.Second

	// L2WriteInterval bounds how often one key is persisted to L2.
	L2WriteInterval = 60 * time.Second

	// ==================== DNS / DoH ====================

	// DefaultDoHEndpoint is used when DNS_SERVER is unset.
	DefaultDoHEndpoint = "https://1.1.1.1/dns-query"

	// DNSPort is the only UDP destination port the Mux engine forwards.
	DNSPort = 53
)
