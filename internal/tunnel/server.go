package tunnel

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brimtide/vlesstund/internal/auth"
	"github.com/brimtide/vlesstund/internal/config"
	"github.com/brimtide/vlesstund/internal/metrics"
	"github.com/brimtide/vlesstund/internal/outbound"
	"github.com/brimtide/vlesstund/internal/shared/httputil"
	"github.com/brimtide/vlesstund/internal/shared/netutil"
	"github.com/brimtide/vlesstund/internal/shared/recovery"
	"github.com/brimtide/vlesstund/internal/shared/stats"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP surface in front of the tunnel dispatcher: the
// WebSocket upgrade route plus the API-key-gated admin endpoints,
// per spec.md §6.
type Server struct {
	cfg    *config.Config
	store  *auth.Store
	doh    *outbound.DoHClient
	logger *zap.Logger

	report   StatsReporter
	traffic  *stats.TrafficStats
	panics   *recovery.PanicMetrics
	upgrader websocket.Upgrader

	startedAt time.Time
}

func NewServer(cfg *config.Config, store *auth.Store, doh *outbound.DoHClient, report StatsReporter, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   store,
		doh:     doh,
		logger:  logger,
		report:  report,
		traffic: stats.NewTrafficStats(),
		panics:  recovery.NewPanicMetrics(logger, nil),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  32 * 1024,
			WriteBufferSize: 32 * 1024,
			Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
				logger.Debug("websocket upgrade error", zap.Error(reason), zap.Int("status", status))
			},
		},
		startedAt: time.Now(),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/" && !websocket.IsWebSocketUpgrade(r):
		s.serveRoot(w, r)
		return
	case r.URL.Path == "/metrics":
		if !s.checkAPIKey(w, r) {
			return
		}
		promhttp.Handler().ServeHTTP(w, r)
		return
	case r.URL.Path == "/api/uuids":
		if !s.checkAPIKey(w, r) {
			return
		}
		s.serveUUIDs(w, r)
		return
	case r.URL.Path == "/api/uuids/refresh":
		if !s.checkAPIKey(w, r) {
			return
		}
		s.serveUUIDsRefresh(w, r)
		return
	case r.URL.Path == "/api/stats":
		if !s.checkAPIKey(w, r) {
			return
		}
		s.serveStats(w, r)
		return
	}

	if websocket.IsWebSocketUpgrade(r) {
		s.handleUpgrade(w, r)
		return
	}

	if strings.HasPrefix(r.URL.Path, "/") && len(r.URL.Path) > 1 {
		// GET /{uuid}: client-config rendering is an external
		// collaborator per spec.md §1 "Out of scope"; this server only
		// owns the route, not the renderer.
		s.serveClientConfigStub(w, r)
		return
	}

	http.NotFound(w, r)
}

func (s *Server) serveRoot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"remote_addr": netutil.ExtractClientIP(r),
		"uptime_s":    int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) serveClientConfigStub(w http.ResponseWriter, r *http.Request) {
	httputil.WriteError(w, http.StatusNotImplemented, "client-config rendering is not part of this service")
}

// checkAPIKey enforces spec.md §6's admin auth: X-API-Key header,
// Authorization: Bearer, or ?key= query parameter, matching the
// configured secret. A missing configured key always yields 401.
func (s *Server) checkAPIKey(w http.ResponseWriter, r *http.Request) bool {
	if s.cfg.APIKey == "" {
		httputil.WriteError(w, http.StatusUnauthorized, "API_KEY not configured")
		return false
	}

	supplied := r.Header.Get("X-API-Key")
	if supplied == "" {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			supplied = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	if supplied == "" {
		supplied = r.URL.Query().Get("key")
	}

	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.cfg.APIKey)) != 1 {
		httputil.WriteUnauthorized(w)
		return false
	}
	return true
}

func (s *Server) serveUUIDs(w http.ResponseWriter, r *http.Request) {
	merged := s.store.Snapshot(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"uuids": merged, "count": len(merged)})
}

func (s *Server) serveUUIDsRefresh(w http.ResponseWriter, r *http.Request) {
	merged := s.store.Refresh(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"uuids": merged, "count": len(merged)})
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	s.traffic.UpdateSpeed()
	httputil.WriteJSON(w, http.StatusOK, s.traffic.GetSnapshot())
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	protocolHeader := r.Header.Get("Sec-WebSocket-Protocol")

	var responseHeader http.Header
	if protocolHeader != "" {
		responseHeader = http.Header{"Sec-WebSocket-Protocol": []string{strings.Fields(protocolHeader)[0]}}
	}

	ws, err := s.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	remoteAddr := netutil.ExtractClientIP(r)
	ws.SetReadLimit(int64(64 * 1024 * 1024))

	validator := s.store.Validator(r.Context())

	combinedReport := func(uuid string, uplink, downlink uint64) {
		s.traffic.AddBytesIn(int64(uplink))
		s.traffic.AddBytesOut(int64(downlink))
		if s.report != nil {
			s.report(uuid, uplink, downlink)
		}
	}

	dispatcher, err := NewDispatcher(context.Background(), ws, protocolHeader, s.cfg, validator, s.doh, combinedReport, s.logger.With(zap.String("remote_addr", remoteAddr)))
	if err != nil {
		s.logger.Debug("tunnel setup failed", zap.Error(err))
		ws.Close()
		return
	}

	metrics.TunnelsTotal.Inc()
	metrics.TunnelsActive.Inc()
	s.traffic.IncActiveConnections()
	s.traffic.AddRequest()
	defer func() {
		metrics.TunnelsActive.Dec()
		s.traffic.DecActiveConnections()
		if r := recover(); r != nil {
			s.panics.RecordPanic("tunnel.Dispatcher.Run", r)
		}
	}()

	dispatcher.Run()
}

// PortString renders the configured port for the HTTP server's Addr.
func PortString(port int) string {
	return ":" + strconv.Itoa(port)
}
