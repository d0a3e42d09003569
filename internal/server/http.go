package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/protocol"
	"github.com/muurk/rev4switch/internal/version"
)

// ProtocolInfo is served on /protocol: the codec descriptor and the build
// serving it.
type ProtocolInfo struct {
	Protocol    *protocol.Protocol `json:"protocol"`
	PulseLength int                `json:"pulse_length"`
	Legacy      bool               `json:"legacy_state_encoding"`
	Build       version.Info       `json:"build"`
}

// routes builds the chi router.
//
//	GET /ws        WebSocket endpoint
//	GET /healthz   liveness
//	GET /protocol  descriptor JSON
//	GET /metrics   Prometheus
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/ws", s.serveWebSocket)
	r.Get("/healthz", s.serveHealth)
	r.Get("/protocol", s.serveProtocol)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	return r
}

// requestLogger logs every request once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			// Hijacked for the WebSocket upgrade
			status = http.StatusSwitchingProtocols
		}
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, status)
		logging.Debug("Request timing",
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.Len(),
	})
}

func (s *Server) serveProtocol(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ProtocolInfo{
		Protocol:    s.proto,
		PulseLength: s.encoder.PulseLength,
		Legacy:      s.encoder.LegacyStateEncoding,
		Build:       version.Get(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to write JSON response", zap.Error(err))
	}
}
