package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/muurk/rev4switch/internal/discovery"
	"github.com/muurk/rev4switch/internal/logging"
	"github.com/muurk/rev4switch/internal/protocol"
)

// ShutdownTimeout bounds a graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Config holds the server configuration
type Config struct {
	Host string
	Port int

	// TLS is enabled when both paths are set
	CertPath string
	KeyPath  string

	// PulseLength is used when a request does not name one
	PulseLength         int
	LegacyStateEncoding bool

	AnalysisDir string // Directory to write capture files (empty = disabled)

	// Advertise announces the bridge over mDNS under Instance
	Advertise bool
	Instance  string

	// CheckOrigin overrides the WebSocket origin check. Nil allows all
	// origins, the bridge is meant for trusted LANs.
	CheckOrigin func(r *http.Request) bool
}

// Server is the rev4_switch bridge: a WebSocket hub that encodes commands
// and decodes captures for its clients and broadcasts every code it sees.
type Server struct {
	config    *Config
	proto     *protocol.Protocol
	encoder   *protocol.Encoder
	tlsConfig *tls.Config

	hub      *Hub
	metrics  *Metrics
	registry *prometheus.Registry
	analysis *Analyzer
	upgrader websocket.Upgrader
	handler  http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	advert     *discovery.Advertisement
	closing    bool
	wg         sync.WaitGroup
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if config.PulseLength == 0 {
		config.PulseLength = protocol.DefaultPulseLength
	}
	enc, err := protocol.NewEncoder(config.PulseLength)
	if err != nil {
		return nil, err
	}
	enc.LegacyStateEncoding = config.LegacyStateEncoding

	var tlsConfig *tls.Config
	if config.CertPath != "" || config.KeyPath != "" {
		if config.CertPath == "" || config.KeyPath == "" {
			return nil, errors.New("both cert and key are required for TLS")
		}
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	reg := newRegistry()
	metrics := NewMetrics(reg)

	s := &Server{
		config:    config,
		proto:     protocol.New(),
		encoder:   enc,
		tlsConfig: tlsConfig,
		hub:       newHub(metrics),
		metrics:   metrics,
		registry:  reg,
		analysis:  NewAnalyzer(config.AnalysisDir),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving every bridge route.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the client hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the listening address once Start has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listener and serves until ctx ends or SIGINT/SIGTERM
// arrives, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	logging.Info("Starting rev4_switch bridge",
		zap.String("addr", addr),
		zap.Int("pulse_length", s.encoder.PulseLength),
		zap.Bool("legacy_state_encoding", s.encoder.LegacyStateEncoding),
		zap.String("analysis_dir", s.config.AnalysisDir),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
	)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	if s.config.Advertise {
		port := listener.Addr().(*net.TCPAddr).Port
		adv, err := discovery.Advertise(s.config.Instance, port, discovery.BridgeTXT(s.tlsConfig != nil, nil))
		if err != nil {
			// The bridge still works by address
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		} else {
			s.mu.Lock()
			s.advert = adv
			s.mu.Unlock()
		}
	}

	logging.Info("Server listening for connections",
		zap.String("addr", listener.Addr().String()),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown withdraws the mDNS record, stops accepting connections, then
// closes every client.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.mu.Lock()
	adv, httpServer := s.advert, s.httpServer
	s.advert = nil
	s.closing = true
	s.mu.Unlock()

	adv.Shutdown()

	// WebSocket connections are hijacked, so this only closes the listener
	// and idle HTTP connections.
	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}
	s.hub.closeAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return err
}

// GetActiveConnections returns the number of active connections
func (s *Server) GetActiveConnections() int {
	return s.hub.Len()
}

// serveWebSocket upgrades the request and runs the client until it leaves.
func (s *Server) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &conn{ws: ws, remoteAddr: r.RemoteAddr, send: make(chan []byte, sendBuffer)}
	if !s.hub.add(c) {
		// closeAll already ran
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	logging.LogConnection(c.remoteAddr, "websocket_upgraded")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.writeLoop(c)
	}()

	s.hub.readLoop(c, s.handleMessage)
}

// handleMessage decodes and dispatches one request.
func (s *Server) handleMessage(c *conn, data []byte) {
	start := time.Now()

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		logging.Warn("Invalid request",
			zap.String("remote_addr", c.remoteAddr),
			zap.Error(err),
		)
		s.metrics.requests.WithLabelValues("invalid", StatusFailure).Inc()
		s.hub.reply(c, failure("", fmt.Errorf("invalid request: %w", err)))
		return
	}

	logging.LogWebSocketMessage(c.remoteAddr, "received", req.Action, data)

	resp, broadcast := s.dispatch(c.remoteAddr, req)
	resp.Seq = req.Seq

	action := req.Action
	if action != ActionSend && action != ActionReceive && action != ActionHelp {
		action = "unknown"
	}
	s.metrics.requests.WithLabelValues(action, resp.Status).Inc()
	s.metrics.requestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())

	// The reply is queued before the broadcast so a sender always sees its
	// own reply first.
	s.hub.reply(c, resp)
	if broadcast != nil {
		s.hub.Broadcast(*broadcast)
	}
}

// dispatch runs one request and returns the reply plus an optional
// broadcast.
func (s *Server) dispatch(remoteAddr string, req Request) (Response, *Response) {
	switch req.Action {
	case ActionSend:
		return s.handleSend(remoteAddr, req)
	case ActionReceive:
		return s.handleReceive(remoteAddr, req)
	case ActionHelp:
		return Response{
			Status:   StatusSuccess,
			Action:   ActionHelp,
			Protocol: s.proto.ID,
			Help:     s.proto.Help(),
		}, nil
	default:
		return failure(req.Action, fmt.Errorf("unknown action %q", req.Action)), nil
	}
}

// encoderFor returns the encoder for a request's pulse length.
func (s *Server) encoderFor(pulseLength int) (*protocol.Encoder, error) {
	if pulseLength == 0 || pulseLength == s.encoder.PulseLength {
		return s.encoder, nil
	}
	enc, err := protocol.NewEncoder(pulseLength)
	if err != nil {
		return nil, err
	}
	enc.LegacyStateEncoding = s.encoder.LegacyStateEncoding
	return enc, nil
}

func (s *Server) handleSend(remoteAddr string, req Request) (Response, *Response) {
	enc, err := s.encoderFor(req.PulseLength)
	if err != nil {
		return failure(ActionSend, err), nil
	}

	encoding, err := enc.EncodeRaw(protocol.ParseRawCode(req.Code))
	if err != nil {
		return failure(ActionSend, err), nil
	}

	cmd := encoding.Command
	pulses := encoding.Pulses.Slice()
	s.metrics.codes.WithLabelValues(OriginSender, cmd.State.String()).Inc()
	s.analysis.Record(remoteAddr, OriginSender, cmd, pulses, enc.PulseLength)

	resp := Response{
		Status:      StatusSuccess,
		Action:      ActionSend,
		Protocol:    protocol.ProtocolID,
		Message:     &cmd,
		Pulses:      pulses,
		PulseLength: enc.PulseLength,
	}
	broadcast := Response{
		Origin:      OriginSender,
		Protocol:    protocol.ProtocolID,
		Message:     &cmd,
		Pulses:      pulses,
		PulseLength: enc.PulseLength,
	}
	return resp, &broadcast
}

func (s *Server) handleReceive(remoteAddr string, req Request) (Response, *Response) {
	pulseLength := req.PulseLength
	if pulseLength == 0 {
		pulseLength = s.encoder.PulseLength
	}

	msg, err := s.proto.ParseCode(req.Pulses, pulseLength)
	if err != nil {
		return failure(ActionReceive, err), nil
	}

	cmd := msg.Message
	s.metrics.codes.WithLabelValues(OriginReceiver, cmd.State.String()).Inc()
	s.analysis.Record(remoteAddr, OriginReceiver, cmd, req.Pulses, pulseLength)

	resp := Response{
		Status:      StatusSuccess,
		Action:      ActionReceive,
		Protocol:    protocol.ProtocolID,
		Message:     &cmd,
		PulseLength: pulseLength,
	}
	broadcast := Response{
		Origin:      OriginReceiver,
		Protocol:    protocol.ProtocolID,
		Message:     &cmd,
		Pulses:      req.Pulses,
		PulseLength: pulseLength,
	}
	return resp, &broadcast
}
