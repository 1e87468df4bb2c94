// Package mockapi is an in-process stand-in for the remote command API.
//
// It serves POST /api/{command}, a WebSocket endpoint at /ws that speaks
// the transport frame protocol and can push server updates, and
// Prometheus metrics at /metrics. Commands succeed unless marked failing.
package mockapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/spendsync/pkg/api"
	"github.com/vango-dev/spendsync/pkg/transport"
	"github.com/vango-dev/spendsync/pkg/update"
)

// FailureCode is the jsonCode returned for failing commands.
const FailureCode = 666

// maxRequestSize bounds a command body.
const maxRequestSize = 1 << 20

// Responder produces the response for one command.
type Responder func(ctx context.Context, req api.Request) *api.Response

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLatency delays every response.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// WithFailures marks commands as failing.
func WithFailures(commands ...api.Command) Option {
	return func(s *Server) {
		for _, c := range commands {
			s.failing[c] = true
		}
	}
}

// WithRegistry sets the registry metrics are registered with and served
// from. Defaults to a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// Server is the mock API.
type Server struct {
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
	latency  time.Duration
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	wsClients prometheus.Gauge

	mu         sync.Mutex
	failing    map[api.Command]bool
	responders map[api.Command]Responder
	calls      []api.Request
	nextID     int64

	clientsMu sync.RWMutex
	clients   map[*client]bool
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(f transport.Frame) error {
	data, err := transport.EncodeFrame(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// New creates a mock API.
func New(opts ...Option) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:     slog.Default(),
		registry:   prometheus.NewRegistry(),
		failing:    make(map[api.Command]bool),
		responders: make(map[api.Command]Responder),
		clients:    make(map[*client]bool),
		nextID:     1000,
	}
	for _, opt := range opts {
		opt(s)
	}

	factory := promauto.With(s.registry)
	s.requests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spendsync",
		Subsystem: "mockapi",
		Name:      "requests_total",
		Help:      "Commands handled by the mock API.",
	}, []string{"command", "transport", "outcome"})
	s.wsClients = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "spendsync",
		Subsystem: "mockapi",
		Name:      "ws_clients",
		Help:      "Connected WebSocket clients.",
	})

	s.Handle(api.CommandAddPersonalBankAccount, s.addPersonalBankAccount)
	s.Handle(api.CommandConnectPolicyToSageIntacct, connectPolicy)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/api/{command}", s.handleCommand)
	r.Get("/ws", s.handleWebSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Handle replaces the responder for command.
func (s *Server) Handle(command api.Command, fn Responder) {
	s.mu.Lock()
	s.responders[command] = fn
	s.mu.Unlock()
}

// SetFailing marks or unmarks command as failing.
func (s *Server) SetFailing(command api.Command, failing bool) {
	s.mu.Lock()
	if failing {
		s.failing[command] = true
	} else {
		delete(s.failing, command)
	}
	s.mu.Unlock()
}

// Calls returns every request received, in arrival order.
func (s *Server) Calls() []api.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Request(nil), s.calls...)
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Push sends server updates to every WebSocket client and returns how many
// received them.
func (s *Server) Push(updates []update.Descriptor) int {
	s.clientsMu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()

	sent := 0
	for _, c := range clients {
		if err := c.send(transport.PushFrame(updates)); err != nil {
			s.logger.Warn("push failed", "error", err)
			s.dropClient(c)
			continue
		}
		sent++
	}
	return sent
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("mock api listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeClients()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	var req api.Request
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	req.Command = api.Command(chi.URLParam(r, "command"))
	if req.ID == "" {
		req.ID = r.Header.Get("X-Request-ID")
	}

	resp := s.respond(r.Context(), req, "http")
	if resp == nil {
		// Client went away during the simulated latency.
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}
	s.clientsMu.Lock()
	s.clients[c] = true
	s.clientsMu.Unlock()
	s.wsClients.Inc()
	defer s.dropClient(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		f, err := transport.DecodeFrame(msg)
		if err != nil || f.Type != transport.FrameRequest {
			s.logger.Debug("ignoring frame", "error", err)
			continue
		}

		// Requests are answered concurrently so slow commands do not
		// hold up fast ones.
		go func(f transport.Frame) {
			resp := s.respond(ctx, f.Request(), "ws")
			if resp == nil {
				return
			}
			if err := c.send(transport.ResponseFrame(f.RequestID, resp)); err != nil {
				s.logger.Debug("response not delivered", "request_id", f.RequestID, "error", err)
			}
		}(f)
	}
}

func (s *Server) dropClient(c *client) {
	s.clientsMu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.clientsMu.Unlock()
	if ok {
		s.wsClients.Dec()
		c.conn.Close()
	}
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.RUnlock()
	for _, c := range clients {
		s.dropClient(c)
	}
}

// respond records req and builds its response. It returns nil when ctx ends
// during the simulated latency.
func (s *Server) respond(ctx context.Context, req api.Request, via string) *api.Response {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	failing := s.failing[req.Command]
	responder := s.responders[req.Command]
	s.mu.Unlock()

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.requests.WithLabelValues(string(req.Command), via, "cancelled").Inc()
			return nil
		}
	}

	var resp *api.Response
	switch {
	case failing:
		resp = &api.Response{JSONCode: FailureCode, Message: "Mock failure for " + string(req.Command)}
	case responder != nil:
		resp = responder(ctx, req)
	}
	if resp == nil {
		resp = &api.Response{JSONCode: api.CodeSuccess}
	}

	outcome := "success"
	if !resp.OK() {
		outcome = "failure"
	}
	s.requests.WithLabelValues(string(req.Command), via, outcome).Inc()
	s.logger.Debug("command handled",
		"command", req.Command,
		"request_id", req.ID,
		"transport", via,
		"json_code", resp.JSONCode)
	return resp
}
