// Package httpapi is the Gin-based host HTTP surface of spec §6: REST
// routes over kernel.Kernel's query/command API, a gorilla/websocket event
// stream, and the /metrics and /healthz endpoints the rest of the ambient
// stack exposes. Grounded on the teacher's internal/api package: a
// dependency-injected Server wired with a fixed middleware chain and a flat
// route table, plus internal/demo/websocket.go's hub/subscriber pattern for
// the streaming endpoint.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"living-economy-arena/econsim/internal/agent"
	"living-economy-arena/econsim/internal/events"
	"living-economy-arena/econsim/internal/httpapi/middleware"
	"living-economy-arena/econsim/internal/kernel"
	"living-economy-arena/econsim/internal/scarcity"
)

// kernelAPI is the slice of *kernel.Kernel the HTTP surface needs, narrowed
// so handlers can be tested against a fake without driving a real
// simulation.
type kernelAPI interface {
	RegisterAgent(a *agent.Agent) error
	UnregisterAgent(id string) bool
	SubmitAction(agentID string, a agent.Action) error
	MarketByID(id string) (kernel.MarketSnapshot, bool)
	AgentByID(id string) (kernel.AgentSnapshot, bool)
	Commodity(id string) (*scarcity.Commodity, bool)
	Snapshot() kernel.Snapshot
	Subscribe(kind events.Kind) *events.Subscription
	Unsubscribe(sub *events.Subscription)
}

// Config configures the HTTP server.
type Config struct {
	Addr            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxWSClients    int
	WSPingInterval  time.Duration
}

// DefaultConfig returns sane defaults for local/dev use.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8081",
		Environment:    "development",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		MaxWSClients:   256,
		WSPingInterval: 30 * time.Second,
	}
}

// Server wires a *kernel.Kernel, an optional metrics handler, and an
// optional health handler behind one Gin router.
type Server struct {
	router *gin.Engine
	kernel kernelAPI
	logger *slog.Logger
	cfg    Config
	hub    *wsHub
}

// New constructs a Server. metricsHandler and healthHandler may be nil, in
// which case /metrics and /healthz are not registered.
func New(k kernelAPI, cfg Config, logger *slog.Logger, metricsHandler, healthHandler http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.New(),
		kernel: k,
		logger: logger,
		cfg:    cfg,
		hub:    newWSHub(k, cfg.MaxWSClients, cfg.WSPingInterval, logger),
	}

	s.setupMiddleware()
	s.setupRoutes(metricsHandler, healthHandler)
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery(s.logger))
	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ContentType())
	s.router.Use(middleware.RateLimit())
}

func (s *Server) setupRoutes(metricsHandler, healthHandler http.Handler) {
	v1 := s.router.Group("/v1")
	{
		v1.GET("/markets/:id/snapshot", s.getMarketSnapshot)
		v1.GET("/psychology", s.getPsychology)
		v1.GET("/monetary", s.getMonetary)
		v1.GET("/scarcity/:commodityId", s.getScarcity)
		v1.GET("/agents/:id/portfolio", s.getPortfolio)
		v1.POST("/agents", s.registerAgent)
		v1.DELETE("/agents/:id", s.unregisterAgent)
		v1.POST("/agents/:id/actions", s.submitAction)
		v1.GET("/ws", s.handleWebSocket)
	}

	if metricsHandler != nil {
		s.router.GET("/metrics", gin.WrapH(metricsHandler))
	}
	if healthHandler != nil {
		s.router.GET("/healthz", gin.WrapH(healthHandler))
	}
}

// Start runs the hub and then serves HTTP until the process exits.
func (s *Server) Start() error {
	s.hub.start(context.Background())
	s.logger.Info("httpapi: listening", "addr", s.cfg.Addr)
	server := &http.Server{Addr: s.cfg.Addr, Handler: s.router, ReadTimeout: s.cfg.ReadTimeout, WriteTimeout: s.cfg.WriteTimeout}
	return server.ListenAndServe()
}

// StartWithContext runs the hub and HTTP server, shutting both down
// gracefully when ctx is cancelled, mirroring the teacher's
// Server.StartWithContext.
func (s *Server) StartWithContext(ctx context.Context) error {
	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()
	s.hub.start(hubCtx)
	defer s.hub.stop()

	s.logger.Info("httpapi: listening", "addr", s.cfg.Addr)
	server := &http.Server{Addr: s.cfg.Addr, Handler: s.router, ReadTimeout: s.cfg.ReadTimeout, WriteTimeout: s.cfg.WriteTimeout}

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.ListenAndServe() }()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		s.logger.Info("httpapi: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Router exposes the Gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
