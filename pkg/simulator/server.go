// Package simulator is a stand-in for the ESP32 camera board: it serves
// frames on /capture and records violations posted to /violation.
package simulator

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-proctor/internal/log"
	"github.com/teslashibe/go-proctor/pkg/hub"
	"github.com/teslashibe/go-proctor/pkg/notify"
)

// maxHistory bounds the received violation log.
const maxHistory = 500

// Received is a violation as recorded by the simulator.
type Received struct {
	notify.Payload
	ReceivedAt time.Time `json:"received_at"`
}

// Stats summarizes simulator activity.
type Stats struct {
	FramesServed       int64 `json:"frames_served"`
	ViolationsReceived int64 `json:"violations_received"`
	FeedClients        int   `json:"feed_clients"`
	Outage             bool  `json:"outage"`
}

// Server is the simulated camera board.
type Server struct {
	app    *fiber.App
	frames *Frames
	logger *slog.Logger

	violationHub *hub.Hub
	cameraHub    *hub.Hub

	mu       sync.RWMutex
	received []Received

	outage       atomic.Bool
	framesServed atomic.Int64
	violations   atomic.Int64
}

// NewServer creates a simulator serving frames.
func NewServer(frames *Frames) *Server {
	s := &Server{
		frames:       frames,
		logger:       log.Component("camsim"),
		violationHub: hub.New("violations"),
		cameraHub:    hub.New("camera"),
		received:     make([]Received, 0, 64),
	}

	app := fiber.New(fiber.Config{
		AppName:               "camsim",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/capture", s.handleCapture)
	app.Post("/violation", s.handleViolation)
	app.Get("/healthz", s.handleHealth)

	api := app.Group("/api")
	api.Get("/violations", s.handleListViolations)
	api.Get("/stats", s.handleStats)
	api.Post("/outage", s.handleOutage)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/violations", websocket.New(s.handleViolationsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve runs the hubs and the HTTP server on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.violationHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Warn("shutdown", "error", err)
		}
	}()

	s.logger.Info("camera simulator listening", "addr", ln.Addr().String(), "frames", s.frames.Len())
	return s.app.Listener(ln)
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// SetOutage makes /capture answer 503 while on.
func (s *Server) SetOutage(on bool) {
	s.outage.Store(on)
	s.logger.Info("outage toggled", "on", on)
}

// Received returns a copy of the recorded violations, oldest first.
func (s *Server) Received() []Received {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Received, len(s.received))
	copy(out, s.received)
	return out
}

// Stats returns activity counters.
func (s *Server) Stats() Stats {
	return Stats{
		FramesServed:       s.framesServed.Load(),
		ViolationsReceived: s.violations.Load(),
		FeedClients:        s.violationHub.ClientCount(),
		Outage:             s.outage.Load(),
	}
}

func (s *Server) record(r Received) {
	s.mu.Lock()
	s.received = append(s.received, r)
	if len(s.received) > maxHistory {
		s.received = s.received[1:]
	}
	s.mu.Unlock()

	s.violations.Add(1)
	if err := s.violationHub.BroadcastJSON(r); err != nil {
		s.logger.Warn("broadcast violation", "error", err)
	}
}
