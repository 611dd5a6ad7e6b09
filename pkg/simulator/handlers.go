package simulator

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-proctor/pkg/hub"
	"github.com/teslashibe/go-proctor/pkg/notify"
)

// handleCapture serves the next frame, like the board's /capture endpoint.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	if s.outage.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("camera offline")
	}

	data := s.frames.Next()
	if data == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("no frames")
	}

	s.framesServed.Add(1)
	s.cameraHub.BroadcastBinary(data)

	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(data)
}

// handleViolation records a violation. The board accepts an empty body, so
// a missing or unparsable payload is still counted.
func (s *Server) handleViolation(c *fiber.Ctx) error {
	r := Received{ReceivedAt: time.Now()}

	if body := c.Body(); len(body) > 0 {
		var p notify.Payload
		if err := json.Unmarshal(body, &p); err != nil {
			s.logger.Debug("violation body not JSON", "error", err)
		} else {
			r.Payload = p
		}
	}

	s.record(r)
	s.logger.Info("violation received", "kind", r.Kind, "id", r.ID)
	return c.SendString("OK")
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleListViolations(c *fiber.Ctx) error {
	return c.JSON(s.Received())
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.Stats())
}

// handleOutage toggles the simulated camera outage: POST /api/outage?on=true
func (s *Server) handleOutage(c *fiber.Ctx) error {
	on, err := strconv.ParseBool(c.Query("on", "true"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "on must be a boolean")
	}
	s.SetOutage(on)
	return c.JSON(fiber.Map{"outage": on})
}

// handleViolationsWS streams received violations as JSON text frames.
func (s *Server) handleViolationsWS(c *websocket.Conn) {
	s.serveClient(s.violationHub, c)
}

// handleCameraWS streams served frames as binary JPEG messages.
func (s *Server) handleCameraWS(c *websocket.Conn) {
	s.serveClient(s.cameraHub, c)
}

func (s *Server) serveClient(h *hub.Hub, c *websocket.Conn) {
	client, err := hub.NewClient(h, c)
	if err != nil {
		c.Close()
		return
	}
	client.Serve()
}
