package devserver

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/medigate/medigate-cli/internal/api"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"mode":    s.backend.Mode(),
		"uptime":  time.Since(s.started).String(),
		"version": s.config.API.Version,
	})
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(s.metrics.Snapshot())
}

// dispatch forwards a routed request to the fixture backend and writes the
// result the way the remote backend expects to read it.
func (s *Server) dispatch(endpoint api.Endpoint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		req := api.Request{
			Method:   c.Method(),
			Endpoint: endpoint,
			URL:      c.Path(),
		}
		if id := c.Params("id"); id != "" {
			req.Params = map[string]string{"id": id}
		}
		if raw := c.Body(); len(raw) > 0 {
			var body any
			if err := json.Unmarshal(raw, &body); err != nil {
				s.metrics.RecordRequest(endpoint.String(), "devserver", false, time.Since(start))
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request"})
			}
			req.Body = body
		}

		res := s.backend.Do(c.UserContext(), req)
		s.metrics.RecordRequest(endpoint.String(), "devserver", res.Success, time.Since(start))

		if !res.Success {
			s.logger.Debug("Fixture request rejected",
				zap.Stringer("endpoint", endpoint),
				zap.String("error", res.Error),
			)
			return c.Status(statusFor(res.Error)).JSON(fiber.Map{"message": res.Error})
		}

		if len(res.Data) == 0 || string(res.Data) == "null" {
			return c.SendStatus(fiber.StatusNoContent)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).Send(res.Data)
	}
}

func statusFor(msg string) int {
	switch {
	case strings.Contains(strings.ToLower(msg), "not found"):
		return fiber.StatusNotFound
	case msg == "Invalid credentials":
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusBadRequest
	}
}
