package devserver

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			return c.Status(401).JSON(fiber.Map{"message": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(auth, "Bearer ")
		claims, err := s.backend.VerifyToken(tokenString)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"message": "invalid token"})
		}

		c.Locals("subject", claims.Subject)
		return c.Next()
	}
}
