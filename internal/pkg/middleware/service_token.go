package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/chatriver/chatriver/internal/pkg/env"
)

// ServiceTokenMiddleware authenticates internal API callers carrying the
// shared service token header. The comparison runs over hashes so it stays
// constant-time regardless of token length.
func ServiceTokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		expected := strings.TrimSpace(env.GetEnv("SERVICE_API_TOKEN", ""))
		if expected == "" {
			log.Print("service token middleware: SERVICE_API_TOKEN not configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Service token not configured"})
		}

		token := extractServiceTokenFromHeader(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing service token"})
		}

		gotHash := sha256.Sum256([]byte(token))
		wantHash := sha256.Sum256([]byte(expected))
		if subtle.ConstantTimeCompare(gotHash[:], wantHash[:]) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Invalid service token"})
		}

		return c.Next()
	}
}

func extractServiceTokenFromHeader(c *fiber.Ctx) string {
	token := strings.TrimSpace(c.Get("X-Service-Token"))
	if token != "" {
		return token
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
