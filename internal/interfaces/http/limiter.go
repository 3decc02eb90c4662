package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/jhoicas/taller-inventario/internal/application/dto"
)

// RateLimit limita las peticiones por IP en la ventana dada. maxRequests <= 0 desactiva el límite.
func RateLimit(maxRequests int, window time.Duration) fiber.Handler {
	if maxRequests <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "demasiadas solicitudes, intente más tarde",
			})
		},
	})
}
