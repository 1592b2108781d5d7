package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxUploadBytes int
	Logger         *zap.Logger
}

// Middleware guards the upload endpoint: only multipart bodies get through,
// both files must be present, and each file is bounded in size. Schema and
// content checks live in the pipeline itself; this layer only rejects
// requests that could never become a valid run.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 25 * 1024 * 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost || !strings.HasSuffix(c.Path(), "/validate") {
			return c.Next()
		}

		if !strings.Contains(c.Get("Content-Type"), "multipart/form-data") {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Expected a multipart/form-data upload",
			})
		}

		for _, field := range []string{"daily_tickets", "alarm_tickets"} {
			file, err := c.FormFile(field)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Both daily_tickets and alarm_tickets files are required",
				})
			}
			if file.Size > int64(cfg.MaxUploadBytes) {
				cfg.Logger.Warn("Upload exceeds size limit",
					zap.String("field", field),
					zap.String("filename", file.Filename),
					zap.Int64("size", file.Size),
				)
				return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
					"error": "Uploaded file exceeds maximum size",
				})
			}
		}

		return c.Next()
	}
}
