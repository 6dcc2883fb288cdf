package handlers

import (
	"log/slog"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
)

// InternalError logs err, reports it to Sentry and answers with a generic
// 500. The error text is only included when debug is set.
func InternalError(c *fiber.Ctx, err error, debug bool) error {
	slog.ErrorContext(c.UserContext(), "request failed",
		"request_id", RequestID(c),
		"method", c.Method(),
		"path", c.Path(),
		"error", err.Error(),
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	resp := dto.Fail("Internal server error")
	if debug {
		resp.Error = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(resp)
}

// RequestID returns the id set by the requestid middleware, if any.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
