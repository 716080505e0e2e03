package handlers

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/services"
)

var statusByKind = map[services.ErrorKind]int{
	services.KindMissingParameter:    fiber.StatusBadRequest,
	services.KindInvalidIdentifier:   fiber.StatusBadRequest,
	services.KindEmptyContent:        fiber.StatusBadRequest,
	services.KindUnsupportedFile:     fiber.StatusBadRequest,
	services.KindNotFound:            fiber.StatusNotFound,
	services.KindForbidden:           fiber.StatusForbidden,
	services.KindUpstreamUnavailable: fiber.StatusServiceUnavailable,
	services.KindPersistenceFailure:  fiber.StatusInternalServerError,
	services.KindConversionFailure:   fiber.StatusInternalServerError,
}

// StatusFor maps a pipeline error onto an HTTP status.
func StatusFor(err error) int {
	if code, ok := statusByKind[services.KindOf(err)]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": code,
		}).Errorf("❌ Request failed: %v", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   services.PublicMessage(err),
		"success": false,
	})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":   e.Message,
			"success": false,
		})
	}
	return respondError(c, err)
}
