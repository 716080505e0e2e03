package handlers

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/services"
)

type ConvertHandler struct {
	converter *services.DocumentConverter
}

func NewConvertHandler(converter *services.DocumentConverter) *ConvertHandler {
	return &ConvertHandler{converter: converter}
}

// HandleConvert handles POST /convert-to-pdf
func (h *ConvertHandler) HandleConvert(c *fiber.Ctx) error {
	var req models.ConvertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request payload",
			"success": false,
		})
	}

	conversion, err := h.converter.PrepareRequest(c.UserContext(), req, currentUser(c))
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.converter.Convert(c.UserContext(), conversion)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.ConvertResponse{
		Success:   true,
		PDFBase64: base64.StdEncoding.EncodeToString(result.PDF),
		Strategy:  result.Strategy,
	})
}
