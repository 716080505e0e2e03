package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
	"alfredoptarigan/cv-analyzer/internal/services"
)

type CVHandler struct {
	cvRepo    repositories.CVRepository
	optimizer *services.OptimizerService
	worker    services.Worker
}

func NewCVHandler(cvRepo repositories.CVRepository, optimizer *services.OptimizerService, worker services.Worker) *CVHandler {
	return &CVHandler{cvRepo: cvRepo, optimizer: optimizer, worker: worker}
}

// HandleGetCV handles GET /cvs/:id
func (h *CVHandler) HandleGetCV(c *fiber.Ctx) error {
	id, err := services.ParseCVID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	cv, err := services.LoadOwnedCV(c.UserContext(), h.cvRepo, id, currentUser(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"cv":      toCVResponse(cv),
	})
}

// HandleOptimize handles POST /cvs/:id/optimize
func (h *CVHandler) HandleOptimize(c *fiber.Ctx) error {
	id, err := services.ParseCVID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	var req models.OptimizeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Invalid request payload",
				"success": false,
			})
		}
	}

	status, err := h.optimizer.RequestOptimization(c.UserContext(), id, currentUser(c), req.Instruction)
	if err != nil {
		return respondError(c, err)
	}

	if status == models.OptimizationQueued {
		h.worker.EnqueueJob(id)
	}

	return c.Status(fiber.StatusAccepted).JSON(models.OptimizeResponse{
		Success: true,
		CVID:    id,
		Status:  string(status),
	})
}

// toCVResponse renders a CV without its text and base64 blobs.
func toCVResponse(cv *models.CVRecord) models.CVResponse {
	metadata := services.ParseMetadata(cv.Metadata)
	_, hasPDF := metadata[services.MetaPDFBase64]
	delete(metadata, services.MetaPDFBase64)
	delete(metadata, services.MetaDocxBase64)
	metadata["hasPdf"] = hasPDF

	return models.CVResponse{
		ID:                 cv.ID,
		FileName:           cv.FileName,
		ContentType:        cv.ContentType,
		HasText:            cv.RawText != "",
		OptimizationStatus: string(cv.OptimizationStatus),
		Metadata:           metadata,
		CreatedAt:          cv.CreatedAt,
		UpdatedAt:          cv.UpdatedAt,
	}
}
