package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/services"
)

type AnalyzeHandler struct {
	pipeline *services.AnalysisPipeline
}

func NewAnalyzeHandler(pipeline *services.AnalysisPipeline) *AnalyzeHandler {
	return &AnalyzeHandler{pipeline: pipeline}
}

// HandleAnalyze handles GET /analyze?fileName=&cvId=
func (h *AnalyzeHandler) HandleAnalyze(c *fiber.Ctx) error {
	req := models.AnalyzeRequest{
		FileName:    c.Query("fileName"),
		CVID:        c.Query("cvId"),
		RequesterID: currentUser(c),
	}

	result, err := h.pipeline.Analyze(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.AnalyzeResponse{
		Success:  true,
		Analysis: result,
	})
}
