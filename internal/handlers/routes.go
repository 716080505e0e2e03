package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Router struct {
	Analyze *AnalyzeHandler
	Convert *ConvertHandler
	Upload  *UploadHandler
	CV      *CVHandler
}

var endpoints = []string{
	"GET /api/v1/analyze?fileName=&cvId=",
	"POST /api/v1/convert-to-pdf",
	"POST /api/v1/cvs",
	"GET /api/v1/cvs/:id",
	"POST /api/v1/cvs/:id/optimize",
}

func (r *Router) Register(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	auth := RequireUser()
	api.Get("/analyze", auth, r.Analyze.HandleAnalyze)
	api.Post("/convert-to-pdf", auth, r.Convert.HandleConvert)
	api.Post("/cvs", auth, r.Upload.HandleUpload)
	api.Get("/cvs/:id", auth, r.CV.HandleGetCV)
	api.Post("/cvs/:id/optimize", auth, r.CV.HandleOptimize)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "CV Analyzer API",
			"version":   "1.0.0",
			"endpoints": endpoints,
		})
	})
}
