package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
	"alfredoptarigan/cv-analyzer/internal/services"
)

type UploadHandler struct {
	cvRepo         repositories.CVRepository
	storageService services.StorageService
	extractor      *services.UploadExtractor
	maxFileSize    int64
}

func NewUploadHandler(
	cvRepo repositories.CVRepository,
	storageService services.StorageService,
	extractor *services.UploadExtractor,
	maxFileSize int64,
) *UploadHandler {
	return &UploadHandler{
		cvRepo:         cvRepo,
		storageService: storageService,
		extractor:      extractor,
		maxFileSize:    maxFileSize,
	}
}

// HandleUpload handles POST /cvs with a multipart "file" field.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Missing file upload",
			"success": false,
		})
	}

	if file.Size > h.maxFileSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   fmt.Sprintf("CV file too large. Max size: %d bytes", h.maxFileSize),
			"success": false,
		})
	}

	src, err := file.Open()
	if err != nil {
		return respondError(c, fmt.Errorf("failed to open uploaded file: %w", err))
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return respondError(c, fmt.Errorf("failed to read uploaded file: %w", err))
	}

	extracted, err := h.extractor.Extract(file.Filename, data)
	if err != nil {
		return respondError(c, err)
	}

	userID := currentUser(c)
	key := services.NewStorageKey(userID, file.Filename)
	if err := h.storageService.Save(c.UserContext(), key, data, extracted.ContentType); err != nil {
		return respondError(c, fmt.Errorf("failed to save CV file: %w", err))
	}

	metadata := map[string]interface{}{}
	if len(extracted.Docx) > 0 {
		metadata[services.MetaDocxBase64] = base64.StdEncoding.EncodeToString(extracted.Docx)
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return respondError(c, fmt.Errorf("failed to encode metadata: %w", err))
	}

	cv := models.CVRecord{
		UserID:      userID,
		FileName:    file.Filename,
		StorageKey:  key,
		ContentType: extracted.ContentType,
		RawText:     extracted.Text,
		Metadata:    string(encoded),
	}

	if err := h.cvRepo.Create(c.UserContext(), &cv); err != nil {
		// Cleanup uploaded file if database insert fails
		if delErr := h.storageService.Delete(c.UserContext(), key); delErr != nil {
			log.Warnf("⚠️  Failed to remove orphaned upload %s: %v", key, delErr)
		}
		return respondError(c, fmt.Errorf("failed to save CV record: %w", err))
	}

	log.WithFields(log.Fields{"cv_id": cv.ID, "user_id": userID, "type": extracted.ContentType}).Info("📤 CV uploaded")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"cv":      toCVResponse(&cv),
	})
}
