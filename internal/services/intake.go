package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"alfredoptarigan/cv-analyzer/internal/models"
	"alfredoptarigan/cv-analyzer/internal/repositories"
)

type IntakeValidator struct {
	repo repositories.CVRepository
}

func NewIntakeValidator(repo repositories.CVRepository) *IntakeValidator {
	return &IntakeValidator{repo: repo}
}

// Validate resolves the CV an analyze request points at. Only CVs with
// extracted text can be analyzed.
func (v *IntakeValidator) Validate(ctx context.Context, req models.AnalyzeRequest) (*models.CVRecord, error) {
	if strings.TrimSpace(req.CVID) == "" {
		return nil, NewPipelineError(KindMissingParameter, "Missing cvId parameter", nil)
	}
	if strings.TrimSpace(req.FileName) == "" {
		return nil, NewPipelineError(KindMissingParameter, "Missing fileName parameter", nil)
	}

	id, err := ParseCVID(req.CVID)
	if err != nil {
		return nil, err
	}

	cv, err := LoadOwnedCV(ctx, v.repo, id, req.RequesterID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cv.RawText) == "" {
		return nil, NewPipelineError(KindEmptyContent,
			"This CV has no extractable text. Only PDF uploads can be analyzed", nil)
	}

	return cv, nil
}

// ParseCVID parses a positive numeric CV id.
func ParseCVID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, NewPipelineError(KindInvalidIdentifier, "Invalid cvId parameter", err)
	}
	return uint(id), nil
}

// LoadOwnedCV returns the CV when requesterID owns it.
func LoadOwnedCV(ctx context.Context, repo repositories.CVRepository, id, requesterID uint) (*models.CVRecord, error) {
	cv, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCVNotFound) {
			return nil, NewPipelineError(KindNotFound, "CV not found", err)
		}
		return nil, NewPipelineError(KindPersistenceFailure, "Failed to load CV", err)
	}

	if cv.UserID != requesterID {
		return nil, NewPipelineError(KindForbidden, "You do not have access to this CV", nil)
	}

	return cv, nil
}
