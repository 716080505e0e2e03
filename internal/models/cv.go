package models

import (
	"time"
)

type OptimizationStatus string

const (
	OptimizationNone       OptimizationStatus = ""
	OptimizationQueued     OptimizationStatus = "queued"
	OptimizationProcessing OptimizationStatus = "processing"
	OptimizationComplete   OptimizationStatus = "complete"
	OptimizationFailed     OptimizationStatus = "failed"
)

// CVRecord is an uploaded CV. Metadata is a free-form JSON object that
// every feature merges into; MetadataRevision guards those merges.
type CVRecord struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	UserID             uint               `gorm:"not null;index" json:"userId"`
	FileName           string             `gorm:"type:text" json:"fileName"`
	StorageKey         string             `gorm:"type:text" json:"storageKey"`
	ContentType        string             `gorm:"type:text" json:"contentType"`
	RawText            string             `gorm:"type:text" json:"-"`
	Metadata           string             `gorm:"type:text;not null;default:'{}'" json:"-"`
	MetadataRevision   int                `gorm:"not null;default:0" json:"metadataRevision"`
	OptimizationStatus OptimizationStatus `gorm:"type:text;index" json:"optimizationStatus"`
	CreatedAt          time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt          time.Time          `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (CVRecord) TableName() string {
	return "cvs"
}
