package store

import (
	"time"

	"github.com/medigate/medigate-cli/internal/models"
)

// Setting is a plain key-value row. It backs the credential store when no
// encryption key is available on the device.
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value" gorm:"type:text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Setting
func (Setting) TableName() string {
	return "settings"
}

// FeedbackRecord is a locally persisted feedback submission
type FeedbackRecord struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	Category       string     `gorm:"index" json:"category"`
	Subject        string     `json:"subject"`
	Description    string     `json:"description" gorm:"type:text"`
	Rating         int        `json:"rating"`
	Email          string     `json:"email"`
	DevicePlatform string     `json:"device_platform"`
	DeviceVersion  string     `json:"device_version"`
	DeviceModel    string     `json:"device_model"`
	Status         string     `gorm:"index" json:"status"`
	SubmittedAt    time.Time  `gorm:"index" json:"submitted_at"`
	SyncedAt       *time.Time `json:"synced_at"`
	SyncAttempts   int        `json:"sync_attempts"`
	LastError      string     `json:"last_error,omitempty"`
}

// TableName overrides the table name for FeedbackRecord
func (FeedbackRecord) TableName() string {
	return "feedback_submissions"
}

// FeedbackFromSubmission maps the wire model to its table row.
func FeedbackFromSubmission(sub models.FeedbackSubmission) *FeedbackRecord {
	submitted, err := time.Parse(time.RFC3339Nano, sub.Timestamp)
	if err != nil {
		submitted = time.Now().UTC()
	}
	return &FeedbackRecord{
		ID:             sub.ID,
		Category:       string(sub.Category),
		Subject:        sub.Subject,
		Description:    sub.Description,
		Rating:         sub.Rating,
		Email:          sub.Email,
		DevicePlatform: sub.DeviceInfo.Platform,
		DeviceVersion:  sub.DeviceInfo.Version,
		DeviceModel:    sub.DeviceInfo.Model,
		Status:         string(sub.Status),
		SubmittedAt:    submitted,
	}
}

// Submission maps the row back to the wire model.
func (r FeedbackRecord) Submission() models.FeedbackSubmission {
	return models.FeedbackSubmission{
		ID:          r.ID,
		Category:    models.FeedbackCategory(r.Category),
		Subject:     r.Subject,
		Description: r.Description,
		Rating:      r.Rating,
		Email:       r.Email,
		DeviceInfo: models.DeviceInfo{
			Platform: r.DevicePlatform,
			Version:  r.DeviceVersion,
			Model:    r.DeviceModel,
		},
		Timestamp: r.SubmittedAt.UTC().Format(time.RFC3339Nano),
		Status:    models.FeedbackStatus(r.Status),
	}
}
