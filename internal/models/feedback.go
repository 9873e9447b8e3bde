package models

import (
	"fmt"
	"strings"
)

type FeedbackCategory string

const (
	FeedbackBug         FeedbackCategory = "bug"
	FeedbackFeature     FeedbackCategory = "feature"
	FeedbackImprovement FeedbackCategory = "improvement"
	FeedbackComplaint   FeedbackCategory = "complaint"
	FeedbackOther       FeedbackCategory = "other"
)

// Valid reports whether c is one of the known categories
func (c FeedbackCategory) Valid() bool {
	switch c {
	case FeedbackBug, FeedbackFeature, FeedbackImprovement, FeedbackComplaint, FeedbackOther:
		return true
	}
	return false
}

type FeedbackStatus string

const (
	FeedbackPending FeedbackStatus = "pending"
	FeedbackSynced  FeedbackStatus = "synced"
)

type DeviceInfo struct {
	Platform string `json:"platform"`
	Version  string `json:"version"`
	Model    string `json:"model"`
}

// FeedbackInput is what the user fills in; the service assigns the rest
type FeedbackInput struct {
	Category    FeedbackCategory `json:"category"`
	Subject     string           `json:"subject"`
	Description string           `json:"description"`
	Rating      int              `json:"rating,omitempty"`
	Email       string           `json:"email,omitempty"`
}

// Validate checks the payload is well formed
func (in FeedbackInput) Validate() error {
	if !in.Category.Valid() {
		return fmt.Errorf("unknown category %q", in.Category)
	}
	if strings.TrimSpace(in.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if in.Rating != 0 && (in.Rating < 1 || in.Rating > 5) {
		return fmt.Errorf("rating must be between 1 and 5, got %d", in.Rating)
	}
	return nil
}

type FeedbackSubmission struct {
	ID          string           `json:"id"`
	Category    FeedbackCategory `json:"category"`
	Subject     string           `json:"subject"`
	Description string           `json:"description"`
	Rating      int              `json:"rating,omitempty"`
	Email       string           `json:"email,omitempty"`
	DeviceInfo  DeviceInfo       `json:"deviceInfo"`
	Timestamp   string           `json:"timestamp"`
	Status      FeedbackStatus   `json:"status"`
}

// FeedbackReceipt is returned to the caller after a successful submit
type FeedbackReceipt struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
}
