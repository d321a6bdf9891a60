// Package events defines event types published when templates and submissions change.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every form engine event.
const Topic = "formflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	TemplatePublishedEvent EventType = "template.published"
	SubmissionCreatedEvent EventType = "submission.created"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a new event of eventType.
func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}

// TemplatePublished is emitted once a template is stored as published.
type TemplatePublished struct {
	BaseEvent

	TemplateID string `json:"templateId"`
	Title      string `json:"title"`
	Category   string `json:"category,omitempty"`
	FieldCount int    `json:"fieldCount"`
}

func (e TemplatePublished) GetType() EventType {
	return TemplatePublishedEvent
}

// SubmissionCreated is emitted once a submission record is stored.
type SubmissionCreated struct {
	BaseEvent

	SubmissionID string `json:"submissionId"`
	FormID       string `json:"formId"`
	FormTitle    string `json:"formTitle"`
	SubmitterID  string `json:"submitterId"`
	FileCount    int    `json:"fileCount"`
}

func (e SubmissionCreated) GetType() EventType {
	return SubmissionCreatedEvent
}
