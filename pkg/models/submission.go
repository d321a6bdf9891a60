package models

import "time"

// SubmissionStatus represents the review state of a submission. Only the
// initial state is produced here; review transitions happen elsewhere.
type SubmissionStatus string

const (
	SubmissionStatusPending SubmissionStatus = "pending"
)

// Submitter identifies who filled the form.
type Submitter struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UploadReference is a stable pointer to a stored file.
type UploadReference struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size"`
	Checksum    string `json:"checksum,omitempty"`
}

// FormSubmission is one completed response to a published template.
// Responses is keyed by field id.
type FormSubmission struct {
	ID          string           `json:"id,omitempty"`
	FormID      string           `json:"formId"`
	FormTitle   string           `json:"formTitle"`
	SubmittedBy Submitter        `json:"submittedBy"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Responses   map[string]any   `json:"responses"`
	Status      SubmissionStatus `json:"status"`
}
