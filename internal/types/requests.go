package types

import (
	"github.com/go-playground/validator/v10"
)

// UploadRequest represents a direct-text bulk upload. File uploads take a
// separate multipart path and never hit this type.
type UploadRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

// StatusUpdateRequest represents a status change for a single problem.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof='Not Started' 'In Progress' 'Done'"`
}

// StepRequest represents a single-step mentor request. Name and
// description hints are optional; when both are present the problem row
// is not fetched.
type StepRequest struct {
	ProblemID          string `json:"problemId" validate:"required,uuid4"`
	ProblemName        string `json:"problemName,omitempty"`
	ProblemDescription string `json:"problemDescription,omitempty"`
	Force              bool   `json:"force,omitempty"`
}

// Validate validates the UploadRequest using the validator.
func (r *UploadRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the StatusUpdateRequest using the validator.
func (r *StatusUpdateRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the StepRequest using the validator.
func (r *StepRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
