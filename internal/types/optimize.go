package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// OptimizeRequest is the body sent to the Optimization API.
type OptimizeRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
	UserID         string `json:"user_id,omitempty" validate:"omitempty,uuid"`
}

// Normalize trims surrounding whitespace so that blank input fails validation.
func (r *OptimizeRequest) Normalize() {
	r.ResumeText = strings.TrimSpace(r.ResumeText)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	r.UserID = strings.TrimSpace(r.UserID)
}

// Validate validates the OptimizeRequest using the validator.
func (r *OptimizeRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// OptimizationResult is the response of the Optimization API. It lives in
// memory only for the duration of a visitor's interaction.
type OptimizationResult struct {
	OptimizedResumePDFBase64 string         `json:"optimized_resume_pdf_base64"`
	OriginalResumeText       string         `json:"original_resume_text"`
	OptimizedResumeJSON      map[string]any `json:"optimized_resume_json"`
	MatchScorePercent        float64        `json:"match_score"`
	KeyChanges               []string       `json:"key_changes"`
	Suggestions              []string       `json:"suggestions"`
	ProcessingTime           float64        `json:"processing_time"`
}

// CandidateName returns the "name" field of the optimized resume, or "" when
// it is absent or not a string.
func (r *OptimizationResult) CandidateName() string {
	if r == nil || r.OptimizedResumeJSON == nil {
		return ""
	}
	name, _ := r.OptimizedResumeJSON["name"].(string)
	return strings.TrimSpace(name)
}

// Score returns the match score clamped to [0, 100] and rounded.
func (r *OptimizationResult) Score() int {
	switch {
	case r.MatchScorePercent <= 0:
		return 0
	case r.MatchScorePercent >= 100:
		return 100
	default:
		return int(r.MatchScorePercent + 0.5)
	}
}

// UploadResponse is the response of the Optimization API's upload endpoint.
type UploadResponse struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Length   int    `json:"length"`
}
