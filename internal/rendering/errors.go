package rendering

import "fmt"

// Template phases reported by TemplateError.
const (
	PhaseParse   = "parse"
	PhaseExecute = "execute"
)

// TemplateError is a page template that failed to parse or execute.
type TemplateError struct {
	Page  string
	Phase string
	Cause error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("page %s: %s failed: %v", e.Page, e.Phase, e.Cause)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// UnknownPageError is returned for a page name New did not register.
type UnknownPageError struct {
	Page string
}

func (e *UnknownPageError) Error() string {
	return fmt.Sprintf("unknown page %q", e.Page)
}
