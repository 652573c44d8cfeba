// Package schemas validates Optimization API responses against JSON Schemas
// before they are trusted for presentation.
package schemas

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed files/*.schema.json
var files embed.FS

// Embedded schema names.
const (
	OptimizeResponse = "optimize_response"
	UploadResponse   = "upload_response"
)

// maxReported caps how many field errors Error() lists.
const maxReported = 5

// ValidationError lists the fields of a document that broke its schema.
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError is one violation at a JSON path.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, maxReported+1)
	for i, fe := range ve.Errors {
		if i == maxReported {
			parts = append(parts, fmt.Sprintf("and %d more", len(ve.Errors)-maxReported))
			break
		}
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return fmt.Sprintf("%s: invalid document: %s", ve.Schema, strings.Join(parts, "; "))
}

// Fields returns the distinct offending field paths in order.
func (ve *ValidationError) Fields() []string {
	seen := make(map[string]bool, len(ve.Errors))
	fields := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// SchemaLoadError means a schema is missing or does not compile.
type SchemaLoadError struct {
	Name  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("schema %s not found or invalid: %v", e.Name, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// DocumentError means the document is not well-formed JSON.
type DocumentError struct {
	Schema string
	Cause  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: malformed JSON: %v", e.Schema, e.Cause)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

var (
	compiledMu sync.Mutex
	compiled   = map[string]*gojsonschema.Schema{}
)

// Names lists the embedded schemas.
func Names() []string {
	entries, err := files.ReadDir("files")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".schema.json"))
	}
	sort.Strings(names)
	return names
}

// load compiles a schema once and reuses it.
func load(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[name]; ok {
		return schema, nil
	}
	data, err := files.ReadFile("files/" + name + ".schema.json")
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Name: name, Cause: err}
	}
	compiled[name] = schema
	return schema, nil
}

// Validate checks a JSON document against the named embedded schema.
func Validate(name string, document []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &DocumentError{Schema: name, Cause: err}
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name, Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
