// Package schema checks the structure of problem documents against an
// embedded CUE definition before they are decoded.
package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/encoding/yaml"
)

//go:embed problem.cue
var problemCUE string

// Validation error codes (E200-E299)
const (
	ErrSchemaLoad     = "E200" // embedded schema failed to compile
	ErrSyntax         = "E201" // document is not valid JSON/YAML
	ErrSchemaMismatch = "E202" // document does not match #Problem
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateProblem checks a JSON problem document.
// Returns all errors found (does not fail-fast).
func ValidateProblem(data []byte) []ValidationError {
	return validate("problem.json", data, false)
}

// ValidateProblemYAML checks a YAML problem document.
func ValidateProblemYAML(data []byte) []ValidationError {
	return validate("problem.yaml", data, true)
}

// ValidateProblemFile picks the syntax from the file name extension.
func ValidateProblemFile(name string, data []byte) []ValidationError {
	lower := strings.ToLower(name)
	return validate(name, data, strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml"))
}

func validate(name string, data []byte, isYAML bool) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(problemCUE, cue.Filename("problem.cue"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{Field: "schema", Message: err.Error(), Code: ErrSchemaLoad}}
	}
	def := schema.LookupPath(cue.ParsePath("#Problem"))

	var doc cue.Value
	if isYAML {
		file, err := yaml.Extract(name, data)
		if err != nil {
			return convert(err, ErrSyntax)
		}
		doc = ctx.BuildFile(file)
	} else {
		// JSON is a subset of CUE.
		doc = ctx.CompileBytes(data, cue.Filename(name))
	}
	if err := doc.Err(); err != nil {
		return convert(err, ErrSyntax)
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return convert(err, ErrSchemaMismatch)
	}
	return nil
}

// convert flattens a CUE error list into ValidationErrors.
func convert(err error, code string) []ValidationError {
	var out []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		}
		if ve.Field == "" {
			ve.Field = "document"
		}
		if pos := e.Position(); pos.IsValid() {
			ve.Line = pos.Line()
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Field: "document", Message: err.Error(), Code: code})
	}
	return out
}
