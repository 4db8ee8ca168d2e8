package converter

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateRequest checks each request field on its own: all four are
// required, fileType and format must be recognized tokens. The pair itself
// is checked afterwards with Registry.Supports.
func (r *Registry) ValidateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("request body is required")
	}
	return validation.ValidateStruct(req,
		validation.Field(&req.FileData, validation.Required),
		validation.Field(&req.FileType, r.sourceTypeRules()...),
		validation.Field(&req.Format, r.formatRules()...),
		validation.Field(&req.FileName, validation.Required),
	)
}

// ValidateJob applies the same field rules to an in-memory job
func (r *Registry) ValidateJob(job *Job) error {
	return validation.ValidateStruct(job,
		validation.Field(&job.Data, validation.Required),
		validation.Field(&job.FileType, r.sourceTypeRules()...),
		validation.Field(&job.Format, r.formatRules()...),
		validation.Field(&job.FileName, validation.Required),
	)
}

func (r *Registry) sourceTypeRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.In(asValues(r.SourceTypes())...)}
}

func (r *Registry) formatRules() []validation.Rule {
	return []validation.Rule{validation.Required, validation.In(asValues(r.Formats())...)}
}

// Validate reports whether the (source, format) pair is a legal conversion
func (r *Registry) Validate(source, format string) bool {
	return r.Supports(source, format)
}

func asValues(items []string) []interface{} {
	values := make([]interface{}, len(items))
	for i, item := range items {
		values[i] = item
	}
	return values
}
