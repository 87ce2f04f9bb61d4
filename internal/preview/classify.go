package preview

import (
	"git.home.luguber.info/inful/specpreview/internal/diagnostic"
	"git.home.luguber.info/inful/specpreview/internal/document"
)

// Classification is what one outcome means for status and annotations.
type Classification struct {
	Status StatusCode
	// YAML is set for a structural failure; it is annotated as a whole.
	YAML *diagnostic.YAMLError
	// Errors are annotated one by one as errors.
	Errors []diagnostic.Diagnostic
	// Warnings are annotated one by one as warnings.
	Warnings []diagnostic.Diagnostic
}

// Classify maps a build outcome to a status and the annotations to apply.
//
// A success annotates its warnings. A failure whose first error is
// structural is a YAML error; any other non-empty error list is a swagger
// error with every entry annotated; anything else is a general error with
// no annotations.
func Classify(o document.Outcome) Classification {
	switch v := o.(type) {
	case document.Success:
		return Classification{Status: StatusSuccess, Warnings: v.Warnings}
	case document.Failure:
		if y, ok := diagnostic.FirstStructural(v.Errors); ok {
			return Classification{Status: StatusYAMLError, YAML: &y}
		}
		if len(v.Errors) > 0 {
			return Classification{Status: StatusSwaggerError, Errors: v.Errors}
		}
	}
	return Classification{Status: StatusGeneralError}
}
