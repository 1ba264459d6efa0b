// Package validation checks endpoint descriptors and other structs using
// go-playground/validator struct tags.
//
//	type Endpoint struct {
//	    URL    string `validate:"required,http_url"`
//	    Method string `validate:"omitempty,oneof=GET POST"`
//	}
//	err := validation.Validate(ep)
//
// Failures are returned as *errors.AppError with code INVALID_ENDPOINT and
// a "fields" detail listing every offending field.
package validation
