package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every payload; validator caches struct metadata and is safe for concurrent use
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError flattens validator output into field -> failed tag pairs for API responses
func ValidationError(err error) map[string]interface{} {
	details := map[string]interface{}{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return details
	}
	details["error"] = err.Error()
	return details
}
