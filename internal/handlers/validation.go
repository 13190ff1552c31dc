package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"loginguard/internal/models"
)

// Global validator instance (reused across all handlers)
var validate = validator.New()

// validationMessage validates a form DTO and returns the message code to
// redirect with, or "" when the form is valid. A bad email address gets its
// own message; everything else collapses into the required-fields one.
func validationMessage(form interface{}) string {
	err := validate.Struct(form)
	if err == nil {
		return ""
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fieldError := range ve {
			if fieldError.Tag() == "email" {
				return models.MsgInvalidEmail
			}
		}
		return models.MsgRequiredFields
	}

	return models.MsgGenericError
}
