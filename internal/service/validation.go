package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/civic-report-api/internal/models"
	appErrors "github.com/noah-isme/civic-report-api/pkg/errors"
)

// fieldMessages maps "<field>.<tag>" to the message shown to form users.
var fieldMessages = map[string]string{
	"name.required":           "Name is required",
	"name.min":                "Name must be between 2 and 100 characters",
	"name.max":                "Name must be between 2 and 100 characters",
	"email.required":          "Email is required",
	"email.email":             "Please enter a valid email address",
	"email.max":               "Email cannot exceed 120 characters",
	"category.required":       "Please select an issue category",
	"category.issue_category": "Please select an issue category",
	"description.required":    "Issue description is required",
	"description.min":         "Description must be between 10 and 1000 characters",
	"description.max":         "Description must be between 10 and 1000 characters",
	"location.required":       "Location is required",
	"location.min":            "Location must be between 5 and 200 characters",
	"location.max":            "Location must be between 5 and 200 characters",
	"latitude.latitude":       "Latitude must be a number between -90 and 90",
	"longitude.longitude":     "Longitude must be a number between -180 and 180",
	"status.required":         "Please select a status",
	"status.issue_status":     "Please select a valid status",
	"priority.required":       "Please select a priority",
	"priority.issue_priority": "Please select a valid priority",
	"admin_notes.max":         "Notes cannot exceed 500 characters",
	"assigned_to.max":         "Assigned to field cannot exceed 100 characters",
	"username.required":       "Username is required",
	"username.min":            "Username must be between 3 and 64 characters",
	"username.max":            "Username must be between 3 and 64 characters",
	"password.required":       "Password is required",
	"password.min":            "Password must be at least 6 characters long",
	"role.max":                "Role cannot exceed 20 characters",
}

// NewValidator returns a validator that reports form field names and knows the
// issue enumerations.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("issue_category", func(fl validator.FieldLevel) bool {
		return models.IssueCategory(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("issue_status", func(fl validator.FieldLevel) bool {
		return models.IssueStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("issue_priority", func(fl validator.FieldLevel) bool {
		return models.IssuePriority(fl.Field().String()).Valid()
	})
	return v
}

// validateStruct runs the validator and converts failures into a
// VALIDATION_ERROR carrying per-field messages.
func validateStruct(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	details := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = append(details[fe.Field()], fieldMessage(fe))
	}
	return appErrors.Validation(details)
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Please enter a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// addFieldError appends a message to a validation error, creating one when
// err is nil.
func addFieldError(err error, field, message string) error {
	var appErr *appErrors.Error
	if err == nil || !errors.As(err, &appErr) || appErr.Details == nil {
		return appErrors.Validation(map[string][]string{field: {message}})
	}
	appErr.Details[field] = append(appErr.Details[field], message)
	return appErr
}
