package services

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"cms-panel/internal/models"
)

// enumTags maps custom tags to the values they accept.
var enumTags = map[string][]string{
	"role":   models.Roles,
	"status": models.Statuses,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages match request payloads.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	for tag, values := range enumTags {
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return slices.Contains(values, fl.Field().String())
		})
	}

	return v
}

// validateStruct runs the struct's validate tags and converts failures into a *ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Add(fieldName(fe), messageFor(fe))
	}
	return out
}

// fieldName strips the struct prefix and keeps nested names such as tags[0].
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "role", "status":
		return "must be one of: " + strings.Join(enumTags[fe.Tag()], ", ")
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if fe.Kind() == reflect.Slice {
			return "must contain at most " + fe.Param() + " items"
		}
		return "must be at most " + fe.Param() + " characters"
	case "hexcolor":
		return "must be a hex color such as #00BFA6"
	case "url", "uri":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

// joinValidation merges the field failures of errs into one *ValidationError.
// A non-validation error is returned as is.
func joinValidation(errs ...error) error {
	out := &ValidationError{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for field, msg := range verr.Fields {
			out.Add(field, msg)
		}
	}
	return out.OrNil()
}
