package entity

import (
	"math"
	"reflect"
	"sync"

	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Messages shown to the admin, keyed by struct field name.
var fieldMessages = map[string]string{
	"Name":        "Name is required",
	"Location":    "Location is required",
	"Description": "Description is required",
	"Latitude":    "Valid coordinates are required",
	"Longitude":   "Valid coordinates are required",
}

var (
	fieldValidator     *validator.Validate
	fieldValidatorOnce sync.Once
)

func profileValidator() *validator.Validate {
	fieldValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Registration only fails for empty tags or nil funcs.
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("finite", isFinite)
		fieldValidator = v
	})

	return fieldValidator
}

func isFinite(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()

		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

// Validate checks name, location, description and coordinates in that order
// and reports only the first failure as a *domainerrors.ValidationError.
func (f ProfileFields) Validate() error {
	err := profileValidator().Struct(f)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.Wrap(err, "validate profile fields")
	}

	first := fieldErrs[0]
	message, ok := fieldMessages[first.Field()]
	if !ok {
		message = first.Error()
	}

	return domainerrors.NewValidationError(jsonFieldName(first), message)
}

func jsonFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Latitude":
		return "coordinates.latitude"
	case "Longitude":
		return "coordinates.longitude"
	default:
		return lowerFirst(fe.Field())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}

	return string(b)
}
