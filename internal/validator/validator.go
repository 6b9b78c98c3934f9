// Package validator configures go-playground/validator for request and domain
// validation and turns its failures into field-level errors.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "budgetly/internal/errors"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var validate = newValidate("validate")

// Register applies the custom validators to the Gin binding engine so query
// and body bindings share the same rules and field names.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v)
	}
}

func newValidate(tagName string) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName(tagName)
	configure(v)
	return v
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("notblank", validateNotBlank)
}

// jsonFieldName reports fields by their json (or form) name.
func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// decimalValue exposes money as a float so numeric tags (gt, lte) apply. The
// value is rounded to cents first, matching what gets stored.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.Round(2).InexactFloat64()
	}
	return nil
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Struct validates s against its validate tags.
func Struct(s any) []apperrors.FieldError {
	return FieldErrors(validate.Struct(s))
}

// FieldErrors converts validator failures into field errors. Errors of any
// other kind yield nil.
func FieldErrors(err error) []apperrors.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "notblank":
		return "This field cannot be blank."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is at most %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)."
	default:
		return fmt.Sprintf("Failed the %q check.", fe.Tag())
	}
}

// ParseDate parses a calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Today returns the calendar date of now, in UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CheckNotFuture rejects a date later than today's date.
func CheckNotFuture(field string, date, now time.Time) *apperrors.FieldError {
	if date.After(Today(now)) {
		return &apperrors.FieldError{Field: field, Message: "The date cannot be in the future."}
	}
	return nil
}

// CheckEndAfterStart rejects a window whose end is not strictly after its start.
func CheckEndAfterStart(field string, start, end time.Time) *apperrors.FieldError {
	if !end.After(start) {
		return &apperrors.FieldError{Field: field, Message: "The end date must be after the start date."}
	}
	return nil
}
