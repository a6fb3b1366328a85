// Package validation checks request shapes before they reach the services.
// Rules are declared with struct tags and evaluated by go-playground/validator;
// a failed check yields every offending field at once.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "userhandler/internal/errors"
)

// DateLayout is the accepted birthday format.
const DateLayout = "2006-01-02"

// Errors aggregates field level failures.
type Errors []apperrors.FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// Validator implements echo.Validator.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a Validator with the custom rules registered.
func New() *Validator {
	return NewWithClock(time.Now)
}

// NewWithClock builds a Validator whose past-date rule compares against now().
func NewWithClock(now func() time.Time) *Validator {
	v := &Validator{validate: validator.New(), now: now}

	// report json names instead of Go field names
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.validate.RegisterValidation("pastdate", v.pastDate)
	return v
}

// Validate checks i and returns Errors listing every failed field.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func (v *Validator) pastDate(fl validator.FieldLevel) bool {
	d, err := ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return IsPast(d, v.now())
}

// ParseDate parses a yyyy-MM-dd date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// IsPast reports whether date d is strictly before the calendar day of now.
func IsPast(d, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return d.Before(today)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "cannot be empty"
	case "email":
		return "invalid email format"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "pastdate":
		return "must be a valid past date (yyyy-MM-dd)"
	case "excludes":
		return "must not contain " + fe.Param()
	case "gtefield":
		return "must not be less than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
