// Package validator wraps go-playground/validator with the custom tags used
// by request payloads and turns the first failure into a short message.
package validator

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

var (
	global   *validator.Validate
	otpRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrInvalidEmail       = "Invalid email address"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("otp", validateOTP)
	_ = v.RegisterValidation("hhmm", validateClock)
	_ = v.RegisterValidation("isodate", validateDate)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// jsonName reports fields by their JSON name so messages match payloads.
func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func validateOTP(fl validator.FieldLevel) bool {
	return otpRegex.MatchString(fl.Field().String())
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "otp":
		msg = "Code must be six digits"
	case "hhmm":
		msg = "Time must be HH:MM"
	case "isodate":
		msg = "Date must be YYYY-MM-DD"
	case "email":
		msg = ErrInvalidEmail
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Field())
}

// Echo adapts the package validator to echo.Validator.
type Echo struct{}

func (Echo) Validate(i interface{}) error {
	return Validate(context.Background(), i)
}
