// Package validation checks service inputs with struct tags and reports the
// first failure as a domain.ErrValidation carrying a readable message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"shopverse/internal/domain"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		rules := map[string]validator.Func{
			"phone": func(fl validator.FieldLevel) bool {
				return phonePattern.MatchString(fl.Field().String())
			},
			"trimmed_len": trimmedLen,
		}
		for tag, fn := range rules {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("validation: register %s: %v", tag, err))
			}
		}
	})
	return validate
}

// Struct validates v and converts the first failing rule into a domain error.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domain.Validationf("%s", message(verrs[0]))
	}
	return domain.Validationf("%v", err)
}

// trimmedLen checks "min-max" against the whitespace-trimmed length in runes.
func trimmedLen(fl validator.FieldLevel) bool {
	var lo, hi int
	if _, err := fmt.Sscanf(fl.Param(), "%d-%d", &lo, &hi); err != nil {
		return false
	}
	n := len([]rune(strings.TrimSpace(fl.Field().String())))
	return n >= lo && n <= hi
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email"
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "phone":
		return "Please provide a valid phone number"
	case "min":
		if isString(fe) {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString(fe) {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "trimmed_len":
		return fmt.Sprintf("%s must be between %s characters", field, strings.Replace(fe.Param(), "-", " and ", 1))
	}
	return fmt.Sprintf("%s is invalid", field)
}

func isString(fe validator.FieldError) bool {
	k := fe.Kind()
	return k == reflect.String
}
