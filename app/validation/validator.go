package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	personNamePattern = regexp.MustCompile(`^[\p{L}\s'-]+$`)
)

// FieldError is a single failed rule on a request field.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

func (e FieldError) Message() string {
	switch e.Tag {
	case "required":
		return e.Field + " is required"
	case "email":
		return e.Field + " must be a valid email address"
	case "min":
		return e.Field + " must be at least " + e.Param + " characters long"
	case "max":
		return e.Field + " must be at most " + e.Param + " characters long"
	case "person_name":
		return e.Field + " must be 2-50 characters and contain only letters, spaces, apostrophes or hyphens"
	case "numeric":
		return e.Field + " must contain only digits"
	case "len":
		return e.Field + " must be exactly " + e.Param + " characters long"
	case "gte":
		return e.Field + " must be greater than or equal to " + e.Param
	case "lte":
		return e.Field + " must be less than or equal to " + e.Param
	default:
		return e.Field + " is invalid"
	}
}

type Errors []FieldError

func (v Errors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		parts[i] = err.Message()
	}
	return strings.Join(parts, "; ")
}

func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(Errors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, FieldError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

// IsPersonName reports whether value is a 2-50 character name made of
// letters, spaces, apostrophes and hyphens.
func IsPersonName(value string) bool {
	n := utf8.RuneCountInString(value)
	if n < 2 || n > 50 {
		return false
	}
	return personNamePattern.MatchString(value)
}

func get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}

			if comma := strings.Index(name, ","); comma != -1 {
				name = name[:comma]
			}

			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(validate, "person_name", func(fl validator.FieldLevel) bool {
			return IsPersonName(strings.TrimSpace(fl.Field().String()))
		})
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
}
