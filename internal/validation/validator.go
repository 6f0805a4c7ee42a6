// Package validation registers the request field rules on gin's validator
// engine and turns validator errors into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ReservedUsername cannot be registered, it addresses the current user.
const ReservedUsername = "me"

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// ValidUsername reports whether s only holds letters, digits and @.+-_
func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}

// ValidSlug reports whether s is a URL slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Register installs the custom tags on v and makes field errors use json names.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	rules := map[string]validator.Func{
		"username": func(fl validator.FieldLevel) bool { return ValidUsername(fl.Field().String()) },
		"notme":    func(fl validator.FieldLevel) bool { return fl.Field().String() != ReservedUsername },
		"slug":     func(fl validator.FieldLevel) bool { return ValidSlug(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// RegisterWithGin registers the rules on gin's default binding engine.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return Register(v)
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// Fields converts a binding error into field -> messages. ok is false when
// err is not a validation error (malformed JSON, wrong types).
func Fields(err error) (map[string][]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], translate(fe))
	}
	return fields, true
}

var messages = map[string]string{
	"required": "This field is required.",
	"email":    "Enter a valid email address.",
	"username": "Only letters, digits and @/./+/-/_ are allowed.",
	"notme":    "The username \"me\" is reserved.",
	"slug":     "Enter a valid slug of letters, digits, underscores or hyphens.",
}

func translate(fe validator.FieldError) string {
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}

	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}
