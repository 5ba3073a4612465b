package validation

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	commonerrors "github.com/AlibekovAA/relay-hub/internal/common/errors"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f.Tag.Get("json"), f.Name)
		})
		_ = instance.RegisterValidation("jsonvalue", validateJSONValue)
	})
	return instance
}

// Struct checks validate tags and reports failures as ErrInvalidPayload
// with the offending JSON field names in the cause.
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return commonerrors.ErrInvalidPayload.WithCause(err)
	}

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}
	return commonerrors.ErrInvalidPayload.WithCause(fmt.Errorf("invalid fields: %s", strings.Join(fields, ", ")))
}

// validateJSONValue rejects absent, null and empty-string raw JSON values.
func validateJSONValue(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.Uint8 {
		return false
	}
	trimmed := bytes.TrimSpace(field.Bytes())
	switch string(trimmed) {
	case "", "null", `""`:
		return false
	}
	return true
}

func jsonName(tag, fallback string) string {
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return ""
	case "":
		return fallback
	default:
		return name
	}
}
