package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs the custom tags used by request types on gin's
// validator and reports field errors by their json names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v.RegisterValidation("json_object", isJSONObject)
}

func isJSONObject(fl validator.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(json.RawMessage)
	if !ok {
		return false
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return true
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal(raw, &obj) == nil
}

// NewValidationResponse turns a binding error into a field -> reason map.
func NewValidationResponse(err error) Response {
	fields := map[string]string{}

	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fields[fe.Field()] = describe(fe)
		}
	case errors.As(err, &typeErr):
		fields[typeErr.Field] = "expected " + typeErr.Type.String()
	case errors.As(err, &syntaxErr):
		fields["body"] = "malformed json"
	default:
		fields["body"] = err.Error()
	}

	return Response{
		Status:  "error",
		Message: "validation failed",
		Errors:  fields,
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "printascii":
		return "only printable ascii characters are allowed"
	case "json_object":
		return "expected a json object"
	default:
		return "failed on " + fe.Tag()
	}
}
