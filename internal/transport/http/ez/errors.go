package ez

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"recipe-api/internal/domain"
	resp "recipe-api/internal/transport/http/response"
)

// AErr is the error type actions return; it carries the envelope code and,
// for validation failures, per-field messages.
type AErr struct {
	Code   int
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: resp.CodeUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: resp.CodeForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: resp.CodeNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: resp.CodeServerError, Msg: msg, Err: err}
}

// Invalid reports field-level validation failures.
func Invalid(fields map[string]string) error { return invalid(fields) }

func invalid(fields map[string]string) *AErr {
	return &AErr{Code: resp.CodeBadRequest, Msg: "validation failed", Fields: fields}
}

// FromError maps service and domain errors onto an AErr. Unknown errors
// become a 500 whose cause is kept for logging only.
func FromError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		return ae
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return invalid(ve.Fields)
	}
	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		return invalid(map[string]string{ce.Field: ce.Error()})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &AErr{Code: resp.CodeNotFound, Msg: "not found"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return invalid(map[string]string{"non_field_errors": err.Error()})
	}
	return &AErr{Code: resp.CodeServerError, Msg: "internal error", Err: err}
}

// bindError turns gin binding failures into field messages.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return Invalid(fields)
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return Invalid(map[string]string{te.Field: "expected " + te.Type.String()})
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &AErr{Code: resp.CodeTooLarge, Msg: "request body too large"}
	}
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return Invalid(map[string]string{strings.Trim(rest, `"`): "unknown field"})
	}
	return Invalid(map[string]string{"non_field_errors": msg})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "ensure this field has at least " + fe.Param() + " characters"
		}
		return "ensure this value is greater than or equal to " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "ensure this field has no more than " + fe.Param() + " characters"
		}
		return "ensure this value is less than or equal to " + fe.Param()
	case "url":
		return "enter a valid URL"
	}
	return "failed on " + fe.Tag()
}

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
	}
}
