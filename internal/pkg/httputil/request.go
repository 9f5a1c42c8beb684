package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so clients can map errors back to the body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// DecodeValid decodes the body into dst and runs its `validate` struct tags.
// Returns false and writes a 400 response listing the failing fields.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !Decode(w, r, dst) {
		return false
	}
	if err := validate.Struct(dst); err != nil {
		JSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request",
			Code:    "validation_failed",
			Details: FieldErrors(err),
		})
		return false
	}
	return true
}

// FieldErrors flattens validator errors into field → rule messages.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		out[fe.Field()] = msg
	}
	return out
}
