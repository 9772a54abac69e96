// Package render writes the result envelope every endpoint answers with.
//
// The HTTP status is always 200; clients switch on resultCode.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Result codes shared by every endpoint
const (
	CodeOK       = 1
	CodeNotFound = 0
	CodeError    = -1
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type Struct any

// Envelope is the body of every response
type Envelope struct {
	Data       any               `json:"data"`
	ResultCode int               `json:"resultCode"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Result writes data with the result code
func Result(w http.ResponseWriter, data any, code int) {
	writeJSON(w, Envelope{Data: data, ResultCode: code})
}

// OK writes data with CodeOK
func OK(w http.ResponseWriter, data any) {
	Result(w, data, CodeOK)
}

// List writes items, or message with CodeNotFound when there are none
func List[T any](w http.ResponseWriter, items []T, message string) {
	if len(items) == 0 {
		Result(w, message, CodeNotFound)
		return
	}
	OK(w, items)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	var message string

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	Result(w, message, CodeError)
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := Envelope{
		Data:       "Request validation failed",
		ResultCode: CodeError,
		Fields:     make(map[string]string, len(errs)),
	}

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "oneof":
			message = fmt.Sprintf("Must be one of: %s", fieldError.Param())
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	writeJSON(w, response)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes the error envelope for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			ValidationErrors(w, errs)
		} else {
			Result(w, "Error in parameters", CodeError)
		}
		return value, err
	}

	return value, nil
}

func writeJSON(w http.ResponseWriter, data any) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
