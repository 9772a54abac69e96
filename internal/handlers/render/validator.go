package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ISO 11784 animal microchips carry 15 digits
const chipLength = 15

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("chip", validateChipNumber)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Empty chip number is fine, most lost animals have none
func validateChipNumber(fl validator.FieldLevel) bool {
	number := fl.Field().String()
	if number == "" {
		return true
	}

	if len(number) != chipLength {
		return false
	}
	for i := range len(number) {
		if number[i] < '0' || number[i] > '9' {
			return false
		}
	}

	return true
}
