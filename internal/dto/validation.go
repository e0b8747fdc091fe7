package dto

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	mmyyPattern       = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	schoolYearPattern = regexp.MustCompile(`^([0-9]{4})-([0-9]{4})$`)
)

// NewValidator builds the request validator with the custom tags registered
// and field errors keyed by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	RegisterValidations(v)
	return v
}

// RegisterValidations installs the custom tags used by the DTOs:
// mmyy for "MM/YY" grade dates and schoolyear for "YYYY-YYYY" codes.
func RegisterValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("mmyy", func(fl validator.FieldLevel) bool {
		return mmyyPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("schoolyear", func(fl validator.FieldLevel) bool {
		match := schoolYearPattern.FindStringSubmatch(fl.Field().String())
		if match == nil {
			return false
		}
		start, _ := strconv.Atoi(match[1])
		end, _ := strconv.Atoi(match[2])
		return end == start+1
	})
}
