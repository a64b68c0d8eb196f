package checkout

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Address struct {
	Name        string `json:"name" validate:"required"`
	Phone       string `json:"phone" validate:"required,len=10,number"`
	HouseNumber string `json:"houseNumber" validate:"required"`
	Area        string `json:"area" validate:"required"`
	Pincode     string `json:"pincode" validate:"required,len=6,number"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
}

// validate reports fields by their json name.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// fieldMessages holds the missing and malformed message per json field.
var fieldMessages = map[string][2]string{
	"name":        {"Name is required"},
	"phone":       {"Mobile number is required", "Mobile number must be 10 digits"},
	"houseNumber": {"House number is required"},
	"area":        {"Area is required"},
	"pincode":     {"Pincode is required", "Pincode must be 6 digits"},
	"city":        {"City is required"},
	"state":       {"State is required"},
}

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid address: " + strings.Join(parts, "; ")
}

// Normalize trims every field.
func (a Address) Normalize() Address {
	return Address{
		Name:        strings.TrimSpace(a.Name),
		Phone:       strings.TrimSpace(a.Phone),
		HouseNumber: strings.TrimSpace(a.HouseNumber),
		Area:        strings.TrimSpace(a.Area),
		Pincode:     strings.TrimSpace(a.Pincode),
		City:        strings.TrimSpace(a.City),
		State:       strings.TrimSpace(a.State),
	}
}

// Validate returns nil when a is acceptable.
func (a Address) Validate() ValidationErrors {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return ValidationErrors{"address": err.Error()}
	}
	errs := ValidationErrors{}
	for _, fe := range fes {
		msgs := fieldMessages[fe.Field()]
		if fe.Tag() == "required" || msgs[1] == "" {
			errs[fe.Field()] = msgs[0]
		} else {
			errs[fe.Field()] = msgs[1]
		}
	}
	return errs
}

// ValidPincode reports whether pin is exactly six digits.
func ValidPincode(pin string) bool { return validate.Var(pin, "len=6,number") == nil }
