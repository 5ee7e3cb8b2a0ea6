// Package validation wraps go-playground/validator with the console's form
// rules and turns failures into *domain.ValidationErrors keyed by JSON field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// Validator wraps the go-playground validator with custom rules.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the industry and erp rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	registerCustomValidators(validate)

	// Use JSON field names in error maps; fields hidden from JSON keep a
	// lower-camel version of their Go name.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return lowerFirst(fld.Name)
		}
		return name
	})

	return &Validator{validate: validate}
}

// Struct validates s. A nil return means every rule passed.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return toDomain(verrs)
	}
	return err
}

// Fields validates only the named fields of s (JSON names are not accepted
// here; pass Go field names).
func (v *Validator) Fields(s any, fields ...string) error {
	err := v.validate.StructPartial(s, fields...)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return toDomain(verrs)
	}
	return err
}

// Var validates a single value against tag.
func (v *Validator) Var(field any, tag string) error {
	return v.validate.Var(field, tag)
}

func toDomain(errs validator.ValidationErrors) *domain.ValidationErrors {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = message(e)
	}
	return &domain.ValidationErrors{Fields: out}
}

func message(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, e.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "eqfield":
		return "passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "industry":
		return "select an industry classification"
	case "erp":
		return "select an ERP solution"
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field)
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// registerCustomValidators registers the enum rules of the onboarding form.
func registerCustomValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("industry", func(fl validator.FieldLevel) bool {
		value := domain.IndustryClassification(fl.Field().String())
		for _, ic := range domain.Industries() {
			if ic == value {
				return true
			}
		}
		return false
	})

	_ = validate.RegisterValidation("erp", func(fl validator.FieldLevel) bool {
		value := domain.ErpSolution(fl.Field().String())
		for _, e := range domain.ErpSolutions() {
			if e == value {
				return true
			}
		}
		return false
	})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
