package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failure")

// FieldError describes one failing field. Field uses JSON names, with
// element paths for slices ("colors[1].hex").
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every field that failed local validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add appends a failing field.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Has reports whether field (or an element of it) failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field || strings.HasPrefix(f.Field, field+"[") || strings.HasPrefix(f.Field, field+".") {
			return true
		}
	}
	return false
}

// Err returns e when it holds at least one field, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("hexcolor3or6", func(fl validator.FieldLevel) bool {
		return ValidHex(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks a complete record store payload, images included.
func Validate(p Product) error {
	return check(p, false)
}

// ValidateDraft checks every field except images, which the client resolves
// only after uploading.
func ValidateDraft(p Product) error {
	return check(p, true)
}

func check(p Product, skipImages bool) error {
	p = p.Clone()
	p.Normalize()

	verr := &ValidationError{}
	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate product: %w", err)
		}
		for _, fe := range fieldErrs {
			field := fieldPath(fe)
			if skipImages && (field == "images" || strings.HasPrefix(field, "images[")) {
				continue
			}
			verr.Add(field, reason(fe))
		}
	}
	if p.Flags.Count() > MaxActiveFlags {
		verr.Add("flags", ErrFlagLimit.Error())
	}
	return verr.Err()
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "at least " + fe.Param() + " required"
	case "url":
		return "must be a URL"
	case "gte":
		return "must not be negative"
	case "hexcolor3or6":
		return ErrInvalidHex.Error()
	default:
		return "failed " + fe.Tag()
	}
}
