package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iho/bookkeeper/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a request DTO against its struct tags and reports the
// first failing field as a validation error.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Errorf(domain.ErrValidation, "invalid request: %v", err)
	}

	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return domain.Errorf(domain.ErrValidation, "%s is required", field)
	case "max":
		return domain.Errorf(domain.ErrValidation, "%s exceeds %s characters", field, fe.Param())
	case "oneof":
		return domain.Errorf(domain.ErrValidation, "%s must be one of: %s", field, fe.Param())
	default:
		return domain.Errorf(domain.ErrValidation, "%s failed %s validation", field, fe.Tag())
	}
}
