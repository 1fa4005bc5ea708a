package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/backoffice/internal/service"
)

// RequestValidator plugs validator/v10 into echo.  Failures come back as
// *service.ValidationError named after the JSON or query field.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fes validator.ValidationErrors
	if errors.As(err, &fes) && len(fes) > 0 {
		fe := fes[0]
		msg := "failed " + fe.Tag()
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be a valid email"
		case "min", "max", "oneof":
			msg = "must satisfy " + fe.Tag() + "=" + fe.Param()
		}
		return &service.ValidationError{Field: fe.Field(), Message: msg}
	}
	return &service.ValidationError{Message: err.Error()}
}
