package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs tag validation and converts the first failure into a
// ValidationError keyed by the JSON field name.
func checkStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return invalid(fe.Field(), "failed %q validation", fe.Tag())
	}
	return invalid("", "%v", err)
}

func validEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// parseDate accepts a calendar date or a full RFC 3339 timestamp and
// returns it in UTC.
func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid(field, "%q is not a valid date", s)
}
