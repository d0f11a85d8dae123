package dataset

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
	})
	return validate
}

// Validate reports every problem in the dataset at once.
func (s *Spec) Validate() error {
	var result *multierror.Error

	for _, name := range slices.Sorted(maps.Keys(s.Sources)) {
		src := s.Sources[name]
		switch src.kinds() {
		case 0:
			result = multierror.Append(result, fmt.Errorf("sources.%s: one of range, sqlite or values is required", name))
			continue
		case 1:
		default:
			result = multierror.Append(result, fmt.Errorf("sources.%s: only one of range, sqlite or values may be set", name))
			continue
		}
		if src.Range != nil && src.Range.Step < 0 && src.Range.Stop == nil {
			result = multierror.Append(result, fmt.Errorf("sources.%s.range: a negative step needs a stop", name))
		}
		if src.SQLite != nil {
			if err := getValidator().Struct(src.SQLite); err != nil {
				result = multierror.Append(result, fieldErrors("sources."+name+".sqlite", err)...)
			}
		}
		if _, clash := s.Values[name]; clash {
			result = multierror.Append(result, fmt.Errorf("sources.%s: name is also defined under values", name))
		}
	}

	return result.ErrorOrNil()
}

func fieldErrors(prefix string, err error) []error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{fmt.Errorf("%s: %w", prefix, err)}
	}
	out := make([]error, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, fmt.Errorf("%s.%s: %s", prefix, e.Field(), message(e)))
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min":
		return "must be at least " + e.Param()
	}
	return "failed " + e.Tag() + " validation"
}
