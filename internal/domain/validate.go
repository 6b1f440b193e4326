package domain

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func init() {
	// The banking API exchanges money as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validator exposes the shared record validator so other layers (the sandbox,
// fixture adapters) apply the same rules.
func Validator() *validator.Validate {
	return validate
}

func validateParams(kind string, params any) error {
	if err := validate.Struct(params); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, kind, err)
	}
	return nil
}

// Ptr returns a pointer to v. Handy for optional wire fields.
func Ptr[T any](v T) *T {
	return &v
}
