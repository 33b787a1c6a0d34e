package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Decimals are compared as floats so numeric tags like gt=0 apply to them.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks the invariants every transaction entering the system must
// hold. It is called by ingestion paths (API, CSV, spreadsheet), never by the
// analytics pipeline.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate transaction: %w", err)
	}
	switch fe := verrs[0]; fe.StructField() {
	case "Amount":
		return ErrInvalidAmount
	case "Kind":
		return ErrInvalidKind
	case "Category":
		return ErrCategoryTooLong
	case "Description":
		return ErrDescriptionTooLong
	default:
		return fmt.Errorf("invalid %s: failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
}
