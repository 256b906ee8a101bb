package validation

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator. Field names in errors follow the json tags.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// prices are stored and summed in cents
	v.RegisterStructValidation(menuItemStructValidation, MenuItemRequest{})

	return v
}

// menuItemStructValidation rejects prices with fractions of a cent.
func menuItemStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(MenuItemRequest)

	cents := req.Price * 100
	if math.Abs(cents-math.Round(cents)) > 1e-6 {
		sl.ReportError(req.Price, "price", "Price", "whole_cents", fmt.Sprintf("price %v has fractions of a cent", req.Price))
	}
}
