package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidationError 只暴露第一个失败的字段
type ValidationError struct {
	Field string
	Rule  string
	Err   validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field [%s] failed rule [%s]", e.Field, e.Rule)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			return &ValidationError{
				Field: firstError.Field(),
				Rule:  firstError.Tag(),
				Err:   vErrs,
			}
		}
		return err
	}
	return nil
}
