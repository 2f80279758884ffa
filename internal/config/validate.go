package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"holder-analytics/internal/domain"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("range", func(fl validator.FieldLevel) bool {
		return domain.Range(fl.Field().String()).IsValid()
	})
	v.RegisterValidation("chartmode", func(fl validator.FieldLevel) bool {
		return domain.ChartMode(fl.Field().String()).IsValid()
	})
	v.RegisterValidation("section", func(fl validator.FieldLevel) bool {
		return domain.Section(fl.Field().String()).IsValid()
	})
	return v
}

// Validate checks cfg. Failures wrap ErrInvalidConfig and name every field.
func Validate(cfg *Config) error {
	err := newValidator().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
}
