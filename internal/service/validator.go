package service

import (
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/uni-registration-api/internal/models"
)

// NewValidator returns a validator with the domain tags registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		return ValidGrade(fl.Field().String())
	})
	_ = v.RegisterValidation("request_type", func(fl validator.FieldLevel) bool {
		switch models.RequestType(fl.Field().String()) {
		case models.RequestTypeDrop, models.RequestTypeSwap:
			return true
		}
		return false
	})
	return v
}
