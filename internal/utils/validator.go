package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/quantprep/challenge-service/internal/errors"
	"github.com/quantprep/challenge-service/internal/models"
)

// Validator wraps the struct validator with the domain's custom tags.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate checks struct tags and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if converted := apperrors.ToValidationErrors(err); len(converted) > 0 {
			return converted
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateAnswerType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.AnswerNumber) || value == string(models.AnswerMCQ)
}

func ValidateChallengeMode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == string(models.ModeProbability) || value == string(models.ModeMarkets)
}

func ValidateDifficultyScore(fl validator.FieldLevel) bool {
	value := fl.Field().Int()
	return value >= 1 && value <= 10
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("answer_type", ValidateAnswerType)
	validate.RegisterValidation("challenge_mode", ValidateChallengeMode)
	validate.RegisterValidation("difficulty_score", ValidateDifficultyScore)

	// Report json field names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
