package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/practice-service/internal/errors"
	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines request struct validation with question sanity checks.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags and converts failures to
// ValidationErrors.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("session_kind", validateSessionKind)
	validate.RegisterValidation("option_key", validateOptionKey)
	validate.RegisterValidation("topic_list", validateTopicList)

	// Report json names so messages match the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateSessionKind accepts an empty value; defaults are applied later.
func validateSessionKind(fl validator.FieldLevel) bool {
	switch models.SessionKind(fl.Field().String()) {
	case "", models.SessionKindPractice, models.SessionKindMockExam:
		return true
	}
	return false
}

func validateOptionKey(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.OptionA, models.OptionB, models.OptionC, models.OptionD:
		return true
	}
	return false
}

func validateTopicList(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < fl.Field().Len(); i++ {
		if strings.TrimSpace(fl.Field().Index(i).String()) == "" {
			return false
		}
	}
	return true
}
