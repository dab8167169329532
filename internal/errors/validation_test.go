package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestValidationError(t *testing.T) {
	// Test NewValidationError
	err := NewValidationError("test_field", "test message", "test_value")

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message to be 'test message', got '%s'", err.Message)
	}

	if err.Value != "test_value" {
		t.Errorf("Expected value to be 'test_value', got '%v'", err.Value)
	}

	// Test Error method
	expected := "validation error on field 'test_field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Test empty ValidationErrors
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	// Test single ValidationError
	errs = append(errs, *NewValidationError("field1", "message1", nil))
	expected := "validation failed: field1 message1"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	// Test multiple ValidationErrors
	errs = append(errs, *NewValidationError("field2", "message2", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("test_field", "test message", "required", "test_value")

	if err.Rule != "required" {
		t.Errorf("Expected rule to be 'required', got '%s'", err.Rule)
	}

	if err.Field != "test_field" {
		t.Errorf("Expected field to be 'test_field', got '%s'", err.Field)
	}
}

type quizRequestFixture struct {
	Subject string `json:"subject" validate:"required"`
	Kind    string `json:"session_type" validate:"session_kind"`
	Count   int    `json:"count" validate:"min=1"`
}

func TestToValidationErrors_FromValidator(t *testing.T) {
	v := validator.New()
	v.RegisterValidation("session_kind", func(fl validator.FieldLevel) bool {
		return fl.Field().String() == "quiz"
	})

	err := v.Struct(quizRequestFixture{Kind: "exam", Count: 0})
	errs := ToValidationErrors(err)

	if len(errs) != 3 {
		t.Fatalf("Expected 3 validation errors, got %d", len(errs))
	}

	messages := map[string]string{}
	for _, e := range errs {
		messages[e.Rule] = e.Message
	}
	if messages["required"] != "is required" {
		t.Errorf("Unexpected message for required: '%s'", messages["required"])
	}
	if messages["session_kind"] != "must be a valid session kind (quiz, mock_exam)" {
		t.Errorf("Unexpected message for session_kind: '%s'", messages["session_kind"])
	}
	if messages["min"] != "must be at least 1" {
		t.Errorf("Unexpected message for min: '%s'", messages["min"])
	}
}

func TestToValidationErrors_PassThroughAndForeign(t *testing.T) {
	own := ValidationErrors{*NewValidationError("option", "must be one of the answer options A, B, C or D", "E")}
	if got := ToValidationErrors(own); len(got) != 1 || got[0].Field != "option" {
		t.Errorf("Expected ValidationErrors to pass through unchanged, got %v", got)
	}

	if got := ToValidationErrors(fmt.Errorf("boom")); got != nil {
		t.Errorf("Expected nil for unrelated error, got %v", got)
	}
}
