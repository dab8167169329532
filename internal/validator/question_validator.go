package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/practice-service/internal/models"
)

// QuestionValidator checks records coming from the question bank before they
// are put in front of a user.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion rejects questions that cannot be answered correctly.
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.ID == 0 {
		return fmt.Errorf("question id is required")
	}
	if strings.TrimSpace(question.Prompt) == "" {
		return fmt.Errorf("question %d: prompt is required", question.ID)
	}
	if strings.TrimSpace(question.OptionA) == "" || strings.TrimSpace(question.OptionB) == "" {
		return fmt.Errorf("question %d: options A and B are required", question.ID)
	}
	if question.OptionD != nil && *question.OptionD != "" && (question.OptionC == nil || *question.OptionC == "") {
		return fmt.Errorf("question %d: option D present without option C", question.ID)
	}
	if !question.HasOption(question.CorrectOption) {
		return fmt.Errorf("question %d: answer key %q is not one of its options", question.ID, question.CorrectOption)
	}
	return nil
}

// FilterValid splits questions into usable ones, in order, and the
// validation failures of the rest.
func (v *QuestionValidator) FilterValid(questions []models.Question) ([]models.Question, []error) {
	valid := make([]models.Question, 0, len(questions))
	var problems []error
	for i := range questions {
		if err := v.ValidateQuestion(&questions[i]); err != nil {
			problems = append(problems, err)
			continue
		}
		valid = append(valid, questions[i])
	}
	return valid, problems
}
