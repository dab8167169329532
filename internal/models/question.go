package models

// Option keys a question can carry. C and D are optional.
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
)

// Question is a read-only record supplied by the external question bank.
type Question struct {
	ID            uint    `json:"id"`
	Subject       string  `json:"subject"`
	Topic         string  `json:"topic"`
	Prompt        string  `json:"prompt"`
	OptionA       string  `json:"option_a"`
	OptionB       string  `json:"option_b"`
	OptionC       *string `json:"option_c"`
	OptionD       *string `json:"option_d"`
	CorrectOption string  `json:"correct_option"`
	Explanation   string  `json:"explanation"`
}

// Option is one selectable alternative of a question.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Options returns the alternatives present on the question, in key order.
func (q *Question) Options() []Option {
	options := []Option{
		{Key: OptionA, Text: q.OptionA},
		{Key: OptionB, Text: q.OptionB},
	}
	if q.OptionC != nil && *q.OptionC != "" {
		options = append(options, Option{Key: OptionC, Text: *q.OptionC})
	}
	if q.OptionD != nil && *q.OptionD != "" {
		options = append(options, Option{Key: OptionD, Text: *q.OptionD})
	}
	return options
}

// HasOption reports whether key names one of the question's alternatives.
func (q *Question) HasOption(key string) bool {
	for _, option := range q.Options() {
		if option.Key == key {
			return true
		}
	}
	return false
}

// IsCorrect reports whether the chosen option matches the answer key.
func (q *Question) IsCorrect(chosen string) bool {
	return chosen == q.CorrectOption
}
