package quiz

import "math"

const (
	MessageExcellent    = "excellent"
	MessageVeryGood     = "very_good"
	MessageGoodJob      = "good_job"
	MessageKeepStudying = "keep_studying"
)

const (
	BandGood = "good"
	BandFair = "fair"
	BandPoor = "poor"
)

type ResultSummary struct {
	Total      int    `json:"total"`
	Correct    int    `json:"correct"`
	Wrong      int    `json:"wrong"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// Summarize builds the end-of-session result card.
func Summarize(total, correct int) ResultSummary {
	percentage := 0
	if total > 0 {
		percentage = int(math.Round(100 * float64(correct) / float64(total)))
	}
	return ResultSummary{
		Total:      total,
		Correct:    correct,
		Wrong:      total - correct,
		Percentage: percentage,
		Message:    ResultMessage(percentage),
	}
}

func ResultMessage(percentage int) string {
	switch {
	case percentage >= 80:
		return MessageExcellent
	case percentage >= 60:
		return MessageVeryGood
	case percentage >= 40:
		return MessageGoodJob
	default:
		return MessageKeepStudying
	}
}

// PerformanceBand grades an accuracy rate for the statistics view.
func PerformanceBand(accuracy float64) string {
	switch {
	case accuracy >= 70:
		return BandGood
	case accuracy >= 50:
		return BandFair
	default:
		return BandPoor
	}
}
