package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name           string
		total, correct int
		want           ResultSummary
	}{
		{"empty", 0, 0, ResultSummary{Message: MessageKeepStudying}},
		{"perfect", 10, 10, ResultSummary{Total: 10, Correct: 10, Percentage: 100, Message: MessageExcellent}},
		{"eighty", 5, 4, ResultSummary{Total: 5, Correct: 4, Wrong: 1, Percentage: 80, Message: MessageExcellent}},
		{"rounded up", 3, 2, ResultSummary{Total: 3, Correct: 2, Wrong: 1, Percentage: 67, Message: MessageVeryGood}},
		{"forty", 10, 4, ResultSummary{Total: 10, Correct: 4, Wrong: 6, Percentage: 40, Message: MessageGoodJob}},
		{"low", 10, 1, ResultSummary{Total: 10, Correct: 1, Wrong: 9, Percentage: 10, Message: MessageKeepStudying}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.total, tt.correct))
		})
	}
}

func TestPerformanceBand(t *testing.T) {
	assert.Equal(t, BandGood, PerformanceBand(70))
	assert.Equal(t, BandGood, PerformanceBand(98.5))
	assert.Equal(t, BandFair, PerformanceBand(50))
	assert.Equal(t, BandFair, PerformanceBand(69.9))
	assert.Equal(t, BandPoor, PerformanceBand(49.99))
	assert.Equal(t, BandPoor, PerformanceBand(0))
}
