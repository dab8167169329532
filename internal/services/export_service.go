package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService renders a user's statistics as an xlsx workbook.
type ExportService interface {
	ExportPerformance(ctx context.Context, userID string) ([]byte, error)
}

type exportService struct {
	performance PerformanceService
	logger      *ServiceLogger
}

func NewExportService(performance PerformanceService, logger *slog.Logger) ExportService {
	return &exportService{
		performance: performance,
		logger:      NewServiceLogger(logger, LogConfig{Service: "practice", Component: "export"}),
	}
}

func (s *exportService) ExportPerformance(ctx context.Context, userID string) ([]byte, error) {
	op := s.logger.WithOperation(ctx, "export_performance", userID)

	overview, err := s.performance.GetOverview(ctx, userID)
	if err != nil {
		op.LogResult(userID, "performance", err)
		return nil, err
	}
	stats, err := s.performance.ListStats(ctx, userID)
	if err != nil {
		op.LogResult(userID, "performance", err)
		return nil, err
	}

	data, err := buildPerformanceWorkbook(overview, stats)
	op.LogResult(userID, "performance", err)
	return data, err
}

func buildPerformanceWorkbook(overview *PerformanceOverview, stats []*models.TopicStat) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summary := [][]interface{}{
		{"Total Attempts", overview.TotalAttempts},
		{"Correct Attempts", overview.TotalCorrect},
		{"Overall Accuracy (%)", roundRate(overview.OverallAccuracy)},
		{"Completed Sessions", overview.CompletedSessions},
		{"Generated At", overview.GeneratedAt.Format(exportTimeLayout)},
	}
	if err := writeSheet(f, "Overview", []string{"Metric", "Value"}, summary); err != nil {
		return nil, err
	}

	subjects := make([][]interface{}, 0, len(overview.Subjects))
	for _, subject := range overview.Subjects {
		subjects = append(subjects, []interface{}{
			subject.Subject,
			subject.TotalAttempts,
			subject.CorrectAttempts,
			roundRate(subject.AccuracyRate),
			subject.Band,
		})
	}
	if err := writeSheet(f, "Subjects", []string{"Subject", "Attempts", "Correct", "Accuracy (%)", "Band"}, subjects); err != nil {
		return nil, err
	}

	rows := make([][]interface{}, 0, len(stats))
	for _, stat := range stats {
		topic := stat.Topic
		if topic == "" {
			topic = "(whole subject)"
		}
		rows = append(rows, []interface{}{
			stat.Subject,
			topic,
			stat.TotalAttempts,
			stat.CorrectAttempts,
			roundRate(stat.AccuracyRate),
			stat.LastAttemptAt.Format(exportTimeLayout),
		})
	}
	if err := writeSheet(f, "Topics", []string{"Subject", "Topic", "Attempts", "Correct", "Accuracy (%)", "Last Attempt"}, rows); err != nil {
		return nil, err
	}

	sessions := make([][]interface{}, 0, len(overview.RecentSessions))
	for _, session := range overview.RecentSessions {
		sessions = append(sessions, []interface{}{
			session.ID,
			string(session.Kind),
			session.Subject,
			session.TotalQuestions,
			session.CorrectAnswers,
			session.Percentage,
			session.CompletedAt.Format(exportTimeLayout),
		})
	}
	if err := writeSheet(f, "Recent Sessions", []string{"Session", "Type", "Subject", "Questions", "Correct", "Score (%)", "Completed At"}, sessions); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if index, err := f.GetSheetIndex("Overview"); err == nil {
		f.SetActiveSheet(index)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create Excel sheet %s: %w", name, err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, name, err)
		}
	}
	return nil
}

func roundRate(rate float64) float64 {
	return float64(int(rate*100+0.5)) / 100
}
