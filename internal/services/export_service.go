package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/quantprep/challenge-service/internal/models"
	"github.com/quantprep/challenge-service/internal/repositories"
)

// ExportService produces admin downloads of challenge results.
type ExportService interface {
	ExportChallengeResultsToExcel(ctx context.Context, filters repositories.ChallengeFilters) ([]byte, error)
	ExportChallengeResultsToCSV(ctx context.Context, filters repositories.ChallengeFilters) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *ServiceLogger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: NewServiceLogger(logger, LogConfig{Service: "challenge-service", Component: "export"}),
	}
}

var exportHeaders = []string{
	"User ID", "Firm", "Mode", "Score", "Questions Completed",
	"Time Taken (s)", "Hints Used", "Lives Remaining", "Outcome", "Completed At",
}

func (s *exportService) ExportChallengeResultsToExcel(ctx context.Context, filters repositories.ChallengeFilters) ([]byte, error) {
	rows, _, err := s.repo.Challenge().List(ctx, filters)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Challenge Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, completion := range rows {
		for colIndex, value := range completionRow(completion) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) ExportChallengeResultsToCSV(ctx context.Context, filters repositories.ChallengeFilters) ([]byte, error) {
	rows, _, err := s.repo.Challenge().List(ctx, filters)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, completion := range rows {
		if err := w.Write(completionRow(completion)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return []byte(sb.String()), nil
}

func completionRow(c *models.ChallengeCompletion) []string {
	outcome := "succeeded"
	if c.Failed {
		outcome = "failed"
	}
	return []string{
		c.UserID,
		c.Firm,
		string(c.Mode),
		strconv.Itoa(c.Score),
		strconv.Itoa(c.QuestionsCompleted),
		strconv.Itoa(c.TimeTaken),
		strconv.Itoa(c.HintsUsed),
		strconv.Itoa(c.LivesRemaining),
		outcome,
		c.CreatedAt.UTC().Format(time.RFC3339),
	}
}
