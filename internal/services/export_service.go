package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

const resultsSheet = "Results"

var resultsHeader = []string{
	"Attempt ID", "Student", "Attempt #", "Started At", "Finished At",
	"Time Spent (min)", "Questions", "Correct", "Score (%)", "Status",
}

func (s *exportService) ExportExamResults(ctx context.Context, examID uint, teacherID string) ([]byte, string, error) {
	s.logger.Info("Exporting exam results",
		"exam_id", examID,
		"teacher_id", teacherID)

	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrExamNotFound
		}
		return nil, "", fmt.Errorf("failed to get exam: %w", err)
	}
	if exam.TeacherID != teacherID {
		return nil, "", NewPermissionError(teacherID, examID, "exam", "export", "not owned by teacher")
	}

	attempts, err := s.repo.Attempt().GetByExam(ctx, s.db, examID, repositories.AttemptFilters{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range resultsHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, title); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, attempt := range attempts {
		if err := s.writeAttemptRow(f, row+2, &attempt); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("%s_results_%s.xlsx",
		sanitizeFilename(exam.Title),
		time.Now().Format("2006-01-02"))

	s.logger.Info("Exam results exported",
		"exam_id", examID,
		"attempt_count", len(attempts),
		"filename", filename)

	return buf.Bytes(), filename, nil
}

func (s *exportService) writeAttemptRow(f *excelize.File, row int, attempt *models.ExamAttempt) error {
	studentName := attempt.StudentID
	if attempt.Student.FullName != "" {
		studentName = attempt.Student.FullName
	}

	finishedAt := ""
	if attempt.EndTime != nil {
		finishedAt = attempt.EndTime.Format(time.RFC3339)
	}

	status := "in progress"
	if attempt.IsCompleted {
		status = "completed"
	}

	values := []interface{}{
		attempt.ID,
		studentName,
		attempt.AttemptNumber,
		attempt.StartTime.Format(time.RFC3339),
		finishedAt,
		attempt.TimeSpentMinutes,
		attempt.TotalQuestions,
		attempt.CorrectAnswers,
		attempt.Score,
		status,
	}

	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "exam"
	}
	return b.String()
}
