package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
	"github.com/xuri/excelize/v2"
)

// ImportExportService moves questions between spreadsheets and an editor
// session. Imported rows go through the same checks as generated questions.
type ImportExportService interface {
	// Import operations
	ImportQuestions(ctx context.Context, session *EditorSession, reader io.Reader, filename string) (*models.ImportResult, error)
	ImportQuestionsFromCSV(ctx context.Context, session *EditorSession, reader io.Reader) (*models.ImportResult, error)
	ImportQuestionsFromExcel(ctx context.Context, session *EditorSession, reader io.Reader) (*models.ImportResult, error)

	// Export operations
	ExportQuestionsToCSV(ctx context.Context, session *EditorSession) ([]byte, error)
	ExportQuestionsToExcel(ctx context.Context, session *EditorSession) ([]byte, error)
}

type importExportService struct {
	validator *validator.QuestionValidator
	logger    *slog.Logger
}

func NewImportExportService(questionValidator *validator.QuestionValidator, logger *slog.Logger) ImportExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &importExportService{
		validator: questionValidator,
		logger:    logger,
	}
}

// sheetHeaders is the column layout written on export and expected on import
func sheetHeaders(options int) []string {
	headers := []string{models.ColumnType, models.ColumnText}
	for i := 1; i <= options; i++ {
		headers = append(headers, models.ColumnOptionPrefix+strconv.Itoa(i))
	}
	return append(headers,
		models.ColumnCorrectAnswer,
		models.ColumnPoints,
		models.ColumnDifficulty,
		models.ColumnExplanation,
	)
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportQuestions(ctx context.Context, session *EditorSession, reader io.Reader, filename string) (*models.ImportResult, error) {
	s.logger.Info("Starting file import", "filename", filename, "session_id", session.ID)

	var (
		result *models.ImportResult
		err    error
	)
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		result, err = s.ImportQuestionsFromCSV(ctx, session, reader)
	case ".xlsx":
		result, err = s.ImportQuestionsFromExcel(ctx, session, reader)
	default:
		return nil, inputError("file", "unsupported file format", ext)
	}
	if err != nil {
		return nil, err
	}
	result.FileName = filename
	return result, nil
}

func (s *importExportService) ImportQuestionsFromCSV(ctx context.Context, session *EditorSession, reader io.Reader) (*models.ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return s.importRows(ctx, session, records, "CSV")
}

func (s *importExportService) ImportQuestionsFromExcel(ctx context.Context, session *EditorSession, reader io.Reader) (*models.ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := models.SheetQuestions
	if index, err := f.GetSheetIndex(sheetName); err != nil || index < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, inputError("file", "Excel file has no sheets", nil)
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return s.importRows(ctx, session, rows, "Excel")
}

func (s *importExportService) importRows(ctx context.Context, session *EditorSession, rows [][]string, format string) (*models.ImportResult, error) {
	if len(rows) < 2 {
		return nil, inputError("file", fmt.Sprintf("%s must have header row and at least one data row", format), len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{models.ColumnType, models.ColumnText} {
		if _, exists := headerMap[col]; !exists {
			return nil, inputError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &models.ImportResult{
		TotalRows:   len(rows) - 1,
		QuestionIDs: []string{},
	}

	var questions []models.Question
	for rowIndex, row := range rows[1:] {
		rowNum := rowIndex + 2
		if blankRow(row) {
			result.TotalRows--
			continue
		}

		generated := parseQuestionRow(row, headerMap)
		if err := s.validator.ValidateGenerated(&generated); err != nil {
			result.Errors = append(result.Errors, rowErrors(rowNum, err)...)
			result.ErrorCount++
			continue
		}
		questions = append(questions, ToQuestion(&generated, models.DifficultyMedium))
	}

	result.QuestionIDs = append(result.QuestionIDs, session.AppendQuestions(questions)...)
	result.ImportedCount = len(questions)

	switch {
	case result.ErrorCount == 0:
		result.Status = models.ImportCompleted
	case result.ImportedCount > 0:
		result.Status = models.ImportPartial
	default:
		result.Status = models.ImportValidationFailed
	}

	s.logger.InfoContext(ctx, format+" import completed",
		"session_id", session.ID,
		"total_rows", result.TotalRows,
		"imported_count", result.ImportedCount,
		"error_count", result.ErrorCount)

	return result, nil
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportQuestionsToCSV(ctx context.Context, session *EditorSession) ([]byte, error) {
	quiz := session.Quiz()

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	options := optionColumns(quiz.Questions)
	if err := writer.Write(sheetHeaders(options)); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, question := range quiz.Questions {
		if err := writer.Write(questionToRow(question, options)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.InfoContext(ctx, "CSV export completed", "session_id", session.ID, "questions", len(quiz.Questions))
	return buf.Bytes(), nil
}

func (s *importExportService) ExportQuestionsToExcel(ctx context.Context, session *EditorSession) ([]byte, error) {
	quiz := session.Quiz()

	f := excelize.NewFile()
	defer f.Close()

	sheetName := models.SheetQuestions
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	options := optionColumns(quiz.Questions)
	if err := writeSheetRow(f, sheetName, 1, sheetHeaders(options)); err != nil {
		return nil, err
	}
	for rowIndex, question := range quiz.Questions {
		if err := writeSheetRow(f, sheetName, rowIndex+2, questionToRow(question, options)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.InfoContext(ctx, "Excel export completed", "session_id", session.ID, "questions", len(quiz.Questions))
	return buf.Bytes(), nil
}

// ===== HELPER FUNCTIONS =====

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write Excel row %d: %w", row, err)
	}
	return nil
}

func parseQuestionRow(record []string, headerMap map[string]int) models.GeneratedQuestion {
	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(record) {
			return strings.TrimSpace(record[index])
		}
		return ""
	}

	question := models.GeneratedQuestion{
		QuestionType:  models.QuestionType(strings.ToLower(getColumn(models.ColumnType))),
		QuestionText:  getColumn(models.ColumnText),
		CorrectAnswer: getColumn(models.ColumnCorrectAnswer),
		Explanation:   getColumn(models.ColumnExplanation),
		Difficulty:    models.DifficultyLevel(strings.ToLower(getColumn(models.ColumnDifficulty))),
	}

	if points := getColumn(models.ColumnPoints); points != "" {
		if p, err := strconv.Atoi(points); err == nil {
			question.Points = p
		} else {
			question.Points = -1
		}
	}

	for i := 1; ; i++ {
		column := models.ColumnOptionPrefix + strconv.Itoa(i)
		if _, exists := headerMap[column]; !exists && i > models.SheetOptionColumns {
			break
		}
		if text := getColumn(column); text != "" {
			question.Options = append(question.Options, models.GeneratedOption{Text: text})
		}
	}

	if question.QuestionType == models.MultipleChoice {
		question.CorrectAnswer = resolveOptionReference(question.Options, question.CorrectAnswer)
	}
	return question
}

// resolveOptionReference turns a letter (A..F) or a number (1..6) naming an
// option into that option's text. Text that already matches an option wins.
func resolveOptionReference(options []models.GeneratedOption, reference string) string {
	for _, option := range options {
		if strings.EqualFold(option.Text, reference) {
			return reference
		}
	}

	index := -1
	if len(reference) == 1 {
		switch c := strings.ToUpper(reference)[0]; {
		case c >= 'A' && c <= 'Z':
			index = int(c - 'A')
		case c >= '1' && c <= '9':
			index = int(c - '1')
		}
	}
	if index >= 0 && index < len(options) {
		return options[index].Text
	}
	return reference
}

// optionColumns is the number of option columns needed so that no
// multiple-choice answer is dropped on export
func optionColumns(questions []models.Question) int {
	columns := models.SheetOptionColumns
	for _, question := range questions {
		if question.Type == models.MultipleChoice && len(question.Answers) > columns {
			columns = len(question.Answers)
		}
	}
	return columns
}

func questionToRow(question models.Question, options int) []string {
	row := make([]string, 0, options+6)
	row = append(row, string(question.Type), question.Text)

	correct := ""
	for i := 0; i < options; i++ {
		if question.Type != models.MultipleChoice || i >= len(question.Answers) {
			row = append(row, "")
			continue
		}
		row = append(row, question.Answers[i].Text)
	}
	for _, answer := range question.Answers {
		if answer.IsCorrect {
			correct = answer.Text
			break
		}
	}
	if question.Type == models.TrueFalse {
		correct = strconv.FormatBool(correct == models.TrueAnswerText)
	}

	return append(row,
		correct,
		strconv.Itoa(question.Points),
		string(question.Difficulty),
		question.Explanation,
	)
}

func rowErrors(rowNum int, err error) []models.ImportValidationError {
	var validationErrs ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []models.ImportValidationError{{Row: rowNum, Message: err.Error(), Code: "invalid"}}
	}

	out := make([]models.ImportValidationError, 0, len(validationErrs))
	for _, ve := range validationErrs {
		out = append(out, models.ImportValidationError{
			Row:     rowNum,
			Column:  ve.Field,
			Message: ve.Message,
			Value:   fmt.Sprint(ve.Value),
			Code:    ve.Rule,
		})
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func inputError(field, message string, value interface{}) error {
	return ValidationErrors{*NewValidationError(field, message, value)}
}
