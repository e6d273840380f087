package services

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestImportExportService() ImportExportService {
	return NewImportExportService(validator.New().Question(), testLogger())
}

func TestImportExportService_ImportCSV(t *testing.T) {
	csvData := strings.Join([]string{
		"question_type,question_text,option_1,option_2,option_3,correct_answer,points,difficulty,explanation",
		"multiple_choice,Capital of France?,Paris,Lyon,Nice,A,2,easy,It is Paris",
		"true_false,The sun is a star,,,,true,,,",
		"short_answer,Explain gravity,,,,,,,",
		",,,,,,,,",
		"multiple_choice,Only one option,Yes,,,Yes,,,",
		"essay,Write a poem,,,,,,,",
	}, "\n")

	session := NewEditorSession("s1", nil)
	result, err := newTestImportExportService().ImportQuestions(context.Background(), session, strings.NewReader(csvData), "questions.csv")
	require.NoError(t, err)

	assert.Equal(t, models.ImportPartial, result.Status)
	assert.Equal(t, "questions.csv", result.FileName)
	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 3, result.ImportedCount)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Len(t, result.QuestionIDs, 3)

	rows := map[int]bool{}
	for _, rowErr := range result.Errors {
		rows[rowErr.Row] = true
	}
	assert.True(t, rows[6])
	assert.True(t, rows[7])

	quiz := session.Quiz()
	require.Len(t, quiz.Questions, 3)

	mc := quiz.Questions[0]
	assert.Equal(t, models.MultipleChoice, mc.Type)
	assert.Equal(t, 2, mc.Points)
	assert.Equal(t, models.DifficultyEasy, mc.Difficulty)
	require.Len(t, mc.Answers, 3)
	assert.True(t, mc.Answers[0].IsCorrect)
	assert.Equal(t, 1, mc.CorrectCount())

	tf := quiz.Questions[1]
	assert.Equal(t, models.TrueFalse, tf.Type)
	assert.True(t, tf.Answers[0].IsCorrect)

	assert.Equal(t, models.ShortAnswer, quiz.Questions[2].Type)
}

func TestImportExportService_ImportRejectsBadFiles(t *testing.T) {
	service := newTestImportExportService()
	session := NewEditorSession("s1", nil)

	_, err := service.ImportQuestions(context.Background(), session, strings.NewReader("x"), "questions.pdf")
	assert.True(t, IsValidation(err))

	_, err = service.ImportQuestions(context.Background(), session, strings.NewReader("question_type,question_text\n"), "questions.csv")
	assert.True(t, IsValidation(err))

	_, err = service.ImportQuestions(context.Background(), session, strings.NewReader("question_type,points\nshort_answer,1\n"), "questions.csv")
	assert.True(t, IsValidation(err))

	assert.Empty(t, session.Quiz().Questions)
}

func TestImportExportService_ImportAllRowsInvalid(t *testing.T) {
	session := NewEditorSession("s1", nil)
	result, err := newTestImportExportService().ImportQuestionsFromCSV(context.Background(), session,
		strings.NewReader("question_type,question_text\nessay,Nope\n"))
	require.NoError(t, err)

	assert.Equal(t, models.ImportValidationFailed, result.Status)
	assert.Equal(t, 0, result.ImportedCount)
	assert.Empty(t, result.QuestionIDs)
}

func TestImportExportService_ExcelRoundTrip(t *testing.T) {
	service := newTestImportExportService()

	source := NewEditorSession("source", nil)
	source.AppendQuestions([]models.Question{
		{Type: models.MultipleChoice, Text: "Largest planet?", Points: 3, Difficulty: models.DifficultyHard, Answers: []models.Answer{
			{Text: "Mars"}, {Text: "Jupiter", IsCorrect: true}, {Text: "Venus"},
		}},
		{Type: models.TrueFalse, Text: "Pluto is a planet", Points: 1, Difficulty: models.DifficultyEasy, Answers: []models.Answer{
			{Text: models.TrueAnswerText}, {Text: models.FalseAnswerText, IsCorrect: true},
		}},
		{Type: models.ShortAnswer, Text: "Name a moon", Points: 1, Difficulty: models.DifficultyMedium, Explanation: "Any moon", Answers: []models.Answer{}},
	})

	data, err := service.ExportQuestionsToExcel(context.Background(), source)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{models.SheetQuestions}, f.GetSheetList())
	require.NoError(t, f.Close())

	target := NewEditorSession("target", nil)
	result, err := service.ImportQuestions(context.Background(), target, bytes.NewReader(data), "export.xlsx")
	require.NoError(t, err)
	assert.Equal(t, models.ImportCompleted, result.Status)
	assert.Equal(t, 3, result.ImportedCount)

	want := source.Quiz().Questions
	got := target.Quiz().Questions
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.Equal(t, want[i].Points, got[i].Points)
		assert.Equal(t, want[i].Difficulty, got[i].Difficulty)
		assert.Equal(t, want[i].Explanation, got[i].Explanation)
		require.Len(t, got[i].Answers, len(want[i].Answers))
		for j := range want[i].Answers {
			assert.Equal(t, want[i].Answers[j].Text, got[i].Answers[j].Text)
			assert.Equal(t, want[i].Answers[j].IsCorrect, got[i].Answers[j].IsCorrect)
		}
	}
}

func TestImportExportService_ExportCSV(t *testing.T) {
	session := NewEditorSession("s1", nil)
	question := session.AddQuestion()
	text := "Pick one"
	session.UpdateQuestion(question.ID, models.QuestionPatch{Text: &text})

	data, err := newTestImportExportService().ExportQuestionsToCSV(context.Background(), session)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "question_type,question_text,option_1"))
	assert.True(t, strings.HasPrefix(lines[1], "multiple_choice,Pick one"))
}

func TestImportExportService_ExportKeepsExtraOptions(t *testing.T) {
	service := newTestImportExportService()

	answers := make([]models.Answer, 0, 8)
	for i := 1; i <= 8; i++ {
		answers = append(answers, models.Answer{Text: "choice " + strconv.Itoa(i), IsCorrect: i == 8})
	}
	source := NewEditorSession("source", nil)
	source.AppendQuestions([]models.Question{
		{Type: models.MultipleChoice, Text: "Pick the last", Points: 1, Answers: answers},
		{Type: models.ShortAnswer, Text: "Why?", Points: 1, Answers: []models.Answer{}},
	})

	data, err := service.ExportQuestionsToCSV(context.Background(), source)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "option_8,correct_answer")
	assert.Contains(t, lines[1], "choice 7,choice 8,choice 8")

	target := NewEditorSession("target", nil)
	result, err := service.ImportQuestions(context.Background(), target, bytes.NewReader(data), "export.csv")
	require.NoError(t, err)
	assert.Equal(t, models.ImportCompleted, result.Status)

	imported := target.Quiz().Questions
	require.Len(t, imported, 2)
	require.Len(t, imported[0].Answers, 8)
	assert.Equal(t, "choice 8", imported[0].Answers[7].Text)
	assert.True(t, imported[0].Answers[7].IsCorrect)
}

func TestResolveOptionReference(t *testing.T) {
	options := []models.GeneratedOption{{Text: "Red"}, {Text: "Blue"}, {Text: "C"}}

	assert.Equal(t, "Blue", resolveOptionReference(options, "b"))
	assert.Equal(t, "Blue", resolveOptionReference(options, "2"))
	assert.Equal(t, "C", resolveOptionReference(options, "C"))
	assert.Equal(t, "red", resolveOptionReference(options, "red"))
	assert.Equal(t, "Z", resolveOptionReference(options, "Z"))
}
