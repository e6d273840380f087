package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/validator"
)

// Generator proposes questions for a topic. Its output is untrusted.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (json.RawMessage, error)
}

// GenerationResult reports what a generation merged into the session
type GenerationResult struct {
	Kind        models.GeneratedKind `json:"kind"`
	QuestionIDs []string             `json:"question_ids,omitempty"`
	Text        string               `json:"text,omitempty"`
}

// GenerationService asks the generator for questions and merges the valid
// result into an editor session
type GenerationService struct {
	generator Generator
	validator *validator.QuestionValidator
	logger    *ServiceLogger
}

func NewGenerationService(generator Generator, questionValidator *validator.QuestionValidator, logger *slog.Logger) *GenerationService {
	return &GenerationService{
		generator: generator,
		validator: questionValidator,
		logger:    NewServiceLogger(logger, LogConfig{Component: "generation"}),
	}
}

// Generate runs the generator and appends its questions to the session. The
// whole batch is rejected when any question fails validation. Free-form
// output is returned as text and merges nothing.
func (s *GenerationService) Generate(ctx context.Context, session *EditorSession, req models.GenerationRequest) (*GenerationResult, error) {
	if s.generator == nil {
		return nil, ErrGenerationUnavailable
	}
	op := s.logger.WithOperation(ctx, "generate_questions")

	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		err = fmt.Errorf("question generator failed: %w", err)
		op.LogResult(session.ID, err)
		return nil, err
	}

	payload, err := DecodeGenerated(raw)
	if err != nil {
		op.LogResult(session.ID, err)
		return nil, err
	}

	if payload.Kind == models.GeneratedKindFreeForm {
		op.LogResult(session.ID, nil)
		return &GenerationResult{Kind: payload.Kind, Text: payload.Text}, nil
	}

	if err := s.validator.ValidateBatch(payload.Questions); err != nil {
		op.LogResult(session.ID, err)
		return nil, err
	}

	questions := make([]models.Question, len(payload.Questions))
	for i := range payload.Questions {
		questions[i] = ToQuestion(&payload.Questions[i], req.Difficulty)
	}
	ids := session.AppendQuestions(questions)

	op.LogResult(session.ID, nil)
	return &GenerationResult{Kind: models.GeneratedKindQuestions, QuestionIDs: ids}, nil
}

// DecodeGenerated sorts raw generator output into the tagged variant. A
// question list may arrive bare, wrapped in {"questions": [...]}, or as a
// single question object; anything else is free-form text.
func DecodeGenerated(raw json.RawMessage) (models.GeneratedPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return models.GeneratedPayload{}, fmt.Errorf("%w: empty generator output", ErrBadRequest)
	}

	switch trimmed[0] {
	case '[':
		var questions []models.GeneratedQuestion
		if err := json.Unmarshal(trimmed, &questions); err != nil {
			return models.GeneratedPayload{}, fmt.Errorf("failed to decode generated questions: %w", err)
		}
		return questionsPayload(questions), nil

	case '{':
		var envelope struct {
			Kind      models.GeneratedKind       `json:"kind"`
			Questions []models.GeneratedQuestion `json:"questions"`
			Text      string                     `json:"text"`
			Question  string                     `json:"question_text"`
			Alias     string                     `json:"question"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return models.GeneratedPayload{}, fmt.Errorf("failed to decode generator output: %w", err)
		}
		switch {
		case envelope.Kind == models.GeneratedKindFreeForm:
			return models.GeneratedPayload{Kind: models.GeneratedKindFreeForm, Text: envelope.Text}, nil
		case envelope.Questions != nil:
			return questionsPayload(envelope.Questions), nil
		case envelope.Question != "" || envelope.Alias != "":
			var question models.GeneratedQuestion
			if err := json.Unmarshal(trimmed, &question); err != nil {
				return models.GeneratedPayload{}, fmt.Errorf("failed to decode generated question: %w", err)
			}
			return questionsPayload([]models.GeneratedQuestion{question}), nil
		default:
			return models.GeneratedPayload{Kind: models.GeneratedKindFreeForm, Text: envelope.Text}, nil
		}

	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return models.GeneratedPayload{}, fmt.Errorf("failed to decode generator text: %w", err)
		}
		return models.GeneratedPayload{Kind: models.GeneratedKindFreeForm, Text: text}, nil

	default:
		return models.GeneratedPayload{Kind: models.GeneratedKindFreeForm, Text: string(trimmed)}, nil
	}
}

func questionsPayload(questions []models.GeneratedQuestion) models.GeneratedPayload {
	for i := range questions {
		if questions[i].QuestionType == "" {
			questions[i].QuestionType = InferQuestionType(&questions[i])
		}
	}
	return models.GeneratedPayload{Kind: models.GeneratedKindQuestions, Questions: questions}
}

// InferQuestionType picks a type for a question that arrived without one:
// options mean multiple choice, a true/false answer means true/false, and
// anything else is a short answer.
func InferQuestionType(question *models.GeneratedQuestion) models.QuestionType {
	if len(question.Options) > 0 {
		return models.MultipleChoice
	}
	if _, ok := validator.TrueFalseValue(question); ok {
		return models.TrueFalse
	}
	return models.ShortAnswer
}

// ToQuestion maps a validated generated question into the editing model.
// Multiple choice keeps only the first correct option so the question starts
// out with exactly one correct answer. Ids are left empty.
func ToQuestion(generated *models.GeneratedQuestion, fallback models.DifficultyLevel) models.Question {
	question := models.Question{
		Type:        generated.QuestionType,
		Text:        strings.TrimSpace(generated.QuestionText),
		Explanation: generated.Explanation,
		Points:      pointsOrDefault(generated.Points),
		Difficulty:  generated.Difficulty,
		Answers:     []models.Answer{},
	}
	if question.Difficulty == "" {
		question.Difficulty = difficultyOrDefault(fallback)
	}

	switch generated.QuestionType {
	case models.MultipleChoice:
		correct := -1
		if indexes := validator.CorrectOptionIndexes(generated); len(indexes) > 0 {
			correct = indexes[0]
		}
		for i, option := range generated.Options {
			question.Answers = append(question.Answers, models.Answer{
				Text:      strings.TrimSpace(option.Text),
				IsCorrect: i == correct,
			})
		}
	case models.TrueFalse:
		value, _ := validator.TrueFalseValue(generated)
		question.Answers = []models.Answer{
			{Text: models.TrueAnswerText, IsCorrect: value},
			{Text: models.FalseAnswerText, IsCorrect: !value},
		}
	}
	return question
}
