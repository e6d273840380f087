package models

import "encoding/json"

// GeneratedKind discriminates the payloads returned by the question
// generator. Anything that is not a question list is free-form text.
type GeneratedKind string

const (
	GeneratedKindQuestions GeneratedKind = "questions"
	GeneratedKindFreeForm  GeneratedKind = "free_form"
)

// GeneratedPayload is the decoded generator output. Exactly one of Questions
// or Text is meaningful, depending on Kind.
type GeneratedPayload struct {
	Kind      GeneratedKind       `json:"kind"`
	Questions []GeneratedQuestion `json:"questions,omitempty"`
	Text      string              `json:"text,omitempty"`
}

// GeneratedQuestion is one question proposed by the generator or read from
// a spreadsheet row, before it is mapped into the editing model.
type GeneratedQuestion struct {
	QuestionText  string            `json:"question_text" validate:"required,max=2000"`
	QuestionType  QuestionType      `json:"question_type" validate:"required,question_type"`
	Options       []GeneratedOption `json:"options" validate:"omitempty,max=10,dive"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation" validate:"max=2000"`
	Difficulty    DifficultyLevel   `json:"difficulty" validate:"omitempty,difficulty_level"`
	Points        int               `json:"points" validate:"omitempty,min=1,max=100"`
}

// UnmarshalJSON also accepts the camelCase names some generators use
// (question, questionType, correctAnswer). Snake case wins when both appear.
func (q *GeneratedQuestion) UnmarshalJSON(data []byte) error {
	var wire struct {
		QuestionText      string            `json:"question_text"`
		Question          string            `json:"question"`
		QuestionType      QuestionType      `json:"question_type"`
		QuestionTypeCamel QuestionType      `json:"questionType"`
		Options           []GeneratedOption `json:"options"`
		CorrectAnswer     *string           `json:"correct_answer"`
		CorrectCamel      *string           `json:"correctAnswer"`
		Explanation       string            `json:"explanation"`
		Difficulty        DifficultyLevel   `json:"difficulty"`
		Points            int               `json:"points"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*q = GeneratedQuestion{
		QuestionText: firstNonEmpty(wire.QuestionText, wire.Question),
		QuestionType: QuestionType(firstNonEmpty(string(wire.QuestionType), string(wire.QuestionTypeCamel))),
		Options:      wire.Options,
		Explanation:  wire.Explanation,
		Difficulty:   wire.Difficulty,
		Points:       wire.Points,
	}
	switch {
	case wire.CorrectAnswer != nil:
		q.CorrectAnswer = *wire.CorrectAnswer
	case wire.CorrectCamel != nil:
		q.CorrectAnswer = *wire.CorrectCamel
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// GeneratedOption accepts both a bare string and an {text, is_correct}
// object on the wire.
type GeneratedOption struct {
	Text      string `json:"text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

func (o *GeneratedOption) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		o.Text = text
		o.IsCorrect = false
		return nil
	}

	type plain GeneratedOption
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*o = GeneratedOption(decoded)
	return nil
}

// GenerationRequest is what the editor asks the generator for.
type GenerationRequest struct {
	Topic         string          `json:"topic" binding:"required"`
	QuestionCount int             `json:"question_count" binding:"omitempty,min=1,max=50"`
	QuestionTypes []QuestionType  `json:"question_types,omitempty"`
	Difficulty    DifficultyLevel `json:"difficulty,omitempty"`
	Language      string          `json:"language,omitempty"`
}
