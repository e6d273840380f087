package models

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{MultipleChoice, TrueFalse, ShortAnswer}

// IsValid reports whether t is a supported question type.
func (t QuestionType) IsValid() bool {
	for _, candidate := range QuestionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// Fixed answer texts of a true/false question.
const (
	TrueAnswerText  = "Waar"
	FalseAnswerText = "Onwaar"
)

const (
	DefaultPassingScore = 70
	DefaultPoints       = 1
	MinChoiceAnswers    = 2
)

// Quiz is the in-memory quiz being edited. Questions is an ordered collection:
// a question's order index is its position in the slice.
type Quiz struct {
	Title              string     `json:"title" validate:"max=200"`
	Description        string     `json:"description" validate:"max=2000"`
	PassingScore       int        `json:"passing_score" validate:"min=0,max=100"`
	TimeLimitMinutes   *int       `json:"time_limit_minutes" validate:"omitempty,min=1"`
	AllowRetakes       bool       `json:"allow_retakes"`
	ShowCorrectAnswers bool       `json:"show_correct_answers"`
	Questions          []Question `json:"questions" validate:"dive"`
}

type Question struct {
	ID          string          `json:"id"`
	Type        QuestionType    `json:"type" validate:"question_type"`
	Text        string          `json:"text"`
	Explanation string          `json:"explanation"`
	Points      int             `json:"points" validate:"min=1"`
	Difficulty  DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Answers     []Answer        `json:"answers"`
}

type Answer struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionID is the identity accessor used by ordered-collection helpers.
func QuestionID(q Question) string { return q.ID }

// AnswerID is the identity accessor used by ordered-collection helpers.
func AnswerID(a Answer) string { return a.ID }

// CorrectCount returns the number of answers marked correct.
func (q *Question) CorrectCount() int {
	count := 0
	for _, a := range q.Answers {
		if a.IsCorrect {
			count++
		}
	}
	return count
}

// AnswerIndex returns the position of the answer with the given id, or -1.
func (q *Question) AnswerIndex(answerID string) int {
	for i, a := range q.Answers {
		if a.ID == answerID {
			return i
		}
	}
	return -1
}

// QuestionIndex returns the position of the question with the given id, or -1.
func (q *Quiz) QuestionIndex(id string) int {
	for i, question := range q.Questions {
		if question.ID == id {
			return i
		}
	}
	return -1
}

// QuestionIDs returns the question ids in order.
func (q *Quiz) QuestionIDs() []string {
	out := make([]string, len(q.Questions))
	for i, question := range q.Questions {
		out[i] = question.ID
	}
	return out
}

// TotalPoints sums the points of all questions.
func (q *Quiz) TotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// NewQuiz returns an empty quiz with default settings.
func NewQuiz() *Quiz {
	return &Quiz{
		PassingScore:       DefaultPassingScore,
		ShowCorrectAnswers: true,
		Questions:          []Question{},
	}
}
