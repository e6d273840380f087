package models

// QuestionPatch carries the fields of a partial question update. Nil fields
// are left untouched. The type is changed through a dedicated operation
// because it re-derives the answer set.
type QuestionPatch struct {
	Text        *string          `json:"text"`
	Explanation *string          `json:"explanation"`
	Points      *int             `json:"points" validate:"omitempty,min=1"`
	Difficulty  *DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
}

// Apply shallow-merges the patch into q.
func (p QuestionPatch) Apply(q *Question) {
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.Explanation != nil {
		q.Explanation = *p.Explanation
	}
	if p.Points != nil {
		q.Points = *p.Points
	}
	if p.Difficulty != nil {
		q.Difficulty = *p.Difficulty
	}
}

// AnswerPatch carries a partial answer update.
type AnswerPatch struct {
	Text *string `json:"text"`
}

// QuizPatch carries a partial update of the quiz-level fields.
type QuizPatch struct {
	Title              *string `json:"title" validate:"omitempty,max=200"`
	Description        *string `json:"description" validate:"omitempty,max=2000"`
	PassingScore       *int    `json:"passing_score" validate:"omitempty,min=0,max=100"`
	TimeLimitMinutes   *int    `json:"time_limit_minutes" validate:"omitempty,min=0"`
	AllowRetakes       *bool   `json:"allow_retakes"`
	ShowCorrectAnswers *bool   `json:"show_correct_answers"`
}

// Apply shallow-merges the patch into q. A zero time limit clears the limit.
func (p QuizPatch) Apply(q *Quiz) {
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	if p.PassingScore != nil {
		q.PassingScore = *p.PassingScore
	}
	if p.TimeLimitMinutes != nil {
		if *p.TimeLimitMinutes == 0 {
			q.TimeLimitMinutes = nil
		} else {
			limit := *p.TimeLimitMinutes
			q.TimeLimitMinutes = &limit
		}
	}
	if p.AllowRetakes != nil {
		q.AllowRetakes = *p.AllowRetakes
	}
	if p.ShowCorrectAnswers != nil {
		q.ShowCorrectAnswers = *p.ShowCorrectAnswers
	}
}
