package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Records below are the backend's view of the data. Their ids are assigned
// by the store and are never the local ids used while editing.

type QuizRecord struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Title        string         `json:"title" gorm:"not null;size:200;index"`
	Description  string         `json:"description" gorm:"type:text"`
	PassingScore int            `json:"passing_score" gorm:"not null;default:70"`
	Settings     datatypes.JSON `json:"settings" gorm:"type:jsonb"` // QuizSettings
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []QuestionRecord `json:"questions" gorm:"foreignKey:QuizID"`
}

func (QuizRecord) TableName() string {
	return "quizzes"
}

// QuizSettings is stored as JSON on the quiz row.
type QuizSettings struct {
	TimeLimitMinutes   *int `json:"time_limit_minutes,omitempty"`
	AllowRetakes       bool `json:"allow_retakes"`
	ShowCorrectAnswers bool `json:"show_correct_answers"`
}

type QuestionRecord struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	QuizID        uint            `json:"quiz_id" gorm:"not null;index"`
	QuestionText  string          `json:"question_text" gorm:"type:text;not null"`
	QuestionType  QuestionType    `json:"question_type" gorm:"size:32;not null"`
	CorrectAnswer string          `json:"correct_answer" gorm:"type:text"`
	Explanation   string          `json:"explanation" gorm:"type:text"`
	Difficulty    DifficultyLevel `json:"difficulty" gorm:"size:16;default:medium"`
	Points        int             `json:"points" gorm:"not null;default:1"`
	OrderIndex    int             `json:"order" gorm:"column:order_index;not null;default:0;index"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Answers []AnswerRecord `json:"options" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (QuestionRecord) TableName() string {
	return "quiz_questions"
}

type AnswerRecord struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"size:500;not null"`
	IsCorrect  bool   `json:"is_correct" gorm:"not null;default:false"`
	OrderIndex int    `json:"order" gorm:"column:order_index;not null;default:0"`
}

func (AnswerRecord) TableName() string {
	return "quiz_answers"
}

// Course hierarchy rows only matter here for their position; their metadata
// is maintained elsewhere.

type CourseRecord struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Title      string `json:"title" gorm:"size:200"`
	OrderIndex int    `json:"order" gorm:"column:order_index;not null;default:0"`
}

func (CourseRecord) TableName() string {
	return "courses"
}

type ModuleRecord struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CourseID   uint   `json:"course_id" gorm:"index"`
	Title      string `json:"title" gorm:"size:200"`
	OrderIndex int    `json:"order" gorm:"column:order_index;not null;default:0"`
}

func (ModuleRecord) TableName() string {
	return "course_modules"
}

type LessonRecord struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ModuleID   uint   `json:"module_id" gorm:"index"`
	Title      string `json:"title" gorm:"size:200"`
	OrderIndex int    `json:"order" gorm:"column:order_index;not null;default:0"`
}

func (LessonRecord) TableName() string {
	return "lessons"
}

// Collection names an ordered collection whose positions can be written.
type Collection string

const (
	CollectionCourses   Collection = "courses"
	CollectionModules   Collection = "modules"
	CollectionLessons   Collection = "lessons"
	CollectionQuestions Collection = "questions"
	CollectionAnswers   Collection = "answers"
)

// ParseCollection validates a collection name coming from the wire.
func ParseCollection(value string) (Collection, error) {
	switch c := Collection(value); c {
	case CollectionCourses, CollectionModules, CollectionLessons, CollectionQuestions, CollectionAnswers:
		return c, nil
	default:
		return "", fmt.Errorf("unknown collection %q", value)
	}
}

// Model returns the gorm model backing the collection.
func (c Collection) Model() interface{} {
	switch c {
	case CollectionCourses:
		return &CourseRecord{}
	case CollectionModules:
		return &ModuleRecord{}
	case CollectionLessons:
		return &LessonRecord{}
	case CollectionQuestions:
		return &QuestionRecord{}
	case CollectionAnswers:
		return &AnswerRecord{}
	default:
		return nil
	}
}
