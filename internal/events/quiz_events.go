package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events the quiz builder emits
type EventType string

const (
	// Ordering events
	EventCollectionReordered     EventType = "collection.reordered"
	EventCollectionReorderFailed EventType = "collection.reorder_failed"

	// Quiz events
	EventQuizSaved      EventType = "quiz.saved"
	EventQuizSaveFailed EventType = "quiz.save_failed"
)

const (
	eventSource  = "quiz-builder"
	eventVersion = "1.0"
)

// Event is the envelope shared by all published events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Ordering event payloads

type CollectionReorderedEvent struct {
	Collection string `json:"collection"`
	ItemIDs    []uint `json:"item_ids"`
}

type CollectionReorderFailedEvent struct {
	Collection string `json:"collection"`
	FailedID   uint   `json:"failed_id"`
	FailedAt   int    `json:"failed_at"`
	Written    int    `json:"written"`
	Error      string `json:"error"`
}

// Quiz event payloads

type QuizSavedEvent struct {
	QuizID        uint   `json:"quiz_id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	Created       bool   `json:"created"`
}

type QuizSaveFailedEvent struct {
	QuizID   uint   `json:"quiz_id,omitempty"`
	Title    string `json:"title"`
	Saved    int    `json:"saved"`
	FailedAt int    `json:"failed_at"`
	Error    string `json:"error"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewCollectionReorderedEvent(collection string, itemIDs []uint) *Event {
	return newEvent(EventCollectionReordered, CollectionReorderedEvent{
		Collection: collection,
		ItemIDs:    itemIDs,
	})
}

func NewCollectionReorderFailedEvent(collection string, failedID uint, failedAt, written int, err error) *Event {
	return newEvent(EventCollectionReorderFailed, CollectionReorderFailedEvent{
		Collection: collection,
		FailedID:   failedID,
		FailedAt:   failedAt,
		Written:    written,
		Error:      err.Error(),
	})
}

func NewQuizSavedEvent(quizID uint, title string, questionCount int, created bool) *Event {
	return newEvent(EventQuizSaved, QuizSavedEvent{
		QuizID:        quizID,
		Title:         title,
		QuestionCount: questionCount,
		Created:       created,
	})
}

func NewQuizSaveFailedEvent(quizID uint, title string, saved, failedAt int, err error) *Event {
	return newEvent(EventQuizSaveFailed, QuizSaveFailedEvent{
		QuizID:   quizID,
		Title:    title,
		Saved:    saved,
		FailedAt: failedAt,
		Error:    err.Error(),
	})
}

// GenerateEventID returns a unique event id
func GenerateEventID() string {
	return uuid.NewString()
}
