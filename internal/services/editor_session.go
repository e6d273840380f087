package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-builder/internal/models"
	"github.com/SAP-F-2025/quiz-builder/internal/reorder"
	"github.com/SAP-F-2025/quiz-builder/internal/repositories"
)

// Confirmer asks the author to confirm a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Notifier surfaces non-fatal warnings to the author
type Notifier interface {
	Warn(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Warn(ctx context.Context, message string) {
	f(ctx, message)
}

type noopNotifier struct{}

func (noopNotifier) Warn(context.Context, string) {}

// PointerGesture is a recorded pointer drag: where it was pressed, where
// the pointer went and what it was over on release.
type PointerGesture struct {
	MovedID  string  `json:"moved_id" binding:"required"`
	StartX   float64 `json:"start_x"`
	StartY   float64 `json:"start_y"`
	EndX     float64 `json:"end_x"`
	EndY     float64 `json:"end_y"`
	TargetID string  `json:"target_id"`
}

// EditorSession holds one quiz while it is being edited. It is not safe for
// concurrent use; SessionStore serialises access to it.
type EditorSession struct {
	ID        string
	QuizID    uint
	CreatedAt time.Time
	UpdatedAt time.Time

	quiz          *models.Quiz
	expanded      map[string]bool
	ids           LocalIDAllocator
	questionIDs   *IDMap
	answerIDs     *IDMap
	engine        *reorder.Engine[models.Question]
	keyboard      *reorder.KeyboardAdapter
	dragThreshold float64
	notifier      Notifier
}

// NewEditorSession starts a session on an empty quiz
func NewEditorSession(id string, notifier Notifier) *EditorSession {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	now := time.Now()
	s := &EditorSession{
		ID:            id,
		CreatedAt:     now,
		UpdatedAt:     now,
		quiz:          models.NewQuiz(),
		expanded:      make(map[string]bool),
		questionIDs:   NewIDMap(),
		answerIDs:     NewIDMap(),
		keyboard:      reorder.NewKeyboardAdapter(),
		dragThreshold: reorder.DefaultDragThreshold,
		notifier:      notifier,
	}
	s.engine = reorder.NewEngine(models.QuestionID, func(next []models.Question) {
		s.quiz.Questions = next
	})
	return s
}

// NewEditorSessionFromRecord starts a session on a stored quiz. Every stored
// question and answer gets a local id bound to its server id.
func NewEditorSessionFromRecord(id string, record *models.QuizRecord, notifier Notifier) (*EditorSession, error) {
	s := NewEditorSession(id, notifier)
	s.QuizID = record.ID

	quiz := models.NewQuiz()
	quiz.Title = record.Title
	quiz.Description = record.Description
	quiz.PassingScore = record.PassingScore

	if len(record.Settings) > 0 {
		var settings models.QuizSettings
		if err := json.Unmarshal(record.Settings, &settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings of quiz %d: %w", record.ID, err)
		}
		quiz.TimeLimitMinutes = settings.TimeLimitMinutes
		quiz.AllowRetakes = settings.AllowRetakes
		quiz.ShowCorrectAnswers = settings.ShowCorrectAnswers
	}

	for i := range record.Questions {
		stored := &record.Questions[i]
		question := models.Question{
			ID:          s.ids.Question(),
			Type:        stored.QuestionType,
			Text:        stored.QuestionText,
			Explanation: stored.Explanation,
			Points:      stored.Points,
			Difficulty:  stored.Difficulty,
			Answers:     []models.Answer{},
		}
		s.questionIDs.Bind(question.ID, stored.ID)
		for _, storedAnswer := range stored.Answers {
			answer := models.Answer{
				ID:        s.ids.Answer(),
				Text:      storedAnswer.Text,
				IsCorrect: storedAnswer.IsCorrect,
			}
			s.answerIDs.Bind(answer.ID, storedAnswer.ID)
			question.Answers = append(question.Answers, answer)
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	s.quiz = quiz
	return s, nil
}

// SetDragThreshold changes the distance a pointer must travel before a
// press becomes a drag
func (s *EditorSession) SetDragThreshold(threshold float64) {
	if threshold > 0 {
		s.dragThreshold = threshold
	}
}

func (s *EditorSession) touch() {
	s.UpdatedAt = time.Now()
}

func (s *EditorSession) question(id string) (*models.Question, error) {
	index := s.quiz.QuestionIndex(id)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}
	return &s.quiz.Questions[index], nil
}

func (s *EditorSession) blankAnswer(correct bool) models.Answer {
	return models.Answer{ID: s.ids.Answer(), IsCorrect: correct}
}

func (s *EditorSession) trueFalseAnswers() []models.Answer {
	return []models.Answer{
		{ID: s.ids.Answer(), Text: models.TrueAnswerText, IsCorrect: true},
		{ID: s.ids.Answer(), Text: models.FalseAnswerText},
	}
}

func (s *EditorSession) forgetAnswers(answers []models.Answer) {
	for _, answer := range answers {
		s.answerIDs.Forget(answer.ID)
	}
}

// ===== QUIZ =====

// UpdateQuiz merges quiz-level fields
func (s *EditorSession) UpdateQuiz(patch models.QuizPatch) {
	patch.Apply(s.quiz)
	s.touch()
}

// ===== QUESTIONS =====

// AddQuestion appends a multiple choice question with two blank answers, the
// first one correct, and expands it
func (s *EditorSession) AddQuestion() models.Question {
	question := models.Question{
		ID:         s.ids.Question(),
		Type:       models.MultipleChoice,
		Points:     models.DefaultPoints,
		Difficulty: models.DifficultyMedium,
		Answers:    []models.Answer{s.blankAnswer(true), s.blankAnswer(false)},
	}
	s.quiz.Questions = append(s.quiz.Questions, question)
	s.expanded[question.ID] = true
	s.touch()
	return copyQuestion(question)
}

// UpdateQuestion merges the patch into the question. It reports false and
// changes nothing when the question does not exist.
func (s *EditorSession) UpdateQuestion(id string, patch models.QuestionPatch) bool {
	question, err := s.question(id)
	if err != nil {
		return false
	}
	patch.Apply(question)
	s.touch()
	return true
}

// DeleteQuestion removes a question once the confirmer agrees. A declined
// confirmation leaves the session untouched.
func (s *EditorSession) DeleteQuestion(ctx context.Context, id string, confirmer Confirmer) (models.Question, error) {
	index := s.quiz.QuestionIndex(id)
	if index < 0 {
		return models.Question{}, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
	}

	removed := s.quiz.Questions[index]
	prompt := "Delete this question?"
	if text := strings.TrimSpace(removed.Text); text != "" {
		prompt = fmt.Sprintf("Delete question %q?", text)
	}
	if confirmer == nil || !confirmer.Confirm(ctx, prompt) {
		return models.Question{}, ErrConfirmationDeclined
	}

	questions := make([]models.Question, 0, len(s.quiz.Questions)-1)
	questions = append(questions, s.quiz.Questions[:index]...)
	questions = append(questions, s.quiz.Questions[index+1:]...)
	s.quiz.Questions = questions

	delete(s.expanded, id)
	s.touch()
	return removed, nil
}

// ForgetQuestion drops the server binding of a question and its answers
// after the store confirmed the deletion
func (s *EditorSession) ForgetQuestion(question models.Question) {
	s.questionIDs.Forget(question.ID)
	s.forgetAnswers(question.Answers)
}

// ChangeQuestionType switches the type and re-derives the answer set.
// Switching to multiple choice keeps the current answers as they are.
func (s *EditorSession) ChangeQuestionType(id string, questionType models.QuestionType) error {
	if !questionType.IsValid() {
		return fmt.Errorf("%w: %s", ErrQuestionInvalidType, questionType)
	}
	question, err := s.question(id)
	if err != nil {
		return err
	}

	switch questionType {
	case models.TrueFalse:
		s.forgetAnswers(question.Answers)
		question.Answers = s.trueFalseAnswers()
	case models.ShortAnswer:
		s.forgetAnswers(question.Answers)
		question.Answers = []models.Answer{}
	case models.MultipleChoice:
		// keep answers
	}
	question.Type = questionType
	s.touch()
	return nil
}

// ===== ANSWERS =====

// ToggleCorrectAnswer marks an answer correct. Multiple choice questions keep
// a single correct answer; other types flip just the target.
func (s *EditorSession) ToggleCorrectAnswer(questionID, answerID string) error {
	question, err := s.question(questionID)
	if err != nil {
		return err
	}
	target := question.AnswerIndex(answerID)
	if target < 0 {
		return fmt.Errorf("%w: %s", ErrAnswerNotFound, answerID)
	}

	if question.Type == models.MultipleChoice {
		for i := range question.Answers {
			question.Answers[i].IsCorrect = i == target
		}
	} else {
		question.Answers[target].IsCorrect = !question.Answers[target].IsCorrect
	}
	s.touch()
	return nil
}

// AddAnswer appends a blank answer that is not correct
func (s *EditorSession) AddAnswer(questionID string) (models.Answer, error) {
	question, err := s.question(questionID)
	if err != nil {
		return models.Answer{}, err
	}
	if question.Type != models.MultipleChoice {
		return models.Answer{}, fmt.Errorf("%w: %s", ErrAnswersNotSupported, question.Type)
	}

	answer := s.blankAnswer(false)
	question.Answers = append(question.Answers, answer)
	s.touch()
	return answer, nil
}

// UpdateAnswer changes the text of an answer
func (s *EditorSession) UpdateAnswer(questionID, answerID string, patch models.AnswerPatch) error {
	question, err := s.question(questionID)
	if err != nil {
		return err
	}
	index := question.AnswerIndex(answerID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrAnswerNotFound, answerID)
	}
	if question.Type == models.TrueFalse && patch.Text != nil {
		return fmt.Errorf("%w: %s", ErrAnswersNotSupported, question.Type)
	}
	if patch.Text != nil {
		question.Answers[index].Text = *patch.Text
	}
	s.touch()
	return nil
}

// DeleteAnswer removes an answer. A multiple choice question never drops
// below two answers; the attempt is reported to the notifier instead.
func (s *EditorSession) DeleteAnswer(ctx context.Context, questionID, answerID string) (models.Answer, error) {
	question, err := s.question(questionID)
	if err != nil {
		return models.Answer{}, err
	}
	index := question.AnswerIndex(answerID)
	if index < 0 {
		return models.Answer{}, fmt.Errorf("%w: %s", ErrAnswerNotFound, answerID)
	}

	switch question.Type {
	case models.TrueFalse:
		return models.Answer{}, fmt.Errorf("%w: %s", ErrAnswersNotSupported, question.Type)
	case models.MultipleChoice:
		if len(question.Answers) <= models.MinChoiceAnswers {
			s.notifier.Warn(ctx, ErrMinimumAnswers.Error())
			return models.Answer{}, NewBusinessRuleError("minimum_answers", ErrMinimumAnswers, map[string]interface{}{
				"question_id": questionID,
				"answers":     len(question.Answers),
			})
		}
	}

	removed := question.Answers[index]
	answers := make([]models.Answer, 0, len(question.Answers)-1)
	answers = append(answers, question.Answers[:index]...)
	answers = append(answers, question.Answers[index+1:]...)
	question.Answers = answers
	s.touch()
	return removed, nil
}

// ForgetAnswer drops the server binding of an answer
func (s *EditorSession) ForgetAnswer(answer models.Answer) {
	s.answerIDs.Forget(answer.ID)
}

// ===== EXPANDED STATE =====

// ToggleExpanded flips whether a question is shown expanded and returns the
// new state
func (s *EditorSession) ToggleExpanded(id string) bool {
	if s.expanded[id] {
		delete(s.expanded, id)
		return false
	}
	if s.quiz.QuestionIndex(id) < 0 {
		return false
	}
	s.expanded[id] = true
	return true
}

func (s *EditorSession) IsExpanded(id string) bool {
	return s.expanded[id]
}

// ===== ORDERING =====

// ReorderQuestions applies a reorder event and returns the positions to
// write for every question the store already knows. Questions that were
// never saved get their position on save.
func (s *EditorSession) ReorderQuestions(ev reorder.Event) ([]repositories.ItemOrder, bool) {
	if _, changed := s.engine.Apply(s.quiz.Questions, ev); !changed {
		return nil, false
	}
	s.touch()
	return s.questionOrders(), true
}

// StepQuestion moves a question one keyboard step
func (s *EditorSession) StepQuestion(id string, key reorder.Key) ([]repositories.ItemOrder, bool) {
	ev, ok := s.keyboard.Step(s.quiz.QuestionIDs(), id, key)
	if !ok {
		return nil, false
	}
	return s.ReorderQuestions(ev)
}

// GestureEvent replays a pointer gesture through a pointer adapter. Gestures
// that never travelled the drag threshold are clicks and yield no event.
func (s *EditorSession) GestureEvent(gesture PointerGesture) (reorder.Event, bool) {
	pointer := reorder.NewPointerAdapter(s.dragThreshold)
	pointer.Press(gesture.MovedID, gesture.StartX, gesture.StartY)
	pointer.Drag(gesture.EndX, gesture.EndY)
	pointer.Over(gesture.TargetID)
	return pointer.Release()
}

// DragQuestion moves a question by a recorded pointer gesture
func (s *EditorSession) DragQuestion(gesture PointerGesture) ([]repositories.ItemOrder, bool) {
	ev, ok := s.GestureEvent(gesture)
	if !ok {
		return nil, false
	}
	return s.ReorderQuestions(ev)
}

// ReorderAnswers applies a reorder event to the answers of one question
func (s *EditorSession) ReorderAnswers(questionID string, ev reorder.Event) ([]repositories.ItemOrder, bool, error) {
	question, err := s.question(questionID)
	if err != nil {
		return nil, false, err
	}
	next, changed := reorder.NewEngine(models.AnswerID, nil).Apply(question.Answers, ev)
	if !changed {
		return nil, false, nil
	}
	question.Answers = next
	s.touch()

	var orders []repositories.ItemOrder
	for i, answer := range question.Answers {
		if serverID, ok := s.answerIDs.Server(answer.ID); ok {
			orders = append(orders, repositories.ItemOrder{ID: serverID, Order: i})
		}
	}
	return orders, true, nil
}

func (s *EditorSession) questionOrders() []repositories.ItemOrder {
	var orders []repositories.ItemOrder
	for i, question := range s.quiz.Questions {
		if serverID, ok := s.questionIDs.Server(question.ID); ok {
			orders = append(orders, repositories.ItemOrder{ID: serverID, Order: i})
		}
	}
	return orders
}

// ===== MERGING =====

// AppendQuestions adds questions built outside the editor. Every question
// and answer receives a fresh local id; incoming ids are ignored.
func (s *EditorSession) AppendQuestions(questions []models.Question) []string {
	ids := make([]string, 0, len(questions))
	for _, incoming := range questions {
		question := copyQuestion(incoming)
		question.ID = s.ids.Question()
		for i := range question.Answers {
			question.Answers[i].ID = s.ids.Answer()
		}
		s.quiz.Questions = append(s.quiz.Questions, question)
		ids = append(ids, question.ID)
	}
	if len(ids) > 0 {
		s.touch()
	}
	return ids
}

// ===== PERSISTENCE BINDINGS =====

func (s *EditorSession) ServerQuestionID(localID string) (uint, bool) {
	return s.questionIDs.Server(localID)
}

func (s *EditorSession) ServerAnswerID(localID string) (uint, bool) {
	return s.answerIDs.Server(localID)
}

// BindQuestion records the ids the store assigned to a question and,
// positionally, to its answers
func (s *EditorSession) BindQuestion(localID string, record *models.QuestionRecord) {
	s.questionIDs.Bind(localID, record.ID)

	question, err := s.question(localID)
	if err != nil {
		return
	}
	for i, answer := range question.Answers {
		s.answerIDs.Forget(answer.ID)
		if i < len(record.Answers) {
			s.answerIDs.Bind(answer.ID, record.Answers[i].ID)
		}
	}
}

// ===== SNAPSHOTS =====

// Quiz returns a deep copy of the quiz being edited
func (s *EditorSession) Quiz() models.Quiz {
	quiz := *s.quiz
	if s.quiz.TimeLimitMinutes != nil {
		limit := *s.quiz.TimeLimitMinutes
		quiz.TimeLimitMinutes = &limit
	}
	quiz.Questions = make([]models.Question, len(s.quiz.Questions))
	for i, question := range s.quiz.Questions {
		quiz.Questions[i] = copyQuestion(question)
	}
	return quiz
}

// Question returns a copy of one question
func (s *EditorSession) Question(id string) (models.Question, error) {
	question, err := s.question(id)
	if err != nil {
		return models.Question{}, err
	}
	return copyQuestion(*question), nil
}

// QuestionIDs returns the local question ids in display order
func (s *EditorSession) QuestionIDs() []string {
	return s.quiz.QuestionIDs()
}

// AnswerIDs returns the local answer ids of one question in display order
func (s *EditorSession) AnswerIDs(questionID string) ([]string, error) {
	question, err := s.question(questionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(question.Answers))
	for i, answer := range question.Answers {
		ids[i] = answer.ID
	}
	return ids, nil
}

// SessionSnapshot is the serialisable view of a session
type SessionSnapshot struct {
	ID          string          `json:"id"`
	QuizID      uint            `json:"quiz_id,omitempty"`
	Quiz        models.Quiz     `json:"quiz"`
	Expanded    []string        `json:"expanded"`
	ServerIDs   map[string]uint `json:"server_ids"`
	TotalPoints int             `json:"total_points"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s *EditorSession) Snapshot() SessionSnapshot {
	quiz := s.Quiz()
	snapshot := SessionSnapshot{
		ID:          s.ID,
		QuizID:      s.QuizID,
		Quiz:        quiz,
		Expanded:    []string{},
		ServerIDs:   make(map[string]uint),
		TotalPoints: quiz.TotalPoints(),
		UpdatedAt:   s.UpdatedAt,
	}
	for _, question := range quiz.Questions {
		if s.expanded[question.ID] {
			snapshot.Expanded = append(snapshot.Expanded, question.ID)
		}
		if serverID, ok := s.questionIDs.Server(question.ID); ok {
			snapshot.ServerIDs[question.ID] = serverID
		}
		for _, answer := range question.Answers {
			if serverID, ok := s.answerIDs.Server(answer.ID); ok {
				snapshot.ServerIDs[answer.ID] = serverID
			}
		}
	}
	return snapshot
}

func copyQuestion(question models.Question) models.Question {
	answers := make([]models.Answer, len(question.Answers))
	copy(answers, question.Answers)
	question.Answers = answers
	return question
}
