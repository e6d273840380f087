package models

type ImportStatus string

const (
	ImportCompleted        ImportStatus = "completed"
	ImportPartial          ImportStatus = "partial"
	ImportValidationFailed ImportStatus = "validation_failed"
)

// ImportResult summarises a spreadsheet import into an editor session.
type ImportResult struct {
	Status        ImportStatus            `json:"status"`
	FileName      string                  `json:"file_name"`
	TotalRows     int                     `json:"total_rows"`
	ImportedCount int                     `json:"imported_count"`
	ErrorCount    int                     `json:"error_count"`
	Errors        []ImportValidationError `json:"errors,omitempty"`
	QuestionIDs   []string                `json:"question_ids"`
}

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

// Spreadsheet layout shared by import and export. Headers are matched
// case-insensitively; options are numbered columns and the correct option is
// named by its text.
const (
	SheetQuestions = "Questions"

	ColumnType          = "question_type"
	ColumnText          = "question_text"
	ColumnCorrectAnswer = "correct_answer"
	ColumnPoints        = "points"
	ColumnDifficulty    = "difficulty"
	ColumnExplanation   = "explanation"
	ColumnOptionPrefix  = "option_"

	// SheetOptionColumns option columns are always written; a question with
	// more answers widens the sheet
	SheetOptionColumns = 6
)
