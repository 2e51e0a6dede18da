package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeMultiSelect    QuestionType = "multi_select"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeCoding         QuestionType = "coding"
)

// Question represents a single exam question with its full answer data.
// Only admins ever see this shape.
type Question struct {
	ID            int64        `json:"id"`
	ExamID        int64        `json:"exam_id"`
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	Marks         int          `json:"marks"`
	Position      int          `json:"position"`
	CorrectAnswer *bool        `json:"correct_answer,omitempty"`
	Options       []Option     `json:"options,omitempty"`
	TestCases     []TestCase   `json:"test_cases,omitempty"`
}

// Option is one answer choice on a multiple_choice or multi_select question.
type Option struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}

// TestCase is one input/output pair for a coding question. The first
// case (lowest position) is shown to students as a sample.
type TestCase struct {
	ID             int64  `json:"id"`
	QuestionID     int64  `json:"question_id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Position       int    `json:"position"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
// Which optional fields are required depends on question_type; the
// question service enforces the per-type shape.
type AddQuestionRequest struct {
	QuestionText  string          `json:"question_text" binding:"required,min=1,max=2000"`
	QuestionType  QuestionType    `json:"question_type" binding:"required,oneof=multiple_choice multi_select true_false coding"`
	Marks         int             `json:"marks" binding:"required,min=1,max=100"`
	CorrectAnswer *bool           `json:"correct_answer"`
	Options       []OptionInput   `json:"options" binding:"omitempty,max=10,dive"`
	TestCases     []TestCaseInput `json:"test_cases" binding:"omitempty,max=20,dive"`
}

// OptionInput is one option in a question create/update payload.
type OptionInput struct {
	OptionText string `json:"option_text" binding:"required,min=1,max=500"`
	IsCorrect  bool   `json:"is_correct"`
}

// TestCaseInput is one test case in a question create/update payload.
// Input may be empty (programs that read nothing from stdin).
type TestCaseInput struct {
	Input          string `json:"input" binding:"max=10000"`
	ExpectedOutput string `json:"expected_output" binding:"required,max=10000"`
}
