package model

import "time"

// ExamType distinguishes aptitude exams (choice and boolean questions
// only) from coding exams (may also contain coding questions).
type ExamType string

const (
	ExamTypeAptitude ExamType = "aptitude"
	ExamTypeCoding   ExamType = "coding"
)

// Exam represents an admin-authored exam definition.
type Exam struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	ExamType        ExamType  `json:"exam_type"`
	PassMarks       int       `json:"pass_marks"`
	IsLive          bool      `json:"is_live"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ExamSummary is the admin list row with aggregate counts.
type ExamSummary struct {
	Exam
	QuestionCount int `json:"question_count"`
	TotalMarks    int `json:"total_marks"`
	AssignedCount int `json:"assigned_count"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string   `json:"title" binding:"required,min=3,max=255"`
	Description     string   `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes int      `json:"duration_minutes" binding:"required,min=1,max=480"`
	ExamType        ExamType `json:"exam_type" binding:"required,oneof=aptitude coding"`
	PassMarks       int      `json:"pass_marks" binding:"omitempty,min=0"`
}

// UpdateExamRequest is the payload for updating an existing exam.
// A published exam's questions are frozen but these fields stay editable.
type UpdateExamRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=3,max=255"`
	Description     *string `json:"description" binding:"omitempty,max=2000"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	PassMarks       *int    `json:"pass_marks" binding:"omitempty,min=0"`
}

// ExamPaper is the Redis-cached payload sent to students. Correct
// answers and hidden test cases never appear here.
type ExamPaper struct {
	ExamID          int64                `json:"exam_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	DurationMinutes int                  `json:"duration_minutes"`
	ExamType        ExamType             `json:"exam_type"`
	TotalMarks      int                  `json:"total_marks"`
	Questions       []QuestionForStudent `json:"questions"`
}

// QuestionForStudent is a question stripped of answer data.
type QuestionForStudent struct {
	ID           int64              `json:"id"`
	QuestionText string             `json:"question_text"`
	QuestionType QuestionType       `json:"question_type"`
	Marks        int                `json:"marks"`
	Position     int                `json:"position"`
	Options      []OptionForStudent `json:"options,omitempty"`
	SampleCase   *SampleTestCase    `json:"sample_case,omitempty"`
}

// OptionForStudent is an answer option without the correctness flag.
type OptionForStudent struct {
	ID         int64  `json:"id"`
	OptionText string `json:"option_text"`
}

// SampleTestCase is the one test case shown to students on coding
// questions. The remaining cases stay hidden.
type SampleTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}
