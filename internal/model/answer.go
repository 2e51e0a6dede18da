package model

import "time"

// Answer is one student response to one question, persisted at autosave
// and finalized at submission. Exactly one of the payload groups is set
// depending on the question type: selected option IDs for choice
// questions, a boolean for true_false, a code submission reference for
// coding.
type Answer struct {
	ID            int64        `json:"id"`
	StudentExamID int64        `json:"student_exam_id"`
	QuestionID    int64        `json:"question_id"`
	QuestionType  QuestionType `json:"question_type"`

	SelectedOptionIDs []int64 `json:"selected_option_ids,omitempty"`
	BoolAnswer        *bool   `json:"bool_answer,omitempty"`

	SubmissionID *int64 `json:"submission_id,omitempty"`
	TestsPassed  int    `json:"tests_passed,omitempty"`
	TestsTotal   int    `json:"tests_total,omitempty"`
}

// AnswerInput is one answer in a bulk submit payload. Coding questions
// are graded from their recorded code submissions, so coding entries
// here are ignored.
type AnswerInput struct {
	QuestionID        int64   `json:"question_id" binding:"required,min=1"`
	SelectedOptionIDs []int64 `json:"selected_option_ids" binding:"omitempty,max=10"`
	BoolAnswer        *bool   `json:"bool_answer"`
}

// SubmitAnswersRequest is the payload for submitting an attempt.
type SubmitAnswersRequest struct {
	Answers []AnswerInput `json:"answers" binding:"omitempty,max=200,dive"`
}

// CodeSubmission records one judged run of a coding question against
// its full test suite.
type CodeSubmission struct {
	ID            int64     `json:"id"`
	StudentExamID int64     `json:"student_exam_id"`
	QuestionID    int64     `json:"question_id"`
	LanguageID    int       `json:"language_id"`
	SourceCode    string    `json:"source_code"`
	TestsPassed   int       `json:"tests_passed"`
	TestsTotal    int       `json:"tests_total"`
	Passed        bool      `json:"passed"`
	CreatedAt     time.Time `json:"created_at"`
}

// RunCodeRequest executes code once against a caller-supplied stdin.
type RunCodeRequest struct {
	SourceCode string `json:"source_code" binding:"required,max=65536"`
	LanguageID int    `json:"language_id" binding:"required,min=1"`
	Stdin      string `json:"stdin" binding:"omitempty,max=10000"`
}

// SubmitCodeRequest judges code against the question's full test suite
// and records the verdict as the question's answer.
type SubmitCodeRequest struct {
	SourceCode string `json:"source_code" binding:"required,max=65536"`
	LanguageID int    `json:"language_id" binding:"required,min=1"`
}

// CodeVerdict is the outcome of a SubmitCodeRequest.
type CodeVerdict struct {
	QuestionID   int64            `json:"question_id"`
	SubmissionID int64            `json:"submission_id"`
	TestsPassed  int              `json:"tests_passed"`
	TestsTotal   int              `json:"tests_total"`
	Passed       bool             `json:"passed"`
	Cases        []TestCaseResult `json:"cases"`
}

// TestCaseResult is the judged outcome of one test case. Output is only
// populated for the sample case; hidden cases report status alone.
type TestCaseResult struct {
	Position    int     `json:"position"`
	StatusID    int     `json:"status_id"`
	Description string  `json:"description"`
	Passed      bool    `json:"passed"`
	TimeSeconds *string `json:"time,omitempty"`
	Stdout      *string `json:"stdout,omitempty"`
}
