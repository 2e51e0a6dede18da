package model

import "time"

// AttemptStatus enumerates the lifecycle states of a student's attempt.
// The only legal transitions are not_started → in_progress → completed.
type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "not_started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// StudentExam is the assignment of one exam to one student, and doubles
// as the attempt record. A student holds at most one row per exam.
type StudentExam struct {
	ID         int64         `json:"id"`
	StudentID  int64         `json:"student_id"`
	ExamID     int64         `json:"exam_id"`
	StartTime  time.Time     `json:"start_time"`
	Status     AttemptStatus `json:"status"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Score      *int          `json:"score,omitempty"`
	Passed     *bool         `json:"passed,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// AssignedExam is a student dashboard row: the assignment joined with
// its exam summary.
type AssignedExam struct {
	AssignmentID    int64         `json:"assignment_id"`
	ExamID          int64         `json:"exam_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	ExamType        ExamType      `json:"exam_type"`
	DurationMinutes int           `json:"duration_minutes"`
	StartTime       time.Time     `json:"start_time"`
	Status          AttemptStatus `json:"status"`
	Score           *int          `json:"score,omitempty"`
	Passed          *bool         `json:"passed,omitempty"`
}

// AssignStudentsRequest assigns an exam to a batch of students.
type AssignStudentsRequest struct {
	StudentIDs []int64   `json:"student_ids" binding:"required,min=1,max=500,dive,min=1"`
	StartTime  time.Time `json:"start_time" binding:"required"`
}

// UpdateAssignmentRequest reschedules a pending assignment.
type UpdateAssignmentRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
}

// AttemptStartResult is returned by the start operation.
type AttemptStartResult struct {
	AssignmentID     int64         `json:"assignment_id"`
	Status           AttemptStatus `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	RemainingSeconds int64         `json:"remaining_seconds"`
}

// AttemptState is the resumable view of an attempt: where the clock
// stands and what has been autosaved so far.
type AttemptState struct {
	AssignmentID     int64             `json:"assignment_id"`
	ExamID           int64             `json:"exam_id"`
	Status           AttemptStatus     `json:"status"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	RemainingSeconds int64             `json:"remaining_seconds"`
	SavedAnswers     map[string]string `json:"saved_answers,omitempty"`
}

// ExamResult is the graded outcome of a completed attempt.
type ExamResult struct {
	AssignmentID  int64      `json:"assignment_id"`
	ExamID        int64      `json:"exam_id"`
	ObtainedMarks int        `json:"obtained_marks"`
	TotalMarks    int        `json:"total_marks"`
	PassMarks     int        `json:"pass_marks"`
	Passed        bool       `json:"passed"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// AssignmentResultRow is the admin per-exam result listing entry.
type AssignmentResultRow struct {
	AssignmentID int64         `json:"assignment_id"`
	StudentID    int64         `json:"student_id"`
	StudentName  string        `json:"student_name"`
	StudentEmail string        `json:"student_email"`
	Status       AttemptStatus `json:"status"`
	Score        *int          `json:"score,omitempty"`
	Passed       *bool         `json:"passed,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}
