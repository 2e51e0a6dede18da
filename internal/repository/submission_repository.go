package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/priyankaksolves/student-exam-app/internal/model"
)

// SubmissionRepository handles code submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts a judged code submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.CodeSubmission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO code_submissions (student_exam_id, question_id, language_id, source_code, tests_passed, tests_total, passed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.StudentExamID, s.QuestionID, s.LanguageID, s.SourceCode, s.TestsPassed, s.TestsTotal, s.Passed,
	).Scan(&s.ID, &s.CreatedAt)
}

// GetLatest retrieves the most recent submission for one question of
// one attempt.
func (r *SubmissionRepository) GetLatest(ctx context.Context, attemptID, questionID int64) (*model.CodeSubmission, error) {
	s := &model.CodeSubmission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, student_exam_id, question_id, language_id, source_code, tests_passed, tests_total, passed, created_at
		 FROM code_submissions
		 WHERE student_exam_id = $1 AND question_id = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, attemptID, questionID,
	).Scan(&s.ID, &s.StudentExamID, &s.QuestionID, &s.LanguageID, &s.SourceCode, &s.TestsPassed, &s.TestsTotal, &s.Passed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
