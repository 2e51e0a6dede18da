package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/priyankaksolves/student-exam-app/internal/model"
)

// AnswerRepository handles per-question answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// UpsertChoice persists an autosaved choice or boolean answer. It is a
// no-op once the attempt leaves in_progress, and it never overwrites a
// coding answer.
func (r *AnswerRepository) UpsertChoice(ctx context.Context, attemptID, questionID int64, selectedOptionIDs []int64, boolAnswer *bool) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers (student_exam_id, question_id, question_type, selected_option_ids, bool_answer)
		 SELECT se.id, q.id, q.question_type, $3, $4
		 FROM student_exams se
		 JOIN questions q ON q.exam_id = se.exam_id
		 WHERE se.id = $1 AND q.id = $2
		   AND se.status = 'in_progress'
		   AND q.question_type <> 'coding'
		 ON CONFLICT (student_exam_id, question_id) DO UPDATE
		 SET selected_option_ids = EXCLUDED.selected_option_ids,
		     bool_answer = EXCLUDED.bool_answer`,
		attemptID, questionID, selectedOptionIDs, boolAnswer,
	)
	return err
}

// UpsertCoding records a judged code submission as the question's answer.
func (r *AnswerRepository) UpsertCoding(ctx context.Context, attemptID, questionID, submissionID int64, testsPassed, testsTotal int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO answers (student_exam_id, question_id, question_type, submission_id, tests_passed, tests_total)
		 VALUES ($1, $2, 'coding', $3, $4, $5)
		 ON CONFLICT (student_exam_id, question_id) DO UPDATE
		 SET submission_id = EXCLUDED.submission_id,
		     tests_passed = EXCLUDED.tests_passed,
		     tests_total = EXCLUDED.tests_total`,
		attemptID, questionID, submissionID, testsPassed, testsTotal,
	)
	return err
}

// ListByAttempt retrieves every recorded answer for an attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID int64) ([]model.Answer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, student_exam_id, question_id, question_type, selected_option_ids, bool_answer, submission_id, tests_passed, tests_total
		 FROM answers WHERE student_exam_id = $1`, attemptID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(
			&a.ID, &a.StudentExamID, &a.QuestionID, &a.QuestionType,
			&a.SelectedOptionIDs, &a.BoolAnswer, &a.SubmissionID, &a.TestsPassed, &a.TestsTotal,
		); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
