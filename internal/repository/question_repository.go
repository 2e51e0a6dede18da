package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/priyankaksolves/student-exam-app/internal/model"
)

// QuestionRepository handles question, option, and test case data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// Create inserts a question with its options and test cases atomically.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (exam_id, question_text, question_type, marks, position, correct_answer)
		 VALUES ($1, $2, $3, $4,
		         COALESCE((SELECT MAX(position) + 1 FROM questions WHERE exam_id = $1), 0),
		         $5)
		 RETURNING id, position`,
		q.ExamID, q.QuestionText, q.QuestionType, q.Marks, q.CorrectAnswer,
	).Scan(&q.ID, &q.Position)
	if err != nil {
		return err
	}

	if err := insertChildren(ctx, tx, q); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update replaces a question's text, marks, and children atomically.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE questions
		 SET question_text = $1, question_type = $2, marks = $3, correct_answer = $4
		 WHERE id = $5 AND exam_id = $6`,
		q.QuestionText, q.QuestionType, q.Marks, q.CorrectAnswer, q.ID, q.ExamID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, `DELETE FROM options WHERE question_id = $1`, q.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM test_cases WHERE question_id = $1`, q.ID); err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, q); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertChildren(ctx context.Context, tx pgx.Tx, q *model.Question) error {
	for i := range q.Options {
		o := &q.Options[i]
		o.QuestionID = q.ID
		if err := tx.QueryRow(ctx,
			`INSERT INTO options (question_id, option_text, is_correct)
			 VALUES ($1, $2, $3) RETURNING id`,
			o.QuestionID, o.OptionText, o.IsCorrect,
		).Scan(&o.ID); err != nil {
			return err
		}
	}
	for i := range q.TestCases {
		tc := &q.TestCases[i]
		tc.QuestionID = q.ID
		tc.Position = i
		if err := tx.QueryRow(ctx,
			`INSERT INTO test_cases (question_id, input, expected_output, position)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			tc.QuestionID, tc.Input, tc.ExpectedOutput, tc.Position,
		).Scan(&tc.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a question with its options and test cases.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, question_text, question_type, marks, position, correct_answer
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.QuestionType, &q.Marks, &q.Position, &q.CorrectAnswer)
	if err != nil {
		return nil, err
	}

	questions := []model.Question{*q}
	if err := r.loadChildren(ctx, questions); err != nil {
		return nil, err
	}
	return &questions[0], nil
}

// ListByExam retrieves an exam's questions in position order, options
// and test cases included.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, question_type, marks, position, correct_answer
		 FROM questions WHERE exam_id = $1
		 ORDER BY position, id`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.QuestionType, &q.Marks, &q.Position, &q.CorrectAnswer); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *QuestionRepository) loadChildren(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int64, len(questions))
	index := make(map[int64]*model.Question, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
		index[questions[i].ID] = &questions[i]
	}

	optRows, err := r.pool.Query(ctx,
		`SELECT id, question_id, option_text, is_correct
		 FROM options WHERE question_id = ANY($1)
		 ORDER BY id`, ids,
	)
	if err != nil {
		return err
	}
	defer optRows.Close()
	for optRows.Next() {
		var o model.Option
		if err := optRows.Scan(&o.ID, &o.QuestionID, &o.OptionText, &o.IsCorrect); err != nil {
			return err
		}
		if q, ok := index[o.QuestionID]; ok {
			q.Options = append(q.Options, o)
		}
	}
	if err := optRows.Err(); err != nil {
		return err
	}

	tcRows, err := r.pool.Query(ctx,
		`SELECT id, question_id, input, expected_output, position
		 FROM test_cases WHERE question_id = ANY($1)
		 ORDER BY position, id`, ids,
	)
	if err != nil {
		return err
	}
	defer tcRows.Close()
	for tcRows.Next() {
		var tc model.TestCase
		if err := tcRows.Scan(&tc.ID, &tc.QuestionID, &tc.Input, &tc.ExpectedOutput, &tc.Position); err != nil {
			return err
		}
		if q, ok := index[tc.QuestionID]; ok {
			q.TestCases = append(q.TestCases, tc)
		}
	}
	return tcRows.Err()
}

// Delete removes a question scoped to its exam.
func (r *QuestionRepository) Delete(ctx context.Context, examID, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM questions WHERE id = $1 AND exam_id = $2`, id, examID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountByExam counts an exam's questions.
func (r *QuestionRepository) CountByExam(ctx context.Context, examID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_id = $1`, examID,
	).Scan(&n)
	return n, err
}
