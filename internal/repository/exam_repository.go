package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/priyankaksolves/student-exam-app/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, description, duration_minutes, exam_type, pass_marks, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, is_live, created_at, updated_at`,
		e.Title, e.Description, e.DurationMinutes, e.ExamType, e.PassMarks, e.CreatedBy,
	).Scan(&e.ID, &e.IsLive, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by ID.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, duration_minutes, exam_type, pass_marks, is_live, created_by, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.DurationMinutes, &e.ExamType, &e.PassMarks, &e.IsLive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListPaginated retrieves exams with aggregate counts, newest first.
func (r *ExamRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.ExamSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.description, e.duration_minutes, e.exam_type, e.pass_marks, e.is_live,
		        e.created_by, e.created_at, e.updated_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id) AS question_count,
		        (SELECT COALESCE(SUM(q.marks), 0) FROM questions q WHERE q.exam_id = e.id) AS total_marks,
		        (SELECT COUNT(*) FROM student_exams se WHERE se.exam_id = e.id) AS assigned_count
		 FROM exams e
		 ORDER BY e.created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.ExamSummary
	for rows.Next() {
		var s model.ExamSummary
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.DurationMinutes, &s.ExamType, &s.PassMarks, &s.IsLive,
			&s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
			&s.QuestionCount, &s.TotalMarks, &s.AssignedCount,
		); err != nil {
			return nil, 0, err
		}
		exams = append(exams, s)
	}
	return exams, total, rows.Err()
}

// Update modifies an exam's editable fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, description = $2, duration_minutes = $3, pass_marks = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5`,
		e.Title, e.Description, e.DurationMinutes, e.PassMarks, e.ID,
	)
	return err
}

// SetLive flips an exam's published flag.
func (r *ExamRepository) SetLive(ctx context.Context, id int64, live bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET is_live = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		live, id,
	)
	return err
}

// Delete removes an exam. Questions, assignments, and answers cascade.
func (r *ExamRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}

// TotalMarks sums the marks of an exam's questions.
func (r *ExamRepository) TotalMarks(ctx context.Context, examID int64) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(marks), 0) FROM questions WHERE exam_id = $1`, examID,
	).Scan(&total)
	return total, err
}
