package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/priyankaksolves/student-exam-app/internal/model"
)

var ErrDuplicateAssignment = errors.New("student already assigned to this exam")

// StudentExamRepository handles assignment and attempt data access.
// Lifecycle transitions are compare-and-set updates keyed on the current
// status, so concurrent start/submit/expire races settle to one winner
// inside PostgreSQL.
type StudentExamRepository struct {
	pool *pgxpool.Pool
}

// NewStudentExamRepository creates a new StudentExamRepository.
func NewStudentExamRepository(pool *pgxpool.Pool) *StudentExamRepository {
	return &StudentExamRepository{pool: pool}
}

// Create inserts one assignment row.
func (r *StudentExamRepository) Create(ctx context.Context, se *model.StudentExam) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO student_exams (student_id, exam_id, start_time, status)
		 VALUES ($1, $2, $3, 'not_started')
		 RETURNING id, status, created_at`,
		se.StudentID, se.ExamID, se.StartTime,
	).Scan(&se.ID, &se.Status, &se.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateAssignment
		}
		return err
	}
	return nil
}

// CreateBatch inserts a set of assignment rows in one transaction. A
// duplicate anywhere rolls back the whole batch, so a failed rollout
// leaves nothing behind and the retry starts clean.
func (r *StudentExamRepository) CreateBatch(ctx context.Context, ses []*model.StudentExam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, se := range ses {
		err := tx.QueryRow(ctx,
			`INSERT INTO student_exams (student_id, exam_id, start_time, status)
			 VALUES ($1, $2, $3, 'not_started')
			 RETURNING id, status, created_at`,
			se.StudentID, se.ExamID, se.StartTime,
		).Scan(&se.ID, &se.Status, &se.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrDuplicateAssignment
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetByID retrieves an assignment by ID.
func (r *StudentExamRepository) GetByID(ctx context.Context, id int64) (*model.StudentExam, error) {
	return r.get(ctx,
		`SELECT id, student_id, exam_id, start_time, status, started_at, finished_at, score, passed, created_at
		 FROM student_exams WHERE id = $1`, id)
}

// GetForStudent retrieves an assignment scoped to its owning student.
func (r *StudentExamRepository) GetForStudent(ctx context.Context, id, studentID int64) (*model.StudentExam, error) {
	return r.get(ctx,
		`SELECT id, student_id, exam_id, start_time, status, started_at, finished_at, score, passed, created_at
		 FROM student_exams WHERE id = $1 AND student_id = $2`, id, studentID)
}

func (r *StudentExamRepository) get(ctx context.Context, query string, args ...any) (*model.StudentExam, error) {
	se := &model.StudentExam{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&se.ID, &se.StudentID, &se.ExamID, &se.StartTime, &se.Status,
		&se.StartedAt, &se.FinishedAt, &se.Score, &se.Passed, &se.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return se, nil
}

// MarkStarted transitions not_started → in_progress. Returns false when
// the row was not in not_started, which means a concurrent caller won.
func (r *StudentExamRepository) MarkStarted(ctx context.Context, id int64, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE student_exams
		 SET status = 'in_progress', started_at = $2
		 WHERE id = $1 AND status = 'not_started'`,
		id, now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Finalize transitions in_progress → completed and persists the graded
// answers in the same transaction. Returns false without writing
// anything when the attempt was already completed.
func (r *StudentExamRepository) Finalize(ctx context.Context, id int64, score int, passed bool, now time.Time, answers []model.Answer) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE student_exams
		 SET status = 'completed', score = $2, passed = $3, finished_at = $4
		 WHERE id = $1 AND status = 'in_progress'`,
		id, score, passed, now,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	for _, a := range answers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO answers (student_exam_id, question_id, question_type, selected_option_ids, bool_answer, submission_id, tests_passed, tests_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (student_exam_id, question_id) DO UPDATE
			 SET selected_option_ids = EXCLUDED.selected_option_ids,
			     bool_answer = EXCLUDED.bool_answer,
			     submission_id = EXCLUDED.submission_id,
			     tests_passed = EXCLUDED.tests_passed,
			     tests_total = EXCLUDED.tests_total`,
			id, a.QuestionID, a.QuestionType, a.SelectedOptionIDs, a.BoolAnswer,
			a.SubmissionID, a.TestsPassed, a.TestsTotal,
		); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListByStudent retrieves a student's assignments joined with exam data.
func (r *StudentExamRepository) ListByStudent(ctx context.Context, studentID int64) ([]model.AssignedExam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT se.id, se.exam_id, e.title, e.description, e.exam_type, e.duration_minutes,
		        se.start_time, se.status, se.score, se.passed
		 FROM student_exams se
		 JOIN exams e ON e.id = se.exam_id
		 WHERE se.student_id = $1 AND e.is_live = TRUE
		 ORDER BY se.start_time DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assigned []model.AssignedExam
	for rows.Next() {
		var a model.AssignedExam
		if err := rows.Scan(
			&a.AssignmentID, &a.ExamID, &a.Title, &a.Description, &a.ExamType, &a.DurationMinutes,
			&a.StartTime, &a.Status, &a.Score, &a.Passed,
		); err != nil {
			return nil, err
		}
		assigned = append(assigned, a)
	}
	return assigned, rows.Err()
}

// ListByExam retrieves per-student results for one exam, paginated.
func (r *StudentExamRepository) ListByExam(ctx context.Context, examID int64, limit, offset int) ([]model.AssignmentResultRow, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM student_exams WHERE exam_id = $1`, examID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT se.id, u.id, u.name, u.email, se.status, se.score, se.passed, se.started_at, se.finished_at
		 FROM student_exams se
		 JOIN users u ON u.id = se.student_id
		 WHERE se.exam_id = $1
		 ORDER BY u.name, u.id
		 LIMIT $2 OFFSET $3`, examID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []model.AssignmentResultRow
	for rows.Next() {
		var row model.AssignmentResultRow
		if err := rows.Scan(
			&row.AssignmentID, &row.StudentID, &row.StudentName, &row.StudentEmail,
			&row.Status, &row.Score, &row.Passed, &row.StartedAt, &row.FinishedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, row)
	}
	return results, total, rows.Err()
}

// UpdateStartTime reschedules an assignment that has not been started.
func (r *StudentExamRepository) UpdateStartTime(ctx context.Context, id int64, startTime time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE student_exams SET start_time = $2
		 WHERE id = $1 AND status = 'not_started'`,
		id, startTime,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes an assignment that has not been started.
func (r *StudentExamRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM student_exams WHERE id = $1 AND status = 'not_started'`, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// CountStartedByExam counts attempts that have left not_started. A
// non-zero count freezes the exam's questions.
func (r *StudentExamRepository) CountStartedByExam(ctx context.Context, examID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM student_exams
		 WHERE exam_id = $1 AND status <> 'not_started'`, examID,
	).Scan(&n)
	return n, err
}

// ListOverdue finds in_progress attempts whose deadline has passed.
// Used by the expiry sweep at startup and as a Redis fallback.
func (r *StudentExamRepository) ListOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT se.id
		 FROM student_exams se
		 JOIN exams e ON e.id = se.exam_id
		 WHERE se.status = 'in_progress'
		   AND se.started_at + make_interval(mins => e.duration_minutes) < $1`, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
