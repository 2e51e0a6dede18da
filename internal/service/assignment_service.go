package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/repository"
	"github.com/rs/zerolog"
)

// Assignment domain errors.
var (
	ErrAlreadyAssigned   = errors.New("student already assigned to this exam")
	ErrAssignmentStarted = errors.New("assignment has been started and cannot be changed")
	ErrNotAStudent       = errors.New("assignee is not a student account")
)

// AssignmentService handles scheduling exams for students.
type AssignmentService struct {
	attemptRepo *repository.StudentExamRepository
	examRepo    *repository.ExamRepository
	userRepo    *repository.UserRepository
	log         zerolog.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	attemptRepo *repository.StudentExamRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	log zerolog.Logger,
) *AssignmentService {
	return &AssignmentService{
		attemptRepo: attemptRepo,
		examRepo:    examRepo,
		userRepo:    userRepo,
		log:         log.With().Str("component", "assignment_service").Logger(),
	}
}

// Assign schedules one exam for a batch of students. The inserts run in
// one transaction, so a duplicate anywhere rejects the request without
// leaving a partial rollout behind.
func (s *AssignmentService) Assign(ctx context.Context, examID int64, req *model.AssignStudentsRequest) ([]model.StudentExam, error) {
	if _, err := s.examRepo.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	for _, studentID := range req.StudentIDs {
		u, err := s.userRepo.GetByID(ctx, studentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrAssignmentNotFound
			}
			return nil, err
		}
		if u.Role != model.RoleStudent {
			return nil, ErrNotAStudent
		}
	}

	batch := make([]*model.StudentExam, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		batch = append(batch, &model.StudentExam{
			StudentID: studentID,
			ExamID:    examID,
			StartTime: req.StartTime,
		})
	}
	if err := s.attemptRepo.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, repository.ErrDuplicateAssignment) {
			return nil, ErrAlreadyAssigned
		}
		return nil, err
	}

	created := make([]model.StudentExam, 0, len(batch))
	for _, se := range batch {
		created = append(created, *se)
	}

	s.log.Info().
		Int64("exam_id", examID).
		Int("students", len(created)).
		Time("start_time", req.StartTime).
		Msg("exam assigned")
	return created, nil
}

// ListForStudent retrieves a student's assigned exams.
func (s *AssignmentService) ListForStudent(ctx context.Context, studentID int64) ([]model.AssignedExam, error) {
	return s.attemptRepo.ListByStudent(ctx, studentID)
}

// Reschedule moves a pending assignment's start time.
func (s *AssignmentService) Reschedule(ctx context.Context, assignmentID int64, req *model.UpdateAssignmentRequest) (*model.StudentExam, error) {
	a, err := s.attemptRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AttemptNotStarted {
		return nil, ErrAssignmentStarted
	}

	if err := s.attemptRepo.UpdateStartTime(ctx, assignmentID, req.StartTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Started between the read and the guarded update.
			return nil, ErrAssignmentStarted
		}
		return nil, err
	}
	a.StartTime = req.StartTime
	return a, nil
}

// Remove deletes a pending assignment.
func (s *AssignmentService) Remove(ctx context.Context, assignmentID int64) error {
	a, err := s.attemptRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.Status != model.AttemptNotStarted {
		return ErrAssignmentStarted
	}

	if err := s.attemptRepo.Delete(ctx, assignmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAssignmentStarted
		}
		return err
	}
	return nil
}
