package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/repository"
)

// ErrInvalidQuestion carries a per-type shape violation message.
type ErrInvalidQuestion struct {
	Reason string
}

func (e *ErrInvalidQuestion) Error() string {
	return "invalid question: " + e.Reason
}

// QuestionService handles question authoring. Edits are frozen once any
// student has started the exam, so every attempt is graded against the
// same paper.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	examRepo     *repository.ExamRepository
	attemptRepo  *repository.StudentExamRepository
	examService  *ExamService
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	examRepo *repository.ExamRepository,
	attemptRepo *repository.StudentExamRepository,
	examService *ExamService,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		examRepo:     examRepo,
		attemptRepo:  attemptRepo,
		examService:  examService,
	}
}

// ListByExam retrieves an exam's questions with answer data.
func (s *QuestionService) ListByExam(ctx context.Context, examID int64) ([]model.Question, error) {
	if _, err := s.examRepo.GetByID(ctx, examID); err != nil {
		return nil, err
	}
	return s.questionRepo.ListByExam(ctx, examID)
}

// Add creates a question on an exam.
func (s *QuestionService) Add(ctx context.Context, examID int64, req *model.AddQuestionRequest) (*model.Question, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, examID); err != nil {
		return nil, err
	}

	q, err := buildQuestion(exam, req)
	if err != nil {
		return nil, err
	}
	q.ExamID = examID

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	s.examService.invalidatePaper(ctx, examID)
	return q, nil
}

// Update replaces a question's content.
func (s *QuestionService) Update(ctx context.Context, examID, questionID int64, req *model.AddQuestionRequest) (*model.Question, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEditable(ctx, examID); err != nil {
		return nil, err
	}

	q, err := buildQuestion(exam, req)
	if err != nil {
		return nil, err
	}
	q.ID = questionID
	q.ExamID = examID

	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	s.examService.invalidatePaper(ctx, examID)
	return s.questionRepo.GetByID(ctx, questionID)
}

// Delete removes a question from an exam.
func (s *QuestionService) Delete(ctx context.Context, examID, questionID int64) error {
	if _, err := s.examRepo.GetByID(ctx, examID); err != nil {
		return err
	}
	if err := s.ensureEditable(ctx, examID); err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, examID, questionID); err != nil {
		return err
	}
	s.examService.invalidatePaper(ctx, examID)
	return nil
}

// ensureEditable rejects edits once any attempt on the exam has started.
func (s *QuestionService) ensureEditable(ctx context.Context, examID int64) error {
	started, err := s.attemptRepo.CountStartedByExam(ctx, examID)
	if err != nil {
		return err
	}
	if started > 0 {
		return ErrExamLocked
	}
	return nil
}

// buildQuestion validates the per-type shape of a question payload.
func buildQuestion(exam *model.Exam, req *model.AddQuestionRequest) (*model.Question, error) {
	q := &model.Question{
		QuestionText: req.QuestionText,
		QuestionType: req.QuestionType,
		Marks:        req.Marks,
	}

	switch req.QuestionType {
	case model.QuestionTypeMultipleChoice, model.QuestionTypeMultiSelect:
		if len(req.Options) < 2 {
			return nil, &ErrInvalidQuestion{Reason: "choice questions need at least 2 options"}
		}
		correct := 0
		for _, o := range req.Options {
			q.Options = append(q.Options, model.Option{OptionText: o.OptionText, IsCorrect: o.IsCorrect})
			if o.IsCorrect {
				correct++
			}
		}
		if req.QuestionType == model.QuestionTypeMultipleChoice && correct != 1 {
			return nil, &ErrInvalidQuestion{Reason: "multiple_choice needs exactly 1 correct option"}
		}
		if req.QuestionType == model.QuestionTypeMultiSelect && correct == 0 {
			return nil, &ErrInvalidQuestion{Reason: "multi_select needs at least 1 correct option"}
		}

	case model.QuestionTypeTrueFalse:
		if req.CorrectAnswer == nil {
			return nil, &ErrInvalidQuestion{Reason: "true_false needs correct_answer"}
		}
		if len(req.Options) > 0 {
			return nil, &ErrInvalidQuestion{Reason: "true_false takes no options"}
		}
		q.CorrectAnswer = req.CorrectAnswer

	case model.QuestionTypeCoding:
		if exam.ExamType != model.ExamTypeCoding {
			return nil, &ErrInvalidQuestion{Reason: "coding questions only on coding exams"}
		}
		if len(req.TestCases) == 0 {
			return nil, &ErrInvalidQuestion{Reason: "coding questions need at least 1 test case"}
		}
		for i, tc := range req.TestCases {
			q.TestCases = append(q.TestCases, model.TestCase{
				Input:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
				Position:       i,
			})
		}

	default:
		return nil, &ErrInvalidQuestion{Reason: fmt.Sprintf("unknown question type %q", req.QuestionType)}
	}

	return q, nil
}

// AsInvalidQuestion unwraps an ErrInvalidQuestion if present.
func AsInvalidQuestion(err error) (*ErrInvalidQuestion, bool) {
	var iq *ErrInvalidQuestion
	if errors.As(err, &iq) {
		return iq, true
	}
	return nil, false
}
