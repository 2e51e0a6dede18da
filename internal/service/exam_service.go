package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/repository"
	"github.com/priyankaksolves/student-exam-app/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Exam domain errors.
var (
	ErrNoQuestions = errors.New("exam has no questions, cannot publish")
	ErrExamLocked  = errors.New("exam has started attempts and is locked")
)

// paperCacheTTL bounds staleness if an exam row is mutated outside the
// service. Publishing re-warms the cache explicitly.
const paperCacheTTL = 12 * time.Hour

// ExamService handles exam authoring, publication, and the Redis-cached
// student paper.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	attemptRepo  *repository.StudentExamRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	attemptRepo *repository.StudentExamRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// Create inserts a new unpublished exam.
func (s *ExamService) Create(ctx context.Context, adminID int64, req *model.CreateExamRequest) (*model.Exam, error) {
	e := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		ExamType:        req.ExamType,
		PassMarks:       req.PassMarks,
		CreatedBy:       adminID,
	}
	if err := s.examRepo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().Int64("exam_id", e.ID).Str("title", e.Title).Msg("exam created")
	return e, nil
}

// GetByID retrieves an exam.
func (s *ExamService) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves exams with aggregate counts, paginated.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.ExamSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	exams, total, err := s.examRepo.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return exams, pagination, nil
}

// Update modifies an exam's metadata and drops the cached paper.
func (s *ExamService) Update(ctx context.Context, id int64, req *model.UpdateExamRequest) (*model.Exam, error) {
	e, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		e.DurationMinutes = *req.DurationMinutes
	}
	if req.PassMarks != nil {
		e.PassMarks = *req.PassMarks
	}

	if err := s.examRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.invalidatePaper(ctx, id)
	return e, nil
}

// Delete removes an exam unless attempts exist on it.
func (s *ExamService) Delete(ctx context.Context, id int64) error {
	if _, err := s.examRepo.GetByID(ctx, id); err != nil {
		return err
	}

	started, err := s.attemptRepo.CountStartedByExam(ctx, id)
	if err != nil {
		return err
	}
	if started > 0 {
		return ErrExamLocked
	}

	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePaper(ctx, id)
	s.log.Info().Int64("exam_id", id).Msg("exam deleted")
	return nil
}

// Publish flips an exam live and warms the paper cache. Requires at
// least one question.
func (s *ExamService) Publish(ctx context.Context, id int64) (*model.Exam, error) {
	e, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.questionRepo.CountByExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.examRepo.SetLive(ctx, id, true); err != nil {
		return nil, err
	}
	e.IsLive = true

	if _, err := s.warmPaper(ctx, e); err != nil {
		s.log.Warn().Err(err).Int64("exam_id", id).Msg("warm paper cache failed")
	}

	s.log.Info().Int64("exam_id", id).Msg("exam published")
	return e, nil
}

// Unpublish takes an exam offline. Already started attempts keep running.
func (s *ExamService) Unpublish(ctx context.Context, id int64) (*model.Exam, error) {
	e, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.examRepo.SetLive(ctx, id, false); err != nil {
		return nil, err
	}
	e.IsLive = false
	s.invalidatePaper(ctx, id)
	return e, nil
}

// Paper returns the student-facing exam payload, Redis first with a
// database fallback that re-warms the cache.
func (s *ExamService) Paper(ctx context.Context, examID int64) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(examID)

	raw, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		paper := &model.ExamPaper{}
		if jsonErr := json.Unmarshal([]byte(raw), paper); jsonErr == nil {
			return paper, nil
		}
		// Corrupt cache entry: rebuild below.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Int64("exam_id", examID).Msg("read paper cache failed")
	}

	e, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	return s.warmPaper(ctx, e)
}

// warmPaper (re)builds the cached paper from the database.
func (s *ExamService) warmPaper(ctx context.Context, e *model.Exam) (*model.ExamPaper, error) {
	questions, err := s.questionRepo.ListByExam(ctx, e.ID)
	if err != nil {
		return nil, err
	}

	paper := &model.ExamPaper{
		ExamID:          e.ID,
		Title:           e.Title,
		Description:     e.Description,
		DurationMinutes: e.DurationMinutes,
		ExamType:        e.ExamType,
		Questions:       make([]model.QuestionForStudent, 0, len(questions)),
	}

	for _, q := range questions {
		paper.TotalMarks += q.Marks

		qs := model.QuestionForStudent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Marks:        q.Marks,
			Position:     q.Position,
		}
		for _, o := range q.Options {
			qs.Options = append(qs.Options, model.OptionForStudent{ID: o.ID, OptionText: o.OptionText})
		}
		// Students see only the first test case as a worked sample.
		if q.QuestionType == model.QuestionTypeCoding && len(q.TestCases) > 0 {
			qs.SampleCase = &model.SampleTestCase{
				Input:          q.TestCases[0].Input,
				ExpectedOutput: q.TestCases[0].ExpectedOutput,
			}
		}
		paper.Questions = append(paper.Questions, qs)
	}

	raw, err := json.Marshal(paper)
	if err != nil {
		return nil, fmt.Errorf("encode paper: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamPaperKey(e.ID), raw, paperCacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Int64("exam_id", e.ID).Msg("write paper cache failed")
	}

	return paper, nil
}

func (s *ExamService) invalidatePaper(ctx context.Context, examID int64) {
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPaperKey(examID)).Err(); err != nil {
		s.log.Warn().Err(err).Int64("exam_id", examID).Msg("invalidate paper cache failed")
	}
}

// Results lists per-student outcomes for one exam, paginated.
func (s *ExamService) Results(ctx context.Context, examID int64, page, perPage int) ([]model.AssignmentResultRow, *response.Pagination, error) {
	if _, err := s.examRepo.GetByID(ctx, examID); err != nil {
		return nil, nil, err
	}

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	rows, total, err := s.attemptRepo.ListByExam(ctx, examID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return rows, pagination, nil
}
