package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/priyankaksolves/student-exam-app/internal/judge"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/repository"
	"github.com/priyankaksolves/student-exam-app/internal/scoring"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Code execution errors.
var (
	ErrNotCodingQuestion = errors.New("question is not a coding question")
	ErrQuestionNotFound  = errors.New("question not found on this exam")
	ErrTimeExpired       = errors.New("attempt time has expired")
)

const languageCacheTTL = 24 * time.Hour

// CodeService runs student code through the judge: ad-hoc runs against
// a sample input, and full submissions that grade every test case and
// record the verdict as the question's answer.
type CodeService struct {
	attempts    *repository.StudentExamRepository
	exams       *repository.ExamRepository
	questions   *repository.QuestionRepository
	submissions *repository.SubmissionRepository
	answers     *repository.AnswerRepository
	judge       *judge.Client
	cache       StateCache
	rdb         *redis.Client
	log         zerolog.Logger
	now         func() time.Time
}

// NewCodeService creates a new CodeService.
func NewCodeService(
	attempts *repository.StudentExamRepository,
	exams *repository.ExamRepository,
	questions *repository.QuestionRepository,
	submissions *repository.SubmissionRepository,
	answers *repository.AnswerRepository,
	judgeClient *judge.Client,
	cache StateCache,
	rdb *redis.Client,
	log zerolog.Logger,
) *CodeService {
	return &CodeService{
		attempts:    attempts,
		exams:       exams,
		questions:   questions,
		submissions: submissions,
		answers:     answers,
		judge:       judgeClient,
		cache:       cache,
		rdb:         rdb,
		log:         log.With().Str("component", "code_service").Logger(),
		now:         time.Now,
	}
}

// Languages returns the judge's language catalog, cached in Redis.
func (s *CodeService) Languages(ctx context.Context) ([]judge.Language, error) {
	key := config.CacheKey.JudgeLanguagesKey()

	if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
		var langs []judge.Language
		if jsonErr := json.Unmarshal([]byte(raw), &langs); jsonErr == nil {
			return langs, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("read language cache failed")
	}

	langs, err := s.judge.Languages(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(langs); err == nil {
		if err := s.rdb.Set(ctx, key, raw, languageCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("write language cache failed")
		}
	}
	return langs, nil
}

// Run executes code once against the question's sample case or a
// caller-supplied stdin, without grading. Returns the judge token for
// polling.
func (s *CodeService) Run(ctx context.Context, studentID, assignmentID, questionID int64, req *model.RunCodeRequest) (string, error) {
	q, _, err := s.activeCodingQuestion(ctx, studentID, assignmentID, questionID)
	if err != nil {
		return "", err
	}

	stdin := req.Stdin
	if stdin == "" && len(q.TestCases) > 0 {
		stdin = q.TestCases[0].Input
	}

	return s.judge.CreateSubmission(ctx, judge.Submission{
		SourceCode: req.SourceCode,
		LanguageID: req.LanguageID,
		Stdin:      stdin,
	})
}

// Poll fetches the state of one ad-hoc run.
func (s *CodeService) Poll(ctx context.Context, token string) (*judge.Result, error) {
	return s.judge.GetSubmission(ctx, token)
}

// SubmitCode judges code against the question's full test suite and
// records the verdict. The latest verdict per question is what the
// scoring engine grades.
func (s *CodeService) SubmitCode(ctx context.Context, studentID, assignmentID, questionID int64, req *model.SubmitCodeRequest) (*model.CodeVerdict, error) {
	q, attempt, err := s.activeCodingQuestion(ctx, studentID, assignmentID, questionID)
	if err != nil {
		return nil, err
	}

	subs := make([]judge.Submission, len(q.TestCases))
	for i, tc := range q.TestCases {
		subs[i] = judge.Submission{
			SourceCode:     req.SourceCode,
			LanguageID:     req.LanguageID,
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	tokens, err := s.judge.CreateBatch(ctx, subs)
	if err != nil {
		return nil, err
	}
	results, err := s.judge.WaitForBatch(ctx, tokens)
	if err != nil {
		return nil, err
	}

	verdict := &model.CodeVerdict{
		QuestionID: questionID,
		TestsTotal: len(results),
		Cases:      make([]model.TestCaseResult, len(results)),
	}
	for i, r := range results {
		passed := r.Accepted()
		if passed {
			verdict.TestsPassed++
		}
		caseResult := model.TestCaseResult{
			Position:    i,
			StatusID:    r.Status.ID,
			Description: r.Status.Description,
			Passed:      passed,
			TimeSeconds: r.Time,
		}
		// The sample case exposes output to help debugging; hidden
		// cases reveal the verdict only.
		if i == 0 {
			caseResult.Stdout = r.Stdout
		}
		verdict.Cases[i] = caseResult
	}
	verdict.Passed = verdict.TestsPassed == verdict.TestsTotal

	sub := &model.CodeSubmission{
		StudentExamID: attempt.ID,
		QuestionID:    questionID,
		LanguageID:    req.LanguageID,
		SourceCode:    req.SourceCode,
		TestsPassed:   verdict.TestsPassed,
		TestsTotal:    verdict.TestsTotal,
		Passed:        verdict.Passed,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, err
	}
	verdict.SubmissionID = sub.ID

	if err := s.answers.UpsertCoding(ctx, attempt.ID, questionID, sub.ID, verdict.TestsPassed, verdict.TestsTotal); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("assignment_id", attempt.ID).
		Int64("question_id", questionID).
		Int("tests_passed", verdict.TestsPassed).
		Int("tests_total", verdict.TestsTotal).
		Msg("code submission judged")

	return verdict, nil
}

// activeCodingQuestion validates that the attempt is running with time
// left and that the question is a coding question on its exam.
func (s *CodeService) activeCodingQuestion(ctx context.Context, studentID, assignmentID, questionID int64) (*model.Question, *model.StudentExam, error) {
	attempt, err := s.attempts.GetForStudent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrAssignmentNotFound
		}
		return nil, nil, err
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, nil, ErrAttemptNotActive
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, nil, err
	}
	if attempt.StartedAt != nil &&
		scoring.RemainingAt(exam.DurationMinutes, *attempt.StartedAt, s.now()) == 0 {
		return nil, nil, ErrTimeExpired
	}

	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrQuestionNotFound
		}
		return nil, nil, err
	}
	if q.ExamID != attempt.ExamID {
		return nil, nil, ErrQuestionNotFound
	}
	if q.QuestionType != model.QuestionTypeCoding {
		return nil, nil, ErrNotCodingQuestion
	}
	return q, attempt, nil
}
