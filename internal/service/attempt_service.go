package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/priyankaksolves/student-exam-app/internal/scoring"
	"github.com/rs/zerolog"
)

// Attempt lifecycle errors.
var (
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrExamNotLive        = errors.New("exam is not published")
	ErrAlreadyStarted     = errors.New("attempt already started")
	ErrAlreadyCompleted   = errors.New("attempt already completed")
	ErrNotStarted         = errors.New("attempt has not been started")
	ErrAttemptNotActive   = errors.New("attempt is not in progress")
	ErrResultNotReady     = errors.New("attempt is not completed yet")
)

// AttemptStore is the persistence surface the attempt lifecycle needs.
// Implemented by repository.StudentExamRepository.
type AttemptStore interface {
	GetByID(ctx context.Context, id int64) (*model.StudentExam, error)
	GetForStudent(ctx context.Context, id, studentID int64) (*model.StudentExam, error)
	MarkStarted(ctx context.Context, id int64, now time.Time) (bool, error)
	Finalize(ctx context.Context, id int64, score int, passed bool, now time.Time, answers []model.Answer) (bool, error)
}

// ExamStore loads exam definitions. Implemented by repository.ExamRepository.
type ExamStore interface {
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
}

// QuestionStore loads an exam's questions with answer data.
// Implemented by repository.QuestionRepository.
type QuestionStore interface {
	ListByExam(ctx context.Context, examID int64) ([]model.Question, error)
}

// AnswerStore loads recorded answers. Implemented by repository.AnswerRepository.
type AnswerStore interface {
	ListByAttempt(ctx context.Context, attemptID int64) ([]model.Answer, error)
}

// ExpiryScheduler tracks attempt deadlines for the expiry worker.
type ExpiryScheduler interface {
	Schedule(ctx context.Context, attemptID int64, deadline time.Time) error
	Cancel(ctx context.Context, attemptID int64) error
}

// AttemptService drives the attempt state machine: not_started →
// in_progress → completed. Every transition is a database
// compare-and-set, so each attempt starts once and is scored exactly
// once no matter how submit and expiry race.
type AttemptService struct {
	attempts  AttemptStore
	exams     ExamStore
	questions QuestionStore
	answers   AnswerStore
	scheduler ExpiryScheduler
	cache     StateCache
	log       zerolog.Logger
	now       func() time.Time
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	attempts AttemptStore,
	exams ExamStore,
	questions QuestionStore,
	answers AnswerStore,
	scheduler ExpiryScheduler,
	cache StateCache,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		attempts:  attempts,
		exams:     exams,
		questions: questions,
		answers:   answers,
		scheduler: scheduler,
		cache:     cache,
		log:       log.With().Str("component", "attempt_service").Logger(),
		now:       time.Now,
	}
}

// Start transitions an assignment to in_progress and pins the clock.
// The first successful call's timestamp is the timing authority for the
// whole attempt; losers of the race get ErrAlreadyStarted.
func (s *AttemptService) Start(ctx context.Context, studentID, assignmentID int64) (*model.AttemptStartResult, error) {
	a, err := s.getOwned(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case model.AttemptCompleted:
		return nil, ErrAlreadyCompleted
	case model.AttemptInProgress:
		return nil, ErrAlreadyStarted
	}

	exam, err := s.exams.GetByID(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	if !exam.IsLive {
		return nil, ErrExamNotLive
	}

	// The scheduled start_time is advisory. Students may begin early;
	// the clock runs from the actual start either way.
	now := s.now()
	ok, err := s.attempts.MarkStarted(ctx, a.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race. Re-read to report the state the winner produced.
		fresh, err := s.attempts.GetByID(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if fresh.Status == model.AttemptCompleted {
			return nil, ErrAlreadyCompleted
		}
		return nil, ErrAlreadyStarted
	}

	duration := time.Duration(exam.DurationMinutes) * time.Minute
	if err := s.cache.SetStartTime(ctx, a.ID, now, duration+time.Hour); err != nil {
		s.log.Warn().Err(err).Int64("assignment_id", a.ID).Msg("cache start time failed")
	}
	if err := s.scheduler.Schedule(ctx, a.ID, scoring.Deadline(exam.DurationMinutes, now)); err != nil {
		s.log.Warn().Err(err).Int64("assignment_id", a.ID).Msg("schedule expiry failed")
	}

	s.log.Info().
		Int64("assignment_id", a.ID).
		Int64("student_id", studentID).
		Int64("exam_id", a.ExamID).
		Msg("attempt started")

	return &model.AttemptStartResult{
		AssignmentID:     a.ID,
		Status:           model.AttemptInProgress,
		StartedAt:        now,
		RemainingSeconds: int64(duration.Seconds()),
	}, nil
}

// State returns the resumable view of an attempt. Remaining time is
// derived purely from the recorded start, so refreshing or reconnecting
// never stretches the clock.
func (s *AttemptService) State(ctx context.Context, studentID, assignmentID int64) (*model.AttemptState, error) {
	a, err := s.getOwned(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}

	state := &model.AttemptState{
		AssignmentID: a.ID,
		ExamID:       a.ExamID,
		Status:       a.Status,
	}

	switch a.Status {
	case model.AttemptNotStarted:
		state.RemainingSeconds = int64(exam.DurationMinutes) * 60

	case model.AttemptInProgress:
		startedAt, err := s.startedAt(ctx, a)
		if err != nil {
			return nil, err
		}
		state.StartedAt = &startedAt
		state.RemainingSeconds = int64(scoring.RemainingAt(exam.DurationMinutes, startedAt, s.now()).Seconds())

		saved, err := s.cache.Answers(ctx, a.ID)
		if err != nil {
			s.log.Warn().Err(err).Int64("assignment_id", a.ID).Msg("load autosaved answers failed")
		} else if len(saved) > 0 {
			state.SavedAnswers = saved
		}

	case model.AttemptCompleted:
		state.StartedAt = a.StartedAt
		state.RemainingSeconds = 0
	}

	return state, nil
}

// Submit grades an attempt and completes it. Submitting an already
// completed attempt returns the recorded result rather than an error,
// so client retries after a timeout are harmless. A submit that lands
// after expiry but wins the status race is honored with whatever was
// answered.
func (s *AttemptService) Submit(ctx context.Context, studentID, assignmentID int64, inputs []model.AnswerInput) (*model.ExamResult, error) {
	a, err := s.getOwned(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	switch a.Status {
	case model.AttemptNotStarted:
		return nil, ErrNotStarted
	case model.AttemptCompleted:
		return s.buildResult(ctx, a)
	}

	result, finalized, err := s.finalize(ctx, a, inputs)
	if err != nil {
		return nil, err
	}
	if !finalized {
		// Expiry got there first. The recorded result stands.
		fresh, err := s.attempts.GetByID(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if fresh.Status != model.AttemptCompleted {
			return nil, ErrAttemptNotActive
		}
		return s.buildResult(ctx, fresh)
	}
	return result, nil
}

// Expire force-completes an overdue attempt, grading whatever answers
// were recorded. Safe to call repeatedly and on attempts that already
// settled.
func (s *AttemptService) Expire(ctx context.Context, assignmentID int64) error {
	a, err := s.attempts.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if a.Status != model.AttemptInProgress {
		return nil
	}

	_, finalized, err := s.finalize(ctx, a, nil)
	if err != nil {
		return err
	}
	if finalized {
		s.log.Info().Int64("assignment_id", a.ID).Msg("attempt expired")
	}
	return nil
}

// Result returns the graded outcome of a completed attempt.
func (s *AttemptService) Result(ctx context.Context, studentID, assignmentID int64) (*model.ExamResult, error) {
	a, err := s.getOwned(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}
	if a.Status != model.AttemptCompleted {
		return nil, ErrResultNotReady
	}
	return s.buildResult(ctx, a)
}

// finalize grades and completes one in_progress attempt. The returned
// bool reports whether this caller won the completion race.
func (s *AttemptService) finalize(ctx context.Context, a *model.StudentExam, inputs []model.AnswerInput) (*model.ExamResult, bool, error) {
	exam, err := s.exams.GetByID(ctx, a.ExamID)
	if err != nil {
		return nil, false, err
	}
	questions, err := s.questions.ListByExam(ctx, a.ExamID)
	if err != nil {
		return nil, false, err
	}

	merged, err := s.mergeAnswers(ctx, a.ID, questions, inputs)
	if err != nil {
		return nil, false, err
	}

	outcome := scoring.Grade(questions, merged, exam.PassMarks)
	now := s.now()

	ok, err := s.attempts.Finalize(ctx, a.ID, outcome.ObtainedMarks, outcome.Passed, now, merged)
	if err != nil {
		return nil, false, fmt.Errorf("finalize attempt: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	if err := s.scheduler.Cancel(ctx, a.ID); err != nil {
		s.log.Warn().Err(err).Int64("assignment_id", a.ID).Msg("cancel expiry failed")
	}
	if err := s.cache.Clear(ctx, a.ID); err != nil {
		s.log.Warn().Err(err).Int64("assignment_id", a.ID).Msg("clear attempt cache failed")
	}

	s.log.Info().
		Int64("assignment_id", a.ID).
		Int("score", outcome.ObtainedMarks).
		Int("total", outcome.TotalMarks).
		Bool("passed", outcome.Passed).
		Msg("attempt scored")

	return &model.ExamResult{
		AssignmentID:  a.ID,
		ExamID:        a.ExamID,
		ObtainedMarks: outcome.ObtainedMarks,
		TotalMarks:    outcome.TotalMarks,
		PassMarks:     exam.PassMarks,
		Passed:        outcome.Passed,
		FinishedAt:    &now,
	}, true, nil
}

// mergeAnswers combines recorded answers (autosaves and judged code
// submissions) with the submit payload. The payload wins for choice and
// boolean questions; coding answers always come from recorded judge
// verdicts, so clients cannot self-grade code. Autosaves still sitting
// in the state cache fill the gaps, so an answer saved in the final
// second counts even when expiry beats the persistence worker.
func (s *AttemptService) mergeAnswers(ctx context.Context, attemptID int64, questions []model.Question, inputs []model.AnswerInput) ([]model.Answer, error) {
	recorded, err := s.answers.ListByAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[int64]model.Answer, len(recorded))
	for _, a := range recorded {
		byQuestion[a.QuestionID] = a
	}

	qTypes := make(map[int64]model.QuestionType, len(questions))
	for _, q := range questions {
		qTypes[q.ID] = q.QuestionType
	}

	cached, err := s.cache.Answers(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("read cached answers: %w", err)
	}
	for qidStr, payload := range cached {
		qid, err := strconv.ParseInt(qidStr, 10, 64)
		if err != nil {
			continue
		}
		if _, ok := byQuestion[qid]; ok {
			continue
		}
		qt, ok := qTypes[qid]
		if !ok || qt == model.QuestionTypeCoding {
			continue
		}
		var in model.AnswerInput
		if err := json.Unmarshal([]byte(payload), &in); err != nil {
			s.log.Warn().Int64("assignment_id", attemptID).Str("question_id", qidStr).Msg("corrupt cached answer skipped")
			continue
		}
		byQuestion[qid] = model.Answer{
			StudentExamID:     attemptID,
			QuestionID:        qid,
			QuestionType:      qt,
			SelectedOptionIDs: in.SelectedOptionIDs,
			BoolAnswer:        in.BoolAnswer,
		}
	}

	for _, in := range inputs {
		qt, ok := qTypes[in.QuestionID]
		if !ok || qt == model.QuestionTypeCoding {
			continue
		}
		byQuestion[in.QuestionID] = model.Answer{
			StudentExamID:     attemptID,
			QuestionID:        in.QuestionID,
			QuestionType:      qt,
			SelectedOptionIDs: in.SelectedOptionIDs,
			BoolAnswer:        in.BoolAnswer,
		}
	}

	merged := make([]model.Answer, 0, len(byQuestion))
	for _, q := range questions {
		if a, ok := byQuestion[q.ID]; ok {
			merged = append(merged, a)
		}
	}
	return merged, nil
}

// startedAt reads the attempt clock, Redis first with a database
// fallback that re-warms the cache.
func (s *AttemptService) startedAt(ctx context.Context, a *model.StudentExam) (time.Time, error) {
	if t, ok, err := s.cache.StartTime(ctx, a.ID); err == nil && ok {
		return t, nil
	} else if err != nil {
		s.log.Warn().Err(err).Int64("assignment_id", a.ID).Msg("read start time cache failed")
	}

	if a.StartedAt == nil {
		return time.Time{}, ErrNotStarted
	}
	if err := s.cache.SetStartTime(ctx, a.ID, *a.StartedAt, time.Hour); err != nil {
		s.log.Warn().Err(err).Int64("assignment_id", a.ID).Msg("re-warm start time cache failed")
	}
	return *a.StartedAt, nil
}

func (s *AttemptService) buildResult(ctx context.Context, a *model.StudentExam) (*model.ExamResult, error) {
	exam, err := s.exams.GetByID(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByExam(ctx, a.ExamID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, q := range questions {
		total += q.Marks
	}

	score := 0
	if a.Score != nil {
		score = *a.Score
	}
	passed := false
	if a.Passed != nil {
		passed = *a.Passed
	}

	return &model.ExamResult{
		AssignmentID:  a.ID,
		ExamID:        a.ExamID,
		ObtainedMarks: score,
		TotalMarks:    total,
		PassMarks:     exam.PassMarks,
		Passed:        passed,
		FinishedAt:    a.FinishedAt,
	}, nil
}

func (s *AttemptService) getOwned(ctx context.Context, assignmentID, studentID int64) (*model.StudentExam, error) {
	a, err := s.attempts.GetForStudent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return a, nil
}
