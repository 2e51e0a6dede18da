package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/priyankaksolves/student-exam-app/internal/model"
	"github.com/rs/zerolog"
)

// fakeAttemptStore mimics the database CAS semantics under a mutex.
type fakeAttemptStore struct {
	mu            sync.Mutex
	rows          map[int64]*model.StudentExam
	finalizeCalls int
	savedAnswers  map[int64][]model.Answer
}

func newFakeAttemptStore(rows ...*model.StudentExam) *fakeAttemptStore {
	m := make(map[int64]*model.StudentExam, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return &fakeAttemptStore{rows: m, savedAnswers: make(map[int64][]model.Answer)}
}

func (f *fakeAttemptStore) GetByID(_ context.Context, id int64) (*model.StudentExam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeAttemptStore) GetForStudent(_ context.Context, id, studentID int64) (*model.StudentExam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.StudentID != studentID {
		return nil, pgx.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeAttemptStore) MarkStarted(_ context.Context, id int64, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != model.AttemptNotStarted {
		return false, nil
	}
	r.Status = model.AttemptInProgress
	t := now
	r.StartedAt = &t
	return true, nil
}

func (f *fakeAttemptStore) Finalize(_ context.Context, id int64, score int, passed bool, now time.Time, answers []model.Answer) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != model.AttemptInProgress {
		return false, nil
	}
	r.Status = model.AttemptCompleted
	r.Score = &score
	r.Passed = &passed
	t := now
	r.FinishedAt = &t
	f.finalizeCalls++
	f.savedAnswers[id] = answers
	return true, nil
}

type fakeExamStore struct{ exams map[int64]*model.Exam }

func (f *fakeExamStore) GetByID(_ context.Context, id int64) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

type fakeQuestionStore struct{ questions []model.Question }

func (f *fakeQuestionStore) ListByExam(context.Context, int64) ([]model.Question, error) {
	return f.questions, nil
}

type fakeAnswerStore struct {
	mu      sync.Mutex
	answers map[int64][]model.Answer
}

func (f *fakeAnswerStore) ListByAttempt(_ context.Context, attemptID int64) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[attemptID], nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[int64]time.Time
	cancelled map[int64]bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[int64]time.Time), cancelled: make(map[int64]bool)}
}

func (f *fakeScheduler) Schedule(_ context.Context, id int64, deadline time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[id] = deadline
	return nil
}

func (f *fakeScheduler) Cancel(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled[id] = true
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	starts  map[int64]time.Time
	answers map[int64]map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{starts: make(map[int64]time.Time), answers: make(map[int64]map[string]string)}
}

func (f *fakeCache) SetStartTime(_ context.Context, id int64, t time.Time, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts[id] = t
	return nil
}

func (f *fakeCache) StartTime(_ context.Context, id int64) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.starts[id]
	return t, ok, nil
}

func (f *fakeCache) SaveAnswer(_ context.Context, id int64, qid, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answers[id] == nil {
		f.answers[id] = make(map[string]string)
	}
	f.answers[id][qid] = payload
	return nil
}

func (f *fakeCache) Answers(_ context.Context, id int64) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[id], nil
}

func (f *fakeCache) Clear(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.starts, id)
	delete(f.answers, id)
	return nil
}

func liveExam() *model.Exam {
	return &model.Exam{
		ID:              1,
		Title:           "Go Basics",
		DurationMinutes: 30,
		ExamType:        model.ExamTypeAptitude,
		PassMarks:       2,
		IsLive:          true,
	}
}

func boolRef(b bool) *bool { return &b }

func testQuestions() []model.Question {
	return []model.Question{
		{
			ID: 10, ExamID: 1, QuestionType: model.QuestionTypeMultipleChoice, Marks: 2,
			Options: []model.Option{{ID: 101, IsCorrect: true}, {ID: 102}},
		},
		{
			ID: 11, ExamID: 1, QuestionType: model.QuestionTypeTrueFalse, Marks: 1,
			CorrectAnswer: boolRef(true),
		},
	}
}

func newTestService(store *fakeAttemptStore, exam *model.Exam, questions []model.Question, answers *fakeAnswerStore) (*AttemptService, *fakeScheduler, *fakeCache) {
	if answers == nil {
		answers = &fakeAnswerStore{answers: make(map[int64][]model.Answer)}
	}
	sched := newFakeScheduler()
	cache := newFakeCache()
	svc := NewAttemptService(
		store,
		&fakeExamStore{exams: map[int64]*model.Exam{exam.ID: exam}},
		&fakeQuestionStore{questions: questions},
		answers,
		sched,
		cache,
		zerolog.Nop(),
	)
	return svc, sched, cache
}

func pendingAssignment() *model.StudentExam {
	return &model.StudentExam{
		ID:        100,
		StudentID: 5,
		ExamID:    1,
		StartTime: time.Now().Add(-time.Minute),
		Status:    model.AttemptNotStarted,
	}
}

func TestStartConcurrentSingleWinner(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, sched, _ := newTestService(store, liveExam(), testQuestions(), nil)

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, alreadyStarted int

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(context.Background(), 5, 100)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyStarted):
				alreadyStarted++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if alreadyStarted != n-1 {
		t.Fatalf("already_started = %d, want %d", alreadyStarted, n-1)
	}
	if len(sched.scheduled) != 1 {
		t.Fatalf("scheduled deadlines = %d, want 1", len(sched.scheduled))
	}
}

func TestStartRejectsUnpublished(t *testing.T) {
	exam := liveExam()
	exam.IsLive = false
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, exam, testQuestions(), nil)

	if _, err := svc.Start(context.Background(), 5, 100); !errors.Is(err, ErrExamNotLive) {
		t.Fatalf("err = %v, want ErrExamNotLive", err)
	}
}

func TestStartBeforeScheduledTime(t *testing.T) {
	// The scheduled start_time is advisory, so starting ahead of it
	// works and the full duration runs from the actual start.
	future := pendingAssignment()
	future.StartTime = time.Now().Add(time.Hour)
	store := newFakeAttemptStore(future)
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	res, err := svc.Start(context.Background(), 5, 100)
	if err != nil {
		t.Fatalf("Start before scheduled time: %v", err)
	}
	if res.Status != model.AttemptInProgress {
		t.Fatalf("status = %s, want in_progress", res.Status)
	}
	if res.RemainingSeconds != 30*60 {
		t.Fatalf("remaining = %d, want %d", res.RemainingSeconds, 30*60)
	}
}

func TestStartWrongStudent(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	if _, err := svc.Start(context.Background(), 99, 100); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("err = %v, want ErrAssignmentNotFound", err)
	}
}

func TestSubmitGradesAndCompletes(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, sched, _ := newTestService(store, liveExam(), testQuestions(), nil)

	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}

	res, err := svc.Submit(context.Background(), 5, 100, []model.AnswerInput{
		{QuestionID: 10, SelectedOptionIDs: []int64{101}},
		{QuestionID: 11, BoolAnswer: boolRef(false)},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if res.ObtainedMarks != 2 || res.TotalMarks != 3 {
		t.Fatalf("score = %d/%d, want 2/3", res.ObtainedMarks, res.TotalMarks)
	}
	if !res.Passed {
		t.Fatalf("expected pass at pass_marks=2")
	}
	if !sched.cancelled[100] {
		t.Fatalf("expiry deadline not cancelled after submit")
	}
}

func TestSubmitIdempotent(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}

	answers := []model.AnswerInput{{QuestionID: 10, SelectedOptionIDs: []int64{101}}}
	first, err := svc.Submit(context.Background(), 5, 100, answers)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// A retry with different answers must not change the recorded result.
	second, err := svc.Submit(context.Background(), 5, 100, []model.AnswerInput{
		{QuestionID: 10, SelectedOptionIDs: []int64{102}},
	})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	if first.ObtainedMarks != second.ObtainedMarks || first.Passed != second.Passed {
		t.Fatalf("retry changed result: %+v vs %+v", first, second)
	}
	if store.finalizeCalls != 1 {
		t.Fatalf("finalize calls = %d, want 1", store.finalizeCalls)
	}
}

func TestSubmitBeforeStart(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	if _, err := svc.Submit(context.Background(), 5, 100, nil); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
}

func TestSubmitExpireRaceScoresOnce(t *testing.T) {
	for round := 0; round < 50; round++ {
		store := newFakeAttemptStore(pendingAssignment())
		svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

		if _, err := svc.Start(context.Background(), 5, 100); err != nil {
			t.Fatalf("Start: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(context.Background(), 5, 100, []model.AnswerInput{
				{QuestionID: 10, SelectedOptionIDs: []int64{101}},
			})
			if err != nil {
				t.Errorf("Submit: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := svc.Expire(context.Background(), 100); err != nil {
				t.Errorf("Expire: %v", err)
			}
		}()
		wg.Wait()

		if store.finalizeCalls != 1 {
			t.Fatalf("round %d: finalize calls = %d, want 1", round, store.finalizeCalls)
		}
		row, _ := store.GetByID(context.Background(), 100)
		if row.Status != model.AttemptCompleted {
			t.Fatalf("round %d: status = %s, want completed", round, row.Status)
		}
	}
}

func TestExpireGradesRecordedAnswers(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	answers := &fakeAnswerStore{answers: map[int64][]model.Answer{
		100: {{StudentExamID: 100, QuestionID: 10, QuestionType: model.QuestionTypeMultipleChoice, SelectedOptionIDs: []int64{101}}},
	}}
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), answers)

	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Expire(context.Background(), 100); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	row, _ := store.GetByID(context.Background(), 100)
	if row.Status != model.AttemptCompleted {
		t.Fatalf("status = %s, want completed", row.Status)
	}
	if row.Score == nil || *row.Score != 2 {
		t.Fatalf("score = %v, want 2 from autosaved answer", row.Score)
	}

	// Second expiry is a no-op.
	if err := svc.Expire(context.Background(), 100); err != nil {
		t.Fatalf("repeat Expire: %v", err)
	}
	if store.finalizeCalls != 1 {
		t.Fatalf("finalize calls = %d, want 1", store.finalizeCalls)
	}
}

func TestExpireGradesCachedAutosaves(t *testing.T) {
	// An answer autosaved to the cache but not yet persisted by the
	// worker still counts when the deadline forces completion.
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, cache := newTestService(store, liveExam(), testQuestions(), nil)

	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := cache.SaveAnswer(context.Background(), 100, "10", `{"question_id":10,"selected_option_ids":[101]}`); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if err := svc.Expire(context.Background(), 100); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	row, _ := store.GetByID(context.Background(), 100)
	if row.Status != model.AttemptCompleted {
		t.Fatalf("status = %s, want completed", row.Status)
	}
	if row.Score == nil || *row.Score != 2 {
		t.Fatalf("score = %v, want 2 from cached autosave", row.Score)
	}
}

func TestExpirePrefersPersistedOverCached(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	answers := &fakeAnswerStore{answers: map[int64][]model.Answer{
		100: {{StudentExamID: 100, QuestionID: 11, QuestionType: model.QuestionTypeTrueFalse, BoolAnswer: boolRef(false)}},
	}}
	svc, _, cache := newTestService(store, liveExam(), testQuestions(), answers)

	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Cache holds a correct answer for 10 and a stale one for 11. The
	// persisted row for 11 wins, so only question 10 scores.
	cache.SaveAnswer(context.Background(), 100, "10", `{"question_id":10,"selected_option_ids":[101]}`)
	cache.SaveAnswer(context.Background(), 100, "11", `{"question_id":11,"bool_answer":true}`)
	if err := svc.Expire(context.Background(), 100); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	row, _ := store.GetByID(context.Background(), 100)
	if row.Score == nil || *row.Score != 2 {
		t.Fatalf("score = %v, want 2", row.Score)
	}
}

func TestExpireUnknownAttempt(t *testing.T) {
	store := newFakeAttemptStore()
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	if err := svc.Expire(context.Background(), 999); err != nil {
		t.Fatalf("Expire on missing row: %v", err)
	}
}

func TestStateClockDoesNotReset(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	started := time.Now().Add(-10 * time.Minute)
	svc.now = func() time.Time { return started }
	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}

	svc.now = time.Now
	st, err := svc.State(context.Background(), 5, 100)
	if err != nil {
		t.Fatalf("State: %v", err)
	}

	// 30 minute exam, 10 minutes elapsed: about 20 minutes left.
	if st.RemainingSeconds > 20*60 || st.RemainingSeconds < 20*60-5 {
		t.Fatalf("remaining = %ds, want ~1200", st.RemainingSeconds)
	}

	again, err := svc.State(context.Background(), 5, 100)
	if err != nil {
		t.Fatalf("State again: %v", err)
	}
	if again.RemainingSeconds > st.RemainingSeconds {
		t.Fatalf("remaining grew between reads: %d → %d", st.RemainingSeconds, again.RemainingSeconds)
	}
}

func TestStateAfterDeadlineClampsToZero(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	past := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return past }
	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}

	svc.now = time.Now
	st, err := svc.State(context.Background(), 5, 100)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.RemainingSeconds != 0 {
		t.Fatalf("remaining = %d, want 0 after deadline", st.RemainingSeconds)
	}
}

func TestResultOnlyWhenCompleted(t *testing.T) {
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, liveExam(), testQuestions(), nil)

	if _, err := svc.Result(context.Background(), 5, 100); !errors.Is(err, ErrResultNotReady) {
		t.Fatalf("err = %v, want ErrResultNotReady", err)
	}

	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Result(context.Background(), 5, 100); !errors.Is(err, ErrResultNotReady) {
		t.Fatalf("err = %v, want ErrResultNotReady while in progress", err)
	}

	if _, err := svc.Submit(context.Background(), 5, 100, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	res, err := svc.Result(context.Background(), 5, 100)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.TotalMarks != 3 {
		t.Fatalf("total = %d, want 3", res.TotalMarks)
	}
}

func TestSubmitCannotSelfGradeCoding(t *testing.T) {
	questions := append(testQuestions(), model.Question{
		ID: 12, ExamID: 1, QuestionType: model.QuestionTypeCoding, Marks: 5,
		TestCases: []model.TestCase{{ID: 1, Input: "1", ExpectedOutput: "1"}},
	})
	store := newFakeAttemptStore(pendingAssignment())
	svc, _, _ := newTestService(store, liveExam(), questions, nil)

	if _, err := svc.Start(context.Background(), 5, 100); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// A submit payload naming the coding question is ignored; with no
	// recorded judge verdict the question scores zero.
	res, err := svc.Submit(context.Background(), 5, 100, []model.AnswerInput{
		{QuestionID: 12, SelectedOptionIDs: []int64{1}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ObtainedMarks != 0 {
		t.Fatalf("score = %d, want 0", res.ObtainedMarks)
	}
}
