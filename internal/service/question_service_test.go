package service

import (
	"testing"

	"github.com/priyankaksolves/student-exam-app/internal/model"
)

func aptitudeExam() *model.Exam {
	return &model.Exam{ID: 1, ExamType: model.ExamTypeAptitude}
}

func codingExam() *model.Exam {
	return &model.Exam{ID: 2, ExamType: model.ExamTypeCoding}
}

func TestBuildQuestionMultipleChoice(t *testing.T) {
	req := &model.AddQuestionRequest{
		QuestionText: "2+2?",
		QuestionType: model.QuestionTypeMultipleChoice,
		Marks:        2,
		Options: []model.OptionInput{
			{OptionText: "3"},
			{OptionText: "4", IsCorrect: true},
		},
	}

	q, err := buildQuestion(aptitudeExam(), req)
	if err != nil {
		t.Fatalf("buildQuestion: %v", err)
	}
	if len(q.Options) != 2 || !q.Options[1].IsCorrect {
		t.Fatalf("options not carried over: %+v", q.Options)
	}
}

func TestBuildQuestionMultipleChoiceCorrectCount(t *testing.T) {
	cases := []struct {
		name    string
		correct []bool
		wantErr bool
	}{
		{"no correct option", []bool{false, false}, true},
		{"exactly one", []bool{true, false}, false},
		{"two correct", []bool{true, true}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &model.AddQuestionRequest{
				QuestionText: "q",
				QuestionType: model.QuestionTypeMultipleChoice,
				Marks:        1,
			}
			for i, c := range tc.correct {
				req.Options = append(req.Options, model.OptionInput{
					OptionText: string(rune('a' + i)),
					IsCorrect:  c,
				})
			}

			_, err := buildQuestion(aptitudeExam(), req)
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBuildQuestionMultiSelectNeedsCorrectOption(t *testing.T) {
	req := &model.AddQuestionRequest{
		QuestionText: "pick primes",
		QuestionType: model.QuestionTypeMultiSelect,
		Marks:        2,
		Options: []model.OptionInput{
			{OptionText: "4"},
			{OptionText: "6"},
		},
	}

	_, err := buildQuestion(aptitudeExam(), req)
	if _, ok := AsInvalidQuestion(err); !ok {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}

	req.Options[0].IsCorrect = true
	if _, err := buildQuestion(aptitudeExam(), req); err != nil {
		t.Fatalf("one correct option should be enough: %v", err)
	}
}

func TestBuildQuestionChoiceNeedsTwoOptions(t *testing.T) {
	req := &model.AddQuestionRequest{
		QuestionText: "q",
		QuestionType: model.QuestionTypeMultipleChoice,
		Marks:        1,
		Options:      []model.OptionInput{{OptionText: "only", IsCorrect: true}},
	}

	if _, err := buildQuestion(aptitudeExam(), req); err == nil {
		t.Fatal("expected error for a single option")
	}
}

func TestBuildQuestionTrueFalse(t *testing.T) {
	req := &model.AddQuestionRequest{
		QuestionText: "the sky is green",
		QuestionType: model.QuestionTypeTrueFalse,
		Marks:        1,
	}

	if _, err := buildQuestion(aptitudeExam(), req); err == nil {
		t.Fatal("expected error without correct_answer")
	}

	answer := false
	req.CorrectAnswer = &answer
	q, err := buildQuestion(aptitudeExam(), req)
	if err != nil {
		t.Fatalf("buildQuestion: %v", err)
	}
	if q.CorrectAnswer == nil || *q.CorrectAnswer {
		t.Fatalf("correct answer not carried over: %+v", q.CorrectAnswer)
	}

	req.Options = []model.OptionInput{{OptionText: "true"}}
	if _, err := buildQuestion(aptitudeExam(), req); err == nil {
		t.Fatal("expected error when true_false carries options")
	}
}

func TestBuildQuestionCoding(t *testing.T) {
	req := &model.AddQuestionRequest{
		QuestionText: "sum two ints",
		QuestionType: model.QuestionTypeCoding,
		Marks:        5,
		TestCases: []model.TestCaseInput{
			{Input: "1 2", ExpectedOutput: "3"},
			{Input: "0 0", ExpectedOutput: "0"},
		},
	}

	// Coding questions are rejected on aptitude exams.
	if _, err := buildQuestion(aptitudeExam(), req); err == nil {
		t.Fatal("expected error on aptitude exam")
	}

	q, err := buildQuestion(codingExam(), req)
	if err != nil {
		t.Fatalf("buildQuestion: %v", err)
	}
	if len(q.TestCases) != 2 {
		t.Fatalf("expected 2 test cases, got %d", len(q.TestCases))
	}
	if q.TestCases[0].Position != 0 || q.TestCases[1].Position != 1 {
		t.Fatalf("positions not assigned in order: %+v", q.TestCases)
	}

	req.TestCases = nil
	if _, err := buildQuestion(codingExam(), req); err == nil {
		t.Fatal("expected error without test cases")
	}
}
