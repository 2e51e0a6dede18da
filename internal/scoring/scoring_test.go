package scoring

import (
	"testing"

	"github.com/priyankaksolves/student-exam-app/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func mcQuestion(id int64, marks int, correctID int64, otherIDs ...int64) model.Question {
	q := model.Question{
		ID:           id,
		QuestionType: model.QuestionTypeMultipleChoice,
		Marks:        marks,
		Options:      []model.Option{{ID: correctID, QuestionID: id, IsCorrect: true}},
	}
	for _, oid := range otherIDs {
		q.Options = append(q.Options, model.Option{ID: oid, QuestionID: id})
	}
	return q
}

func msQuestion(id int64, marks int, correctIDs []int64, otherIDs ...int64) model.Question {
	q := model.Question{
		ID:           id,
		QuestionType: model.QuestionTypeMultiSelect,
		Marks:        marks,
	}
	for _, oid := range correctIDs {
		q.Options = append(q.Options, model.Option{ID: oid, QuestionID: id, IsCorrect: true})
	}
	for _, oid := range otherIDs {
		q.Options = append(q.Options, model.Option{ID: oid, QuestionID: id})
	}
	return q
}

func TestGradeAllOrNothing(t *testing.T) {
	questions := []model.Question{
		mcQuestion(1, 2, 11, 12, 13),
		msQuestion(2, 3, []int64{21, 22}, 23),
		{ID: 3, QuestionType: model.QuestionTypeTrueFalse, Marks: 1, CorrectAnswer: boolPtr(true)},
	}

	answers := []model.Answer{
		{QuestionID: 1, QuestionType: model.QuestionTypeMultipleChoice, SelectedOptionIDs: []int64{11}},
		{QuestionID: 2, QuestionType: model.QuestionTypeMultiSelect, SelectedOptionIDs: []int64{21}}, // partial, no credit
		{QuestionID: 3, QuestionType: model.QuestionTypeTrueFalse, BoolAnswer: boolPtr(true)},
	}

	out := Grade(questions, answers, 3)
	if out.TotalMarks != 6 {
		t.Fatalf("total = %d, want 6", out.TotalMarks)
	}
	if out.ObtainedMarks != 3 {
		t.Fatalf("obtained = %d, want 3", out.ObtainedMarks)
	}
	if !out.Passed {
		t.Fatalf("expected pass at exactly pass_marks")
	}
}

func TestGradeMultiSelectSetEquality(t *testing.T) {
	q := msQuestion(1, 5, []int64{10, 20}, 30)

	cases := []struct {
		name     string
		selected []int64
		want     bool
	}{
		{"exact match", []int64{10, 20}, true},
		{"order irrelevant", []int64{20, 10}, true},
		{"duplicates collapse", []int64{10, 20, 20}, true},
		{"subset", []int64{10}, false},
		{"superset", []int64{10, 20, 30}, false},
		{"disjoint", []int64{30}, false},
		{"empty", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := model.Answer{QuestionID: 1, QuestionType: model.QuestionTypeMultiSelect, SelectedOptionIDs: tc.selected}
			if got := Correct(q, a); got != tc.want {
				t.Fatalf("Correct(%v) = %v, want %v", tc.selected, got, tc.want)
			}
		})
	}
}

func TestGradeMultipleChoice(t *testing.T) {
	q := mcQuestion(1, 2, 11, 12)

	wrong := model.Answer{QuestionID: 1, SelectedOptionIDs: []int64{12}}
	if Correct(q, wrong) {
		t.Fatalf("wrong option got credit")
	}

	two := model.Answer{QuestionID: 1, SelectedOptionIDs: []int64{11, 12}}
	if Correct(q, two) {
		t.Fatalf("two selections on multiple_choice got credit")
	}

	right := model.Answer{QuestionID: 1, SelectedOptionIDs: []int64{11}}
	if !Correct(q, right) {
		t.Fatalf("correct option got no credit")
	}
}

func TestGradeTrueFalse(t *testing.T) {
	q := model.Question{ID: 1, QuestionType: model.QuestionTypeTrueFalse, Marks: 1, CorrectAnswer: boolPtr(false)}

	if !Correct(q, model.Answer{QuestionID: 1, BoolAnswer: boolPtr(false)}) {
		t.Fatalf("matching boolean got no credit")
	}
	if Correct(q, model.Answer{QuestionID: 1, BoolAnswer: boolPtr(true)}) {
		t.Fatalf("mismatched boolean got credit")
	}
	if Correct(q, model.Answer{QuestionID: 1}) {
		t.Fatalf("missing boolean got credit")
	}
}

func TestGradeCoding(t *testing.T) {
	q := model.Question{ID: 1, QuestionType: model.QuestionTypeCoding, Marks: 10}
	subID := int64(7)

	full := model.Answer{QuestionID: 1, SubmissionID: &subID, TestsPassed: 3, TestsTotal: 3}
	if !Correct(q, full) {
		t.Fatalf("all tests passing got no credit")
	}

	partial := model.Answer{QuestionID: 1, SubmissionID: &subID, TestsPassed: 2, TestsTotal: 3}
	if Correct(q, partial) {
		t.Fatalf("partial test pass got credit")
	}

	none := model.Answer{QuestionID: 1}
	if Correct(q, none) {
		t.Fatalf("missing submission got credit")
	}
}

func TestGradeUnansweredAndUnknown(t *testing.T) {
	questions := []model.Question{
		mcQuestion(1, 2, 11),
		mcQuestion(2, 2, 21),
	}
	answers := []model.Answer{
		{QuestionID: 99, SelectedOptionIDs: []int64{11}}, // unknown question, ignored
	}

	out := Grade(questions, answers, 1)
	if out.ObtainedMarks != 0 {
		t.Fatalf("obtained = %d, want 0", out.ObtainedMarks)
	}
	if out.TotalMarks != 4 {
		t.Fatalf("total = %d, want 4", out.TotalMarks)
	}
	if out.Passed {
		t.Fatalf("zero marks passed with pass_marks=1")
	}
}

func TestGradeZeroPassMarks(t *testing.T) {
	out := Grade([]model.Question{mcQuestion(1, 2, 11)}, nil, 0)
	if !out.Passed {
		t.Fatalf("pass_marks=0 must always pass")
	}
}

func TestGradeDeterministic(t *testing.T) {
	questions := []model.Question{
		mcQuestion(1, 2, 11, 12),
		msQuestion(2, 3, []int64{21, 22}),
	}
	answers := []model.Answer{
		{QuestionID: 1, SelectedOptionIDs: []int64{11}},
		{QuestionID: 2, SelectedOptionIDs: []int64{22, 21}},
	}

	first := Grade(questions, answers, 4)
	for i := 0; i < 100; i++ {
		if got := Grade(questions, answers, 4); got != first {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}
