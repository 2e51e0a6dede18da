// Package scoring grades completed attempts. It is deliberately free of
// database, cache, and clock dependencies so grading stays deterministic.
package scoring

import "github.com/priyankaksolves/student-exam-app/internal/model"

// Outcome is the graded result of one attempt.
type Outcome struct {
	ObtainedMarks int
	TotalMarks    int
	Passed        bool
}

// Grade scores a set of answers against an exam's questions. Every
// question is all-or-nothing: full marks on an exact match, zero
// otherwise. Unanswered questions score zero. Answers referencing
// unknown questions are ignored. An attempt passes when obtained marks
// reach passMarks.
func Grade(questions []model.Question, answers []model.Answer, passMarks int) Outcome {
	byQuestion := make(map[int64]model.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	out := Outcome{}
	for _, q := range questions {
		out.TotalMarks += q.Marks
		a, ok := byQuestion[q.ID]
		if !ok {
			continue
		}
		if Correct(q, a) {
			out.ObtainedMarks += q.Marks
		}
	}

	out.Passed = out.ObtainedMarks >= passMarks
	return out
}

// Correct reports whether one answer earns its question's marks.
func Correct(q model.Question, a model.Answer) bool {
	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		if len(a.SelectedOptionIDs) != 1 {
			return false
		}
		correct := correctOptionSet(q)
		_, ok := correct[a.SelectedOptionIDs[0]]
		return ok && len(correct) == 1

	case model.QuestionTypeMultiSelect:
		// Set equality: order and duplicates in the selection are irrelevant.
		correct := correctOptionSet(q)
		selected := make(map[int64]struct{}, len(a.SelectedOptionIDs))
		for _, id := range a.SelectedOptionIDs {
			selected[id] = struct{}{}
		}
		if len(selected) != len(correct) || len(correct) == 0 {
			return false
		}
		for id := range selected {
			if _, ok := correct[id]; !ok {
				return false
			}
		}
		return true

	case model.QuestionTypeTrueFalse:
		return q.CorrectAnswer != nil && a.BoolAnswer != nil && *q.CorrectAnswer == *a.BoolAnswer

	case model.QuestionTypeCoding:
		// Credit requires the recorded submission to have passed every
		// test case.
		return a.SubmissionID != nil && a.TestsTotal > 0 && a.TestsPassed == a.TestsTotal

	default:
		return false
	}
}

func correctOptionSet(q model.Question) map[int64]struct{} {
	set := make(map[int64]struct{})
	for _, o := range q.Options {
		if o.IsCorrect {
			set[o.ID] = struct{}{}
		}
	}
	return set
}
