package scorer

import (
	"testing"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

func makeQuestions(n int, correct string) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:   i + 1,
			Text: "q",
			Options: map[string]string{
				"A": "a", "B": "b", "C": "c", "D": "d",
			},
			CorrectAnswer: correct,
		}
	}
	return qs
}

func TestScore_PartialAnswers(t *testing.T) {
	qs := makeQuestions(10, "B")

	// 7 answered, 6 of them correct, 3 unanswered.
	answers := map[int]string{
		1: "B", 2: "B", 3: "B", 4: "B", 5: "B", 6: "B",
		7: "A",
	}

	res := Score(qs, answers)

	if res.ObtainedMarks != 6 {
		t.Errorf("obtained = %d, want 6", res.ObtainedMarks)
	}
	if res.TotalMarks != 10 {
		t.Errorf("total = %d, want 10", res.TotalMarks)
	}
	if len(res.Results) != 10 {
		t.Fatalf("results len = %d, want 10", len(res.Results))
	}
	if res.Results[6].IsCorrect {
		t.Error("question 7 answered A should not be correct")
	}
	if res.Results[9].SelectedAnswer != "" || res.Results[9].Marks != 0 {
		t.Error("unanswered question should score zero with empty selection")
	}
}

func TestScore_CaseInsensitive(t *testing.T) {
	qs := makeQuestions(2, "C")
	res := Score(qs, map[int]string{1: "c", 2: " C "})
	if res.ObtainedMarks != 2 {
		t.Errorf("obtained = %d, want 2", res.ObtainedMarks)
	}
}

func TestScore_NoAnswers(t *testing.T) {
	qs := makeQuestions(5, "A")
	res := Score(qs, nil)
	if res.ObtainedMarks != 0 {
		t.Errorf("obtained = %d, want 0", res.ObtainedMarks)
	}
	if res.TotalMarks != 5 {
		t.Errorf("total = %d, want 5", res.TotalMarks)
	}
}

func TestScore_EmptyQuestionSet(t *testing.T) {
	res := Score(nil, map[int]string{1: "A"})
	if res.ObtainedMarks != 0 || res.TotalMarks != 0 {
		t.Errorf("empty set should score 0/0, got %d/%d", res.ObtainedMarks, res.TotalMarks)
	}
}
