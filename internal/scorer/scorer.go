// Package scorer grades a finished viva attempt. It is a pure function over
// the stored question set and the collected answers; persistence and state
// transitions live elsewhere.
package scorer

import (
	"strings"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// QuestionResult is the per-question correctness breakdown.
type QuestionResult struct {
	QuestionID     int    `json:"question_id"`
	CorrectAnswer  string `json:"correct_answer"`
	SelectedAnswer string `json:"selected_answer,omitempty"`
	IsCorrect      bool   `json:"is_correct"`
	Marks          int    `json:"marks"`
}

// Result is the outcome of scoring one attempt.
type Result struct {
	ObtainedMarks int              `json:"obtained_marks"`
	TotalMarks    int              `json:"total_marks"`
	Results       []QuestionResult `json:"results"`
}

// Score compares submitted answers against the question set's answer key.
// Answers are keyed by question ID (1-based, matching the order shown to the
// student). Comparison is case-insensitive on the single-letter label; a
// missing or unrecognized answer scores zero, never errors. One mark per
// correct question; TotalMarks equals len(questions).
func Score(questions []model.Question, answers map[int]string) Result {
	res := Result{
		TotalMarks: len(questions),
		Results:    make([]QuestionResult, 0, len(questions)),
	}

	for _, q := range questions {
		selected := strings.ToUpper(strings.TrimSpace(answers[q.ID]))
		correct := selected != "" && q.CorrectAnswer != "" &&
			selected == strings.ToUpper(q.CorrectAnswer)

		marks := 0
		if correct {
			marks = 1
			res.ObtainedMarks++
		}

		res.Results = append(res.Results, QuestionResult{
			QuestionID:     q.ID,
			CorrectAnswer:  q.CorrectAnswer,
			SelectedAnswer: selected,
			IsCorrect:      correct,
			Marks:          marks,
		})
	}

	return res
}
