package model

// OptionLabels is the fixed option label order for every MCQ.
var OptionLabels = [4]string{"A", "B", "C", "D"}

// Question is one generated multiple-choice question. Options always holds
// exactly the four labels A–D and CorrectAnswer is one of them.
type Question struct {
	ID            int               `json:"id"`
	Text          string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation,omitempty"`
}

// Valid reports whether the question matches the required shape: non-empty
// text, exactly the four A–D options with non-empty texts, and a correct
// label among them.
func (q Question) Valid() bool {
	if q.Text == "" || len(q.Options) != 4 {
		return false
	}
	for _, label := range OptionLabels {
		if q.Options[label] == "" {
			return false
		}
	}
	_, ok := q.Options[q.CorrectAnswer]
	return ok
}

// QuestionForStudent is a question with the correct answer stripped, safe to
// send to the exam page.
type QuestionForStudent struct {
	ID      int               `json:"id"`
	Text    string            `json:"question"`
	Options map[string]string `json:"options"`
}

// ForStudent strips the answer key from a question set.
func ForStudent(questions []Question) []QuestionForStudent {
	out := make([]QuestionForStudent, len(questions))
	for i, q := range questions {
		out[i] = QuestionForStudent{ID: q.ID, Text: q.Text, Options: q.Options}
	}
	return out
}
