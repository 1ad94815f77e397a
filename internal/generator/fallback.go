package generator

import (
	"fmt"
	"math/rand"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// Template pool for offline generation. Stems are deliberately generic
// viva-style prompts parameterized by the experiment topic; the rotation plus
// the seeded correct-label choice keeps two students' fallback papers from
// being byte-identical.
var fallbackStems = []string{
	"Which statement best describes the primary objective of the experiment %q?",
	"Which concept is most central to the procedure followed in %q?",
	"What is the expected observation when %q is performed correctly?",
	"Which of the following is a common source of error in %q?",
	"Which precaution is most important while carrying out %q?",
	"What does the result of %q primarily demonstrate?",
	"Which instrument or tool is most relevant to %q?",
	"Which step must be completed before starting the main procedure of %q?",
	"How should the outcome of %q be interpreted?",
	"Which theoretical principle underlies %q?",
}

var fallbackOptionSets = [][4]string{
	{
		"It verifies the underlying theoretical principle experimentally",
		"It is performed purely for equipment calibration",
		"It has no defined objective",
		"It replaces the need for theoretical study",
	},
	{
		"Careful control of the independent variable",
		"Ignoring measurement uncertainty",
		"Skipping the standard procedure",
		"Recording results before the procedure",
	},
	{
		"Results consistent with the predicted behavior",
		"No measurable output at all",
		"Random, unrepeatable readings",
		"Output unrelated to the inputs",
	},
	{
		"Incorrect setup or reading of instruments",
		"Following the lab manual precisely",
		"Recording observations immediately",
		"Repeating trials for consistency",
	},
}

// fallbackQuestions deterministically produces exactly count well-formed
// questions for the topic. Used when the generation backend is unavailable,
// times out, or returns unusable content — a started attempt must always get
// a usable paper.
func fallbackQuestions(topic string, count int, seed int64) []model.Question {
	rng := rand.New(rand.NewSource(seed))
	questions := make([]model.Question, count)

	for i := 0; i < count; i++ {
		stem := fallbackStems[i%len(fallbackStems)]
		set := fallbackOptionSets[i%len(fallbackOptionSets)]

		// The first option text of each set is the correct one; place it at
		// a seeded label and fill the rest in order.
		correctIdx := rng.Intn(len(model.OptionLabels))
		options := make(map[string]string, 4)
		next := 1
		for idx, label := range model.OptionLabels {
			if idx == correctIdx {
				options[label] = set[0]
				continue
			}
			options[label] = set[next]
			next++
		}

		questions[i] = model.Question{
			ID:            i + 1,
			Text:          fmt.Sprintf(stem, topic),
			Options:       options,
			CorrectAnswer: model.OptionLabels[correctIdx],
			Explanation:   "Review the experiment procedure and objective.",
		}
	}

	return questions
}
