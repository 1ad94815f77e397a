package generator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

func sampleQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		prefix := fmt.Sprintf("q%d-", i+1)
		qs[i] = model.Question{
			ID:   i + 1,
			Text: prefix + "text",
			Options: map[string]string{
				"A": prefix + "alpha", "B": prefix + "bravo",
				"C": prefix + "charlie", "D": prefix + "delta",
			},
			CorrectAnswer: model.OptionLabels[i%4],
		}
	}
	return qs
}

func TestShuffle_PreservesCorrectOptionText(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 1000; trial++ {
		original := sampleQuestions(10)

		// Remember the correct option text per question, keyed by the
		// question text, which the shuffle never rewrites.
		wantText := make(map[string]string, len(original))
		for _, q := range original {
			wantText[q.Text] = q.Options[q.CorrectAnswer]
		}

		shuffled := Shuffle(original, rng.Int63())

		if len(shuffled) != len(original) {
			t.Fatalf("shuffle changed question count: %d", len(shuffled))
		}
		for _, q := range shuffled {
			if got := q.Options[q.CorrectAnswer]; got != wantText[q.Text] {
				t.Fatalf("trial %d: question %q correct label %s points at %q, want %q",
					trial, q.Text, q.CorrectAnswer, got, wantText[q.Text])
			}
		}
	}
}

func TestShuffle_DistinctCorrectTexts(t *testing.T) {
	// Stronger variant: unique option texts per question, so the remap can
	// be checked exactly.
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 1000; trial++ {
		q := model.Question{
			ID:   1,
			Text: "q",
			Options: map[string]string{
				"A": "first", "B": "second", "C": "third", "D": "fourth",
			},
			CorrectAnswer: "C",
		}

		out := Shuffle([]model.Question{q}, rng.Int63())
		if got := out[0].Options[out[0].CorrectAnswer]; got != "third" {
			t.Fatalf("trial %d: correct option text = %q, want %q", trial, got, "third")
		}
	}
}

func TestShuffle_Deterministic(t *testing.T) {
	a := Shuffle(sampleQuestions(10), 12345)
	b := Shuffle(sampleQuestions(10), 12345)

	for i := range a {
		if a[i].Text != b[i].Text || a[i].CorrectAnswer != b[i].CorrectAnswer {
			t.Fatalf("same seed produced different orderings at index %d", i)
		}
		for _, label := range model.OptionLabels {
			if a[i].Options[label] != b[i].Options[label] {
				t.Fatalf("same seed produced different options at index %d label %s", i, label)
			}
		}
	}
}

func TestShuffle_ReassignsSequentialIDs(t *testing.T) {
	out := Shuffle(sampleQuestions(10), 99)
	for i, q := range out {
		if q.ID != i+1 {
			t.Errorf("question at index %d has ID %d, want %d", i, q.ID, i+1)
		}
	}
}

func TestSeed_VariesByStudentAndNonce(t *testing.T) {
	a := Seed(1, 5, "nonce-1")
	b := Seed(2, 5, "nonce-1")
	c := Seed(1, 5, "nonce-2")

	if a == b {
		t.Error("different students produced the same seed")
	}
	if a == c {
		t.Error("different nonces produced the same seed")
	}
	if a != Seed(1, 5, "nonce-1") {
		t.Error("seed is not deterministic")
	}
	if a < 0 || b < 0 || c < 0 {
		t.Error("seeds must be non-negative")
	}
}
