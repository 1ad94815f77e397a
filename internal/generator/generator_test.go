package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// stubBackend returns a canned response or error.
type stubBackend struct {
	text string
	err  error
}

func (s stubBackend) GenerateText(context.Context, string, string, float64, int) (string, error) {
	return s.text, s.err
}

func countValid(t *testing.T, qs []model.Question) {
	t.Helper()
	for i, q := range qs {
		if !q.Valid() {
			t.Errorf("question %d is malformed: %+v", i, q)
		}
	}
}

func TestGenerate_BackendFailure(t *testing.T) {
	g := New(stubBackend{err: errors.New("boom")}, zerolog.Nop())

	qs := g.Generate(context.Background(), Request{Topic: "Ohm's Law", Count: 10, Seed: 1})
	if len(qs) != 10 {
		t.Fatalf("got %d questions, want 10", len(qs))
	}
	countValid(t, qs)
}

func TestGenerate_BackendUnavailable(t *testing.T) {
	g := New(Unavailable{}, zerolog.Nop())

	qs := g.Generate(context.Background(), Request{Topic: "Titration", Count: 10, Seed: 2})
	if len(qs) != 10 {
		t.Fatalf("got %d questions, want 10", len(qs))
	}
	countValid(t, qs)
}

func TestGenerate_BackendGarbage(t *testing.T) {
	g := New(stubBackend{text: "I'm sorry, I can't produce JSON today."}, zerolog.Nop())

	qs := g.Generate(context.Background(), Request{Topic: "Logic Gates", Count: 10, Seed: 3})
	if len(qs) != 10 {
		t.Fatalf("got %d questions, want 10", len(qs))
	}
	countValid(t, qs)
}

func TestGenerate_ValidBackendOutput(t *testing.T) {
	payload := `{"questions":[
		{"id":1,"question":"What does a multimeter measure?","options":{"A":"Voltage","B":"Color","C":"Mass","D":"Taste"},"correct_answer":"A","explanation":"x"},
		{"id":2,"question":"Which unit measures resistance?","options":{"A":"Volt","B":"Ohm","C":"Ampere","D":"Watt"},"correct_answer":"B","explanation":"y"}
	]}`
	g := New(stubBackend{text: payload}, zerolog.Nop())

	qs := g.Generate(context.Background(), Request{Topic: "Measurements", Count: 2, Seed: 4})
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	countValid(t, qs)

	// Correct-answer texts must survive the shuffle.
	texts := map[string]bool{}
	for _, q := range qs {
		texts[q.Options[q.CorrectAnswer]] = true
	}
	if !texts["Voltage"] || !texts["Ohm"] {
		t.Errorf("correct answer texts lost in shuffle: %v", texts)
	}
}

func TestGenerate_PartialBackendOutputToppedUp(t *testing.T) {
	// Backend delivers 2 valid questions; request wants 10.
	payload := `{"questions":[
		{"id":1,"question":"q1","options":{"A":"a","B":"b","C":"c","D":"d"},"correct_answer":"A"},
		{"id":2,"question":"q2","options":{"A":"a","B":"b","C":"c","D":"d"},"correct_answer":"b"}
	]}`
	g := New(stubBackend{text: payload}, zerolog.Nop())

	qs := g.Generate(context.Background(), Request{Topic: "Pendulum", Count: 10, Seed: 5})
	if len(qs) != 10 {
		t.Fatalf("got %d questions, want 10", len(qs))
	}
	countValid(t, qs)
}

func TestGenerate_DropsMalformedQuestions(t *testing.T) {
	// Second question has only 3 options, third a bogus correct label.
	payload := `{"questions":[
		{"id":1,"question":"ok","options":{"A":"a","B":"b","C":"c","D":"d"},"correct_answer":"D"},
		{"id":2,"question":"bad","options":{"A":"a","B":"b","C":"c"},"correct_answer":"A"},
		{"id":3,"question":"bad","options":{"A":"a","B":"b","C":"c","D":"d"},"correct_answer":"E"}
	]}`
	g := New(stubBackend{text: payload}, zerolog.Nop())

	qs := g.Generate(context.Background(), Request{Topic: "Filters", Count: 3, Seed: 6})
	if len(qs) != 3 {
		t.Fatalf("got %d questions, want 3", len(qs))
	}
	countValid(t, qs)
}

func TestFallbackQuestions_Deterministic(t *testing.T) {
	a := fallbackQuestions("Fourier Series", 10, 11)
	b := fallbackQuestions("Fourier Series", 10, 11)

	for i := range a {
		if a[i].CorrectAnswer != b[i].CorrectAnswer {
			t.Fatalf("fallback not deterministic at question %d", i)
		}
	}
}
