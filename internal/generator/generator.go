// Package generator turns an experiment topic into a shuffled, validated set
// of multiple-choice questions. Content synthesis is delegated to an external
// text-generation backend; everything else — extraction, repair, validation,
// shuffling, fallback — happens here so the rest of the system only ever sees
// well-formed question sets.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// Request describes one generation call.
type Request struct {
	Topic     string
	Materials string
	Count     int
	Seed      int64
}

// Generator produces question sets for viva attempts.
type Generator struct {
	backend TextGenerator
	log     zerolog.Logger
}

// New creates a Generator on top of a text-generation backend. Pass
// generator.Unavailable{} when no backend is configured; every call then
// takes the template path.
func New(backend TextGenerator, log zerolog.Logger) *Generator {
	return &Generator{
		backend: backend,
		log:     log.With().Str("component", "question_generator").Logger(),
	}
}

const systemPrompt = "Generate lab viva MCQs as JSON. Be concise."

// Generate returns exactly req.Count well-formed questions, shuffled with
// req.Seed. The backend is tried first; on error, timeout, or unusable
// output the deterministic template generator fills in. This function never
// under-delivers — a started attempt always gets a usable paper.
func (g *Generator) Generate(ctx context.Context, req Request) []model.Question {
	questions := g.fromBackend(ctx, req)

	if len(questions) < req.Count {
		if len(questions) > 0 {
			g.log.Warn().
				Int("got", len(questions)).
				Int("want", req.Count).
				Msg("Backend under-delivered, topping up from templates")
		}
		filler := fallbackQuestions(req.Topic, req.Count-len(questions), req.Seed)
		questions = append(questions, filler...)
	} else if len(questions) > req.Count {
		questions = questions[:req.Count]
	}

	return Shuffle(questions, req.Seed)
}

// fromBackend runs the generate → extract → repair → validate pipeline.
// Returns however many valid questions survive; the caller tops up.
func (g *Generator) fromBackend(ctx context.Context, req Request) []model.Question {
	raw, err := g.backend.GenerateText(ctx, systemPrompt, buildPrompt(req), 0.7, 2500)
	if err != nil {
		g.log.Warn().Err(err).Str("topic", req.Topic).Msg("Backend call failed, using template fallback")
		return nil
	}

	parsed, err := parseQuestions(ExtractJSON(raw))
	if err != nil {
		g.log.Warn().Err(err).Msg("Backend output unparseable after repair, using template fallback")
		return nil
	}

	valid := parsed[:0]
	for _, q := range parsed {
		q.CorrectAnswer = strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
		if q.Valid() {
			valid = append(valid, q)
		}
	}
	return valid
}

// buildPrompt formats the user prompt. Materials are clipped so a long lab
// manual cannot blow past the backend's context budget.
func buildPrompt(req Request) string {
	materials := req.Materials
	if len(materials) > 4000 {
		materials = materials[:4000]
	}
	if materials == "" {
		materials = "General laboratory concepts related to the experiment."
	}

	return fmt.Sprintf(`Generate %d MCQs for lab experiment: %q

Context:
%s

Format (JSON only):
{"questions":[{"id":1,"question":"...","options":{"A":"...","B":"...","C":"...","D":"..."},"correct_answer":"A","explanation":"..."}]}

Rules:
- Viva-style conceptual questions about this experiment
- 4 plausible options per question, 1 correct answer
- Brief explanations
- No generic questions`, req.Count, req.Topic, materials)
}

type questionsPayload struct {
	Questions []model.Question `json:"questions"`
}

// parseQuestions accepts either {"questions":[...]} or a bare array.
func parseQuestions(s string) ([]model.Question, error) {
	var payload questionsPayload
	if err := json.Unmarshal([]byte(s), &payload); err == nil && len(payload.Questions) > 0 {
		return payload.Questions, nil
	}

	var list []model.Question
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return list, nil
}
