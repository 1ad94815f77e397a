package generator

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/mkce-labs/vivalab-backend/internal/model"
)

// Seed derives a deterministic randomization seed from the attempt identity.
// The nonce (attempt discriminator, usually the session UUID) makes repeat
// calls within one request reproducible while keeping orderings distinct
// across students and attempts.
func Seed(studentID, experimentID int, nonce string) int64 {
	sum := md5.Sum([]byte(fmt.Sprintf("%d-%d-%s", studentID, experimentID, nonce)))
	return int64(binary.BigEndian.Uint64(sum[:8]) & 0x7fffffffffffffff)
}

// subSeed derives the per-question option seed from the attempt seed.
func subSeed(seed int64, questionIndex int) int64 {
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(seed))
	binary.BigEndian.PutUint32(buf[8:], uint32(questionIndex))
	sum := md5.Sum(buf[:])
	return int64(binary.BigEndian.Uint64(sum[:8]) & 0x7fffffffffffffff)
}

// Shuffle permutes question order with the attempt seed, then permutes each
// question's options with a per-question sub-seed, remapping the correct
// label to track the moved option. IDs are reassigned 1..n afterwards so
// answer submissions key on the order the student saw.
//
// The remapping is the safety-critical part: after shuffling, the option
// named by CorrectAnswer must still carry the originally-correct text.
func Shuffle(questions []model.Question, seed int64) []model.Question {
	out := make([]model.Question, len(questions))
	copy(out, questions)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	for i := range out {
		options, mapping := shuffleOptions(out[i].Options, subSeed(seed, i))
		out[i].Options = options
		if newLabel, ok := mapping[out[i].CorrectAnswer]; ok {
			out[i].CorrectAnswer = newLabel
		}
		out[i].ID = i + 1
	}

	return out
}

// shuffleOptions permutes the A–D option texts and returns the shuffled map
// plus the old-label → new-label mapping.
func shuffleOptions(options map[string]string, seed int64) (map[string]string, map[string]string) {
	type entry struct{ label, text string }

	items := make([]entry, 0, len(model.OptionLabels))
	for _, label := range model.OptionLabels {
		items = append(items, entry{label, options[label]})
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})

	shuffled := make(map[string]string, len(items))
	mapping := make(map[string]string, len(items))
	for idx, it := range items {
		newLabel := model.OptionLabels[idx]
		shuffled[newLabel] = it.text
		mapping[it.label] = newLabel
	}

	return shuffled, mapping
}
