package generator

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Best-effort extraction and repair of JSON embedded in model output. This
// stage is deliberately isolated: everything past the generator boundary only
// ever sees a validated question set or a fallback one, never a
// partially-parsed payload.

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls the most plausible JSON value out of raw model text.
// It prefers a fenced code block, then scans for a balanced array, then a
// balanced object. Truncated arrays are recovered up to the last complete
// element; unbalanced objects are closed.
func ExtractJSON(text string) string {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		return RepairJSON(strings.TrimSpace(m[1]))
	}

	if start := strings.IndexByte(text, '['); start != -1 {
		depth := 0
		lastComplete := start
		for i := start; i < len(text); i++ {
			switch text[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					return RepairJSON(text[start : i+1])
				}
			case '}':
				if depth == 1 {
					lastComplete = i
				}
			}
		}
		// Array was truncated mid-stream; keep everything up to the last
		// complete element and close it.
		if depth > 0 && lastComplete > start {
			return RepairJSON(text[start:lastComplete+1] + "]")
		}
	}

	if start := strings.IndexByte(text, '{'); start != -1 {
		depth := 0
		for i := start; i < len(text); i++ {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return RepairJSON(text[start : i+1])
				}
			}
		}
		if depth > 0 {
			return RepairJSON(text[start:] + strings.Repeat("}", depth))
		}
	}

	return text
}

var (
	adjacentObjects = regexp.MustCompile(`\}\s*\{`)
	brokenStringGap = regexp.MustCompile(`"\s*\n\s*"`)
	missingCommaKey = regexp.MustCompile(`"\s+("[\w]+":)`)
	trailingInArray = regexp.MustCompile(`,\s*\]`)
	trailingInObj   = regexp.MustCompile(`,\s*\}`)
	valueThenKey    = regexp.MustCompile(`(true|false|\d+)\s*\n\s*"`)
)

// RepairJSON patches the comma/brace malformations models commonly emit.
// If the input already parses it is returned untouched.
func RepairJSON(s string) string {
	if json.Valid([]byte(s)) {
		return s
	}

	s = adjacentObjects.ReplaceAllString(s, "},{")
	s = brokenStringGap.ReplaceAllString(s, "\",\n\"")
	s = missingCommaKey.ReplaceAllString(s, `", $1`)
	s = trailingInArray.ReplaceAllString(s, "]")
	s = trailingInObj.ReplaceAllString(s, "}")
	s = valueThenKey.ReplaceAllString(s, "$1,\n\"")
	return s
}
