package generator

import (
	"encoding/json"
	"testing"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	raw := "Here you go:\n```json\n{\"questions\":[{\"id\":1}]}\n```\nEnjoy!"
	got := ExtractJSON(raw)
	if !json.Valid([]byte(got)) {
		t.Fatalf("extracted text is not valid JSON: %q", got)
	}
}

func TestExtractJSON_BareObject(t *testing.T) {
	raw := `The answer is {"questions":[{"id":1,"question":"q"}]} as requested.`
	got := ExtractJSON(raw)
	if !json.Valid([]byte(got)) {
		t.Fatalf("extracted text is not valid JSON: %q", got)
	}
}

func TestExtractJSON_TruncatedArrayRecovered(t *testing.T) {
	// Stream cut off mid-element: the last complete element should survive.
	raw := `[{"id":1,"question":"full"},{"id":2,"question":"also full"},{"id":3,"ques`
	got := ExtractJSON(raw)

	var items []map[string]any
	if err := json.Unmarshal([]byte(got), &items); err != nil {
		t.Fatalf("recovered array does not parse: %v (%q)", err, got)
	}
	if len(items) != 2 {
		t.Errorf("recovered %d elements, want 2", len(items))
	}
}

func TestExtractJSON_UnbalancedObjectClosed(t *testing.T) {
	raw := `{"questions":[{"id":1,"question":"q","options":{"A":"a","B":"b","C":"c","D":"d"},"correct_answer":"A"}]`
	got := ExtractJSON(raw)
	if !json.Valid([]byte(got)) {
		t.Fatalf("unbalanced object not repaired: %q", got)
	}
}

func TestRepairJSON_TrailingCommas(t *testing.T) {
	cases := []string{
		`{"a":1,}`,
		`[1,2,3,]`,
		`{"a":[1,2,],}`,
	}
	for _, c := range cases {
		if got := RepairJSON(c); !json.Valid([]byte(got)) {
			t.Errorf("RepairJSON(%q) = %q, still invalid", c, got)
		}
	}
}

func TestRepairJSON_AdjacentObjects(t *testing.T) {
	raw := `[{"id":1} {"id":2}]`
	if got := RepairJSON(raw); !json.Valid([]byte(got)) {
		t.Errorf("adjacent objects not repaired: %q", got)
	}
}

func TestRepairJSON_ValidInputUntouched(t *testing.T) {
	raw := `{"a": "keep , me \n intact"}`
	if got := RepairJSON(raw); got != raw {
		t.Errorf("valid JSON modified: %q", got)
	}
}
