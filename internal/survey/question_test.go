package survey_test

import (
	"os"
	"path/filepath"
	"testing"

	"fieldwork/internal/survey"
)

func TestValidateQuestions(t *testing.T) {
	valid := []survey.Question{
		{ID: "q1", Type: survey.QuestionText, Prompt: "Name?"},
		{ID: "q2", Type: survey.QuestionMultipleChoice, Prompt: "Pick", Options: []string{"a", "b"}},
	}
	if err := survey.ValidateQuestions(valid); err != nil {
		t.Fatalf("valid questions rejected: %v", err)
	}

	cases := []struct {
		name      string
		questions []survey.Question
	}{
		{"empty list", nil},
		{"missing id", []survey.Question{{Type: survey.QuestionText}}},
		{"duplicate id", []survey.Question{
			{ID: "q1", Type: survey.QuestionText},
			{ID: "q1", Type: survey.QuestionText},
		}},
		{"unknown type", []survey.Question{{ID: "q1", Type: "rating"}}},
		{"choice without options", []survey.Question{{ID: "q1", Type: survey.QuestionMultipleChoice}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := survey.ValidateQuestions(tc.questions); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.json")
	payload := `[
		{"id": "q1", "type": "text", "prompt": "Name?", "required": true},
		{"id": "q2", "type": "multiple_choice", "prompt": "Pick", "options": ["a", "b"]}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write questions: %v", err)
	}

	questions, err := survey.LoadQuestions(path)
	if err != nil {
		t.Fatalf("LoadQuestions failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].ID != "q1" || !questions[0].Required {
		t.Fatalf("unexpected first question: %#v", questions[0])
	}
	if questions[1].Type != survey.QuestionMultipleChoice || len(questions[1].Options) != 2 {
		t.Fatalf("unexpected second question: %#v", questions[1])
	}

	if _, err := survey.LoadQuestions(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
