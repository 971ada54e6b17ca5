package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionText           QuestionType = "text"
	QuestionAudio          QuestionType = "audio"
	QuestionPhoto          QuestionType = "photo"
)

var questionTypeSet = map[QuestionType]struct{}{
	QuestionMultipleChoice: {},
	QuestionText:           {},
	QuestionAudio:          {},
	QuestionPhoto:          {},
}

// Question describes one entry of an ordered survey. Question identity and
// order are supplied externally; session controllers never generate them.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Required bool         `json:"required"`
	Options  []string     `json:"options,omitempty"`
}

// LoadQuestions reads an ordered question list from a JSON file and
// validates ids and types.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// ValidateQuestions checks ids are present and unique and types are known.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return errors.New("question list is empty")
	}
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		id := strings.TrimSpace(q.ID)
		if id == "" {
			return fmt.Errorf("question %d: missing id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("question %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}
		if _, ok := questionTypeSet[q.Type]; !ok {
			return fmt.Errorf("question %q: unknown type %q", id, q.Type)
		}
		if q.Type == QuestionMultipleChoice && len(q.Options) == 0 {
			return fmt.Errorf("question %q: multiple_choice requires options", id)
		}
	}
	return nil
}
