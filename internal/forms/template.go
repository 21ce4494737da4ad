package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QuestionType enumerates every question kind the runtime understands.
// Switches over QuestionType must stay exhaustive so that adding a kind is
// a compile-visible exercise rather than a runtime fallthrough.
type QuestionType string

const (
	ShortText    QuestionType = "short_text"
	LongText     QuestionType = "long_text"
	Number       QuestionType = "number"
	Date         QuestionType = "date"
	Email        QuestionType = "email"
	Phone        QuestionType = "phone"
	SingleSelect QuestionType = "single_select"
	MultiSelect  QuestionType = "multi_select"
	YesNo        QuestionType = "yes_no"
	Signature    QuestionType = "signature"
	EntryList    QuestionType = "entry_list"
)

// Valid reports whether qt is a known question type.
func (qt QuestionType) Valid() bool {
	switch qt {
	case ShortText, LongText, Number, Date, Email, Phone,
		SingleSelect, MultiSelect, YesNo, Signature, EntryList:
		return true
	}
	return false
}

// HasOptions reports whether the type carries an options list.
func (qt QuestionType) HasOptions() bool {
	return qt == SingleSelect || qt == MultiSelect
}

// Option is one selectable choice of a select-type question.
type Option struct {
	Value string `json:"value"`
	Label Text   `json:"label"`
}

// Condition gates a question's visibility on another question's answer.
// Restricted to single-field equality; the dependency's current answer is
// compared against Equals in canonical string form.
type Condition struct {
	QuestionID string `json:"question_id"`
	Equals     string `json:"equals"`
}

type Question struct {
	ID       string       `json:"id"`
	Label    Text         `json:"label"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required,omitempty"`
	Options  []Option     `json:"options,omitempty"`
	ShowIf   *Condition   `json:"show_if,omitempty"`
}

type Section struct {
	Title       Text       `json:"title"`
	Description Text       `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// Template is the authoring model: an ordered sequence of sections of typed
// questions. Assignments and public links freeze a snapshot of it (Clone) at
// creation time so live edits never desync in-flight respondents.
type Template struct {
	ID       string    `json:"id"`
	Name     Text      `json:"name"`
	Sections []Section `json:"sections"`
}

var (
	ErrEmptyName           = errors.New("template name is empty")
	ErrNoSections          = errors.New("template has no sections")
	ErrEmptyQuestionID     = errors.New("question id is empty")
	ErrDuplicateQuestionID = errors.New("duplicate question id")
	ErrUnknownQuestionType = errors.New("unknown question type")
)

// ValidateTemplate checks the structural invariants: non-empty name, at
// least one section, question ids unique across the whole template, and
// known question types.
func ValidateTemplate(t *Template) error {
	if t == nil {
		return errors.New("template is nil")
	}
	if strings.TrimSpace(t.Name.Value) == "" {
		return ErrEmptyName
	}
	if len(t.Sections) == 0 {
		return ErrNoSections
	}
	seen := map[string]bool{}
	for si, sec := range t.Sections {
		for _, q := range sec.Questions {
			if strings.TrimSpace(q.ID) == "" {
				return fmt.Errorf("section %d: %w", si, ErrEmptyQuestionID)
			}
			if seen[q.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateQuestionID, q.ID)
			}
			seen[q.ID] = true
			if !q.Type.Valid() {
				return fmt.Errorf("%w: %q (question %s)", ErrUnknownQuestionType, q.Type, q.ID)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the template via a JSON round trip. Used to
// snapshot the authored definition into assignments and public links.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil
	}
	var out Template
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return &out
}

// Question looks up a question by id across all sections.
func (t *Template) Question(id string) (Question, bool) {
	for _, sec := range t.Sections {
		for _, q := range sec.Questions {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}
