package forms

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ResponseMap holds the typed answer for each question id. Values are
// strings, numbers, booleans, string arrays, entry-list arrays, or an
// opaque signature payload.
type ResponseMap map[string]any

// Phase is the runtime's position in the answer/review/submit loop.
type Phase string

const (
	PhaseAnswering Phase = "answering"
	PhaseReviewing Phase = "reviewing"
	PhaseSubmitted Phase = "submitted"
)

// ValidationError carries the ids of required visible questions that are
// still unanswered in the current section.
type ValidationError struct {
	QuestionIDs []string
}

func (e *ValidationError) Error() string {
	return "missing required answers: " + strings.Join(e.QuestionIDs, ", ")
}

var (
	ErrNotReviewing     = errors.New("no section under review")
	ErrAlreadySubmitted = errors.New("form already submitted")
)

// Runtime is the per-session stepper over one or more template snapshots.
// It is single-goroutine by design: one respondent, one sequential state
// machine.
type Runtime struct {
	templates []*Template
	lang      string

	templateIndex int
	sectionIndex  int
	phase         Phase
	responses     ResponseMap
	errs          map[string]bool
	completed     map[int]bool
}

// NewRuntime validates every template and positions the stepper at the
// first section. The language is fixed for the session (pinned for public
// links, negotiated once for assignments).
func NewRuntime(lang string, templates ...*Template) (*Runtime, error) {
	if len(templates) == 0 {
		return nil, errors.New("at least one template required")
	}
	for _, t := range templates {
		if err := ValidateTemplate(t); err != nil {
			return nil, err
		}
	}
	return &Runtime{
		templates: templates,
		lang:      lang,
		phase:     PhaseAnswering,
		responses: ResponseMap{},
		errs:      map[string]bool{},
		completed: map[int]bool{},
	}, nil
}

// Template returns the template currently being answered.
func (r *Runtime) Template() *Template { return r.templates[r.templateIndex] }

// Section returns the section currently being answered.
func (r *Runtime) Section() Section {
	return r.templates[r.templateIndex].Sections[r.sectionIndex]
}

// Position reports the current template and section indices.
func (r *Runtime) Position() (int, int) { return r.templateIndex, r.sectionIndex }

func (r *Runtime) Phase() Phase { return r.phase }

func (r *Runtime) Lang() string { return r.lang }

// RecordAnswer sets the response for a question and clears any standing
// error flag for it. No validation happens here.
func (r *Runtime) RecordAnswer(questionID string, value any) {
	r.responses[questionID] = value
	delete(r.errs, questionID)
}

// IsVisible applies the question's visibility condition against the
// current responses.
func (r *Runtime) IsVisible(q Question) bool { return Visible(q, r.responses) }

// Visible reports whether q should be shown given the answers so far: true
// when it has no condition, or when the dependency's answer equals the
// expected value. A multi-select dependency matches when the expected value
// is among the selected options.
func Visible(q Question, rs ResponseMap) bool {
	if q.ShowIf == nil {
		return true
	}
	v, ok := rs[q.ShowIf.QuestionID]
	if !ok || v == nil {
		return false
	}
	if list, ok := v.([]string); ok {
		for _, el := range list {
			if el == q.ShowIf.Equals {
				return true
			}
		}
		return false
	}
	return canonicalString(v) == q.ShowIf.Equals
}

func canonicalString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// Answered reports whether v counts as a filled-in answer. Nil, empty
// strings and empty arrays do not; false and zero do.
func Answered(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []string:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		return true
	}
}

// ValidateSection returns the ids of visible required questions in sec that
// have no answer yet. It does not mutate the runtime's error set; Advance
// does that when validation fails.
func (r *Runtime) ValidateSection(sec Section) []string {
	var missing []string
	for _, q := range sec.Questions {
		if !q.Required || !Visible(q, r.responses) {
			continue
		}
		if !Answered(r.responses[q.ID]) {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// Errors returns a copy of the flagged question ids.
func (r *Runtime) Errors() map[string]bool {
	out := make(map[string]bool, len(r.errs))
	for k, v := range r.errs {
		out[k] = v
	}
	return out
}

// Advance validates the current section. On success it marks the section
// completed and enters the review phase, returning the read-only review
// snapshot the respondent must confirm before the pointer moves. On failure
// it flags the missing questions and returns a ValidationError.
func (r *Runtime) Advance() (*ReviewSection, error) {
	switch r.phase {
	case PhaseSubmitted:
		return nil, ErrAlreadySubmitted
	case PhaseReviewing:
		return nil, errors.New("section already under review")
	}
	sec := r.Section()
	if missing := r.ValidateSection(sec); len(missing) > 0 {
		for _, id := range missing {
			r.errs[id] = true
		}
		return nil, &ValidationError{QuestionIDs: missing}
	}
	r.completed[r.globalIndex()] = true
	r.phase = PhaseReviewing
	rv := BuildReview(sec, r.responses, r.lang)
	return &rv, nil
}

// ConfirmReview commits the advance after the respondent accepted the
// review snapshot. It returns true when the confirmed section was the last
// of the last template, i.e. final submission is now due.
func (r *Runtime) ConfirmReview() (bool, error) {
	if r.phase != PhaseReviewing {
		return false, ErrNotReviewing
	}
	if r.globalIndex() == r.sectionCount()-1 {
		r.phase = PhaseSubmitted
		return true, nil
	}
	r.seek(r.globalIndex() + 1)
	r.phase = PhaseAnswering
	return false, nil
}

// EditSection returns from review to the same section with no state loss.
func (r *Runtime) EditSection() error {
	if r.phase != PhaseReviewing {
		return ErrNotReviewing
	}
	r.phase = PhaseAnswering
	return nil
}

// Retreat moves the pointer back one section, across template boundaries,
// without validation. At the very first section it only leaves review mode.
func (r *Runtime) Retreat() {
	if r.phase == PhaseSubmitted {
		return
	}
	r.phase = PhaseAnswering
	if g := r.globalIndex(); g > 0 {
		r.seek(g - 1)
	}
}

// Responses returns a copy of the accumulated answers.
func (r *Runtime) Responses() ResponseMap {
	out := make(ResponseMap, len(r.responses))
	for k, v := range r.responses {
		out[k] = v
	}
	return out
}

// CompletedSections returns the confirmed global section indices in order.
func (r *Runtime) CompletedSections() []int {
	out := make([]int, 0, len(r.completed))
	for i := range r.completed {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Restore rehydrates a saved draft: answers, completed sections, and the
// pointer positioned at the first section not yet confirmed.
func (r *Runtime) Restore(rs ResponseMap, completed []int) {
	r.responses = ResponseMap{}
	for k, v := range rs {
		r.responses[k] = v
	}
	r.completed = map[int]bool{}
	for _, i := range completed {
		if i >= 0 && i < r.sectionCount() {
			r.completed[i] = true
		}
	}
	r.errs = map[string]bool{}
	r.phase = PhaseAnswering
	for g := 0; g < r.sectionCount(); g++ {
		if !r.completed[g] {
			r.seek(g)
			return
		}
	}
	r.seek(r.sectionCount() - 1)
}

// ValidateAll returns the missing required question ids across every
// section of every template. Used as the final gate before submission.
func (r *Runtime) ValidateAll() []string {
	var missing []string
	for _, t := range r.templates {
		for _, sec := range t.Sections {
			missing = append(missing, r.ValidateSection(sec)...)
		}
	}
	return missing
}

func (r *Runtime) globalIndex() int {
	g := 0
	for i := 0; i < r.templateIndex; i++ {
		g += len(r.templates[i].Sections)
	}
	return g + r.sectionIndex
}

func (r *Runtime) sectionCount() int {
	n := 0
	for _, t := range r.templates {
		n += len(t.Sections)
	}
	return n
}

func (r *Runtime) seek(global int) {
	for ti, t := range r.templates {
		if global < len(t.Sections) {
			r.templateIndex = ti
			r.sectionIndex = global
			return
		}
		global -= len(t.Sections)
	}
}
