package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/careform/intake/internal/utils"
)

// ReviewAnswer is one read-only line of the review screen.
type ReviewAnswer struct {
	QuestionID string `json:"question_id"`
	Label      string `json:"label"`
	Display    string `json:"display"`
}

// ReviewSection is the confirm-before-advance snapshot of a single
// section's answers. The gate is mandatory for every section, not only the
// last one.
type ReviewSection struct {
	Title   string         `json:"title"`
	Answers []ReviewAnswer `json:"answers"`
}

// BuildReview renders the just-entered answers of sec for display in lang.
// Hidden questions are skipped entirely.
func BuildReview(sec Section, rs ResponseMap, lang string) ReviewSection {
	out := ReviewSection{Title: sec.Title.Resolve(lang)}
	for _, q := range sec.Questions {
		if !Visible(q, rs) {
			continue
		}
		out.Answers = append(out.Answers, ReviewAnswer{
			QuestionID: q.ID,
			Label:      q.Label.Resolve(lang),
			Display:    DisplayValue(q, rs[q.ID], lang),
		})
	}
	return out
}

// DisplayValue formats a single answer for the review screen: booleans as
// localized Yes/No, arrays comma-joined, signatures as a presence flag, and
// anything missing as an em-dash placeholder. The switch over the question
// type is exhaustive on purpose.
func DisplayValue(q Question, v any, lang string) string {
	switch q.Type {
	case Signature:
		if Answered(v) {
			return utils.T(lang, "review.signed")
		}
		return utils.T(lang, "review.not_signed")
	case YesNo:
		if !Answered(v) {
			return utils.T(lang, "review.empty")
		}
		if b, ok := v.(bool); ok {
			if b {
				return utils.T(lang, "review.yes")
			}
			return utils.T(lang, "review.no")
		}
		if canonicalString(v) == "true" {
			return utils.T(lang, "review.yes")
		}
		return utils.T(lang, "review.no")
	case MultiSelect:
		list, _ := v.([]string)
		if len(list) == 0 {
			return utils.T(lang, "review.empty")
		}
		labels := make([]string, 0, len(list))
		for _, val := range list {
			labels = append(labels, optionLabel(q, val, lang))
		}
		return strings.Join(labels, ", ")
	case SingleSelect:
		if !Answered(v) {
			return utils.T(lang, "review.empty")
		}
		return optionLabel(q, canonicalString(v), lang)
	case Number:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64)
		case int:
			return strconv.Itoa(n)
		}
		if !Answered(v) {
			return utils.T(lang, "review.empty")
		}
		return canonicalString(v)
	case EntryList:
		list, _ := v.([]any)
		if len(list) == 0 {
			return utils.T(lang, "review.empty")
		}
		return fmt.Sprintf(utils.T(lang, "review.entries"), len(list))
	case ShortText, LongText, Date, Email, Phone:
		if !Answered(v) {
			return utils.T(lang, "review.empty")
		}
		return canonicalString(v)
	}
	// Unreachable for valid templates; ValidateTemplate rejects unknown types.
	return utils.T(lang, "review.empty")
}

func optionLabel(q Question, value, lang string) string {
	for _, opt := range q.Options {
		if opt.Value == value {
			return opt.Label.Resolve(lang)
		}
	}
	return value
}
