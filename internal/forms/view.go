package forms

// FormView is the language-resolved rendering of a template snapshot sent
// to respondents. All bilingual fields are flattened to plain strings using
// one language for the whole form.
type FormView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Sections []SectionView `json:"sections"`
}

type SectionView struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Questions   []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required,omitempty"`
	Options  []OptionView `json:"options,omitempty"`
	ShowIf   *Condition   `json:"show_if,omitempty"`
}

type OptionView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// BuildFormView resolves every label of t in lang. For public links lang is
// the language pinned at link creation, never the viewer's locale.
func BuildFormView(t *Template, lang string) FormView {
	out := FormView{ID: t.ID, Name: t.Name.Resolve(lang)}
	out.Sections = make([]SectionView, 0, len(t.Sections))
	for _, sec := range t.Sections {
		sv := SectionView{
			Title:       sec.Title.Resolve(lang),
			Description: sec.Description.Resolve(lang),
		}
		sv.Questions = make([]QuestionView, 0, len(sec.Questions))
		for _, q := range sec.Questions {
			qv := QuestionView{
				ID:       q.ID,
				Label:    q.Label.Resolve(lang),
				Type:     q.Type,
				Required: q.Required,
				ShowIf:   q.ShowIf,
			}
			for _, opt := range q.Options {
				qv.Options = append(qv.Options, OptionView{Value: opt.Value, Label: opt.Label.Resolve(lang)})
			}
			sv.Questions = append(sv.Questions, qv)
		}
		out.Sections = append(out.Sections, sv)
	}
	return out
}
