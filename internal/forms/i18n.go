package forms

// Text is a displayable string carrying a primary value plus optional
// per-language variants. The primary value is what template authors type
// first; variants are keyed by lowercase language code ("en", "es").
type Text struct {
	Value string            `json:"value"`
	I18n  map[string]string `json:"i18n,omitempty"`
}

// NewText builds a Text with only a primary value.
func NewText(value string) Text {
	return Text{Value: value}
}

// Resolve returns the variant for lang when one is present, otherwise the
// primary value. Applied uniformly to template names, section titles,
// question labels and option labels.
func (t Text) Resolve(lang string) string {
	if t.I18n != nil {
		if v := t.I18n[lang]; v != "" {
			return v
		}
	}
	return t.Value
}

// Empty reports whether the Text carries no displayable content at all.
func (t Text) Empty() bool {
	if t.Value != "" {
		return false
	}
	for _, v := range t.I18n {
		if v != "" {
			return false
		}
	}
	return true
}
