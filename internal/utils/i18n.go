package utils

// Minimal server-side i18n for fixed keys.
// Template content carries its own translations; the server only provides
// the handful of strings it renders itself (review screen flags, health).

var translations = map[string]map[string]string{
	"en": {
		"health.ok":         "ok",
		"review.yes":        "Yes",
		"review.no":         "No",
		"review.signed":     "Signed",
		"review.not_signed": "Not signed",
		"review.empty":      "—",
		"review.entries":    "%d entries",
	},
	"es": {
		"health.ok":         "ok",
		"review.yes":        "Sí",
		"review.no":         "No",
		"review.signed":     "Firmado",
		"review.not_signed": "Sin firmar",
		"review.empty":      "—",
		"review.entries":    "%d entradas",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
