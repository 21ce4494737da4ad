package services

import "github.com/careform/intake/internal/forms"

// intakeFixture is the template used across the service tests: one health
// section with a conditional follow-up, one contact section with a required
// signature.
func intakeFixture() *forms.Template {
	return &forms.Template{
		ID:   "tpl1",
		Name: forms.Text{Value: "New Patient Intake", I18n: map[string]string{"es": "Admisión de paciente"}},
		Sections: []forms.Section{
			{
				Title: forms.NewText("Health"),
				Questions: []forms.Question{
					{ID: "smoking", Label: forms.NewText("Do you smoke?"), Type: forms.YesNo, Required: true},
					{ID: "cigarettes_per_day", Label: forms.NewText("Cigarettes per day"), Type: forms.Number,
						Required: true, ShowIf: &forms.Condition{QuestionID: "smoking", Equals: "true"}},
				},
			},
			{
				Title: forms.NewText("Contact"),
				Questions: []forms.Question{
					{ID: "consent_sig", Label: forms.NewText("Signature"), Type: forms.Signature, Required: true},
				},
			},
		},
	}
}

// completeResponses answers every required question of intakeFixture with
// smoking=false, which hides the follow-up.
func completeResponses() forms.ResponseMap {
	return forms.ResponseMap{
		"smoking":     false,
		"consent_sig": "data:image/png;base64,abc",
	}
}
