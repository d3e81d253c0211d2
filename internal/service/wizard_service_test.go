package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/models"
)

func TestWizardAnswer(t *testing.T) {
	svc := NewWizardService(true)

	cases := []struct {
		name     string
		step     models.WizardStep
		answer   dto.WizardAnswer
		next     models.WizardStep
		advanced bool
		warning  string
	}{
		{"documents yes", models.StepDocumentCheck, dto.WizardAnswer{Answer: "si"}, models.StepPaymentCheck, true, ""},
		{"documents no", models.StepDocumentCheck, dto.WizardAnswer{Answer: "no"}, models.StepDocumentCheck, false, MsgDocumentsRequired},
		{"documents missing", models.StepDocumentCheck, dto.WizardAnswer{}, models.StepDocumentCheck, false, MsgDocumentsRequired},
		{"payment yes", models.StepPaymentCheck, dto.WizardAnswer{Answer: "Sí"}, models.StepPrivacyConsent, true, ""},
		{"payment no", models.StepPaymentCheck, dto.WizardAnswer{Answer: "no"}, models.StepPaymentCheck, false, MsgPaymentInPerson},
		{"consent given", models.StepPrivacyConsent, dto.WizardAnswer{Accepted: "on"}, models.StepForm, true, ""},
		{"consent missing", models.StepPrivacyConsent, dto.WizardAnswer{}, models.StepPrivacyConsent, false, MsgConsentRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := svc.Answer(tc.step, tc.answer)
			assert.Equal(t, tc.next, out.Step)
			assert.Equal(t, tc.advanced, out.Advanced)
			assert.Equal(t, tc.warning, out.Warning)
		})
	}
}

func TestWizardReachable(t *testing.T) {
	svc := NewWizardService(true)

	step, ok := svc.Reachable(0, models.StepDocumentCheck)
	assert.True(t, ok)
	assert.Equal(t, models.StepDocumentCheck, step)

	step, ok = svc.Reachable(0, models.StepForm)
	assert.False(t, ok)
	assert.Equal(t, models.StepDocumentCheck, step)

	step, ok = svc.Reachable(int(models.StepPrivacyConsent), models.StepForm)
	assert.False(t, ok)
	assert.Equal(t, models.StepPrivacyConsent, step)

	_, ok = svc.Reachable(int(models.StepForm), models.StepPaymentCheck)
	assert.True(t, ok)

	open := NewWizardService(false)
	step, ok = open.Reachable(0, models.StepSubmitted)
	assert.True(t, ok)
	assert.Equal(t, models.StepSubmitted, step)
}

func TestWizardAdvanceNeverMovesBack(t *testing.T) {
	svc := NewWizardService(true)
	assert.Equal(t, int(models.StepPaymentCheck), svc.Advance(0, models.StepPaymentCheck))
	assert.Equal(t, int(models.StepForm), svc.Advance(int(models.StepForm), models.StepPaymentCheck))
	assert.Equal(t, models.StepSubmitted, svc.Unlocked(42))
}
