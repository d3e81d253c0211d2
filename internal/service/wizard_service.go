package service

import (
	"github.com/noah-isme/egresados-intake/internal/dto"
	"github.com/noah-isme/egresados-intake/internal/models"
)

// Warnings shown when a wizard step is not satisfied.
const (
	MsgDocumentsRequired = "Debes contar con los documentos PDF oficiales para continuar"
	MsgPaymentInPerson   = "El trámite debe completarse de manera presencial"
	MsgConsentRequired   = "Debes aceptar el aviso de privacidad para continuar"
)

// WizardOutcome is the result of answering a wizard step.
type WizardOutcome struct {
	// Step is where the applicant goes next: the following step when the
	// answer advanced, otherwise the same step re-rendered.
	Step     models.WizardStep
	Advanced bool
	Warning  string
}

// WizardService holds the intake wizard transitions.
type WizardService struct {
	enforce bool
}

// NewWizardService constructs a WizardService. With enforce false every step
// is reachable without having completed the previous ones.
func NewWizardService(enforce bool) *WizardService {
	return &WizardService{enforce: enforce}
}

// Enforced reports whether step order is checked against recorded progress.
func (s *WizardService) Enforced() bool {
	return s.enforce
}

// Unlocked is the furthest step reachable with the given progress.
func (s *WizardService) Unlocked(progress int) models.WizardStep {
	step := models.WizardStep(progress)
	if step < models.StepDocumentCheck {
		return models.StepDocumentCheck
	}
	if step > models.StepSubmitted {
		return models.StepSubmitted
	}
	return step
}

// Reachable reports whether step may be served. When it may not, the
// returned step is where the applicant should be sent instead.
func (s *WizardService) Reachable(progress int, step models.WizardStep) (models.WizardStep, bool) {
	if !s.enforce {
		return step, true
	}
	unlocked := s.Unlocked(progress)
	if unlocked >= step {
		return step, true
	}
	return unlocked, false
}

// Answer evaluates a posted answer for one of the question steps.
func (s *WizardService) Answer(step models.WizardStep, answer dto.WizardAnswer) WizardOutcome {
	var ok bool
	var warning string
	switch step {
	case models.StepDocumentCheck:
		ok, warning = answer.Affirmative(), MsgDocumentsRequired
	case models.StepPaymentCheck:
		ok, warning = answer.Affirmative(), MsgPaymentInPerson
	case models.StepPrivacyConsent:
		ok, warning = answer.Consented(), MsgConsentRequired
	default:
		return WizardOutcome{Step: step}
	}
	if !ok {
		return WizardOutcome{Step: step, Warning: warning}
	}
	return WizardOutcome{Step: step.Next(), Advanced: true}
}

// Advance returns the progress to record after reaching next, never moving
// backwards.
func (s *WizardService) Advance(progress int, next models.WizardStep) int {
	if int(next) > progress {
		return int(next)
	}
	return progress
}
