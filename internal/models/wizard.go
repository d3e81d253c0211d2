package models

// WizardStep is a position in the public intake flow.
type WizardStep int

const (
	StepDocumentCheck WizardStep = iota + 1
	StepPaymentCheck
	StepPrivacyConsent
	StepForm
	StepSubmitted
)

// Path is the route serving the step.
func (s WizardStep) Path() string {
	switch s {
	case StepDocumentCheck:
		return "/verificacion"
	case StepPaymentCheck:
		return "/pago"
	case StepPrivacyConsent:
		return "/aviso-privacidad"
	case StepForm:
		return "/formulario"
	case StepSubmitted:
		return "/finalizado"
	default:
		return "/"
	}
}

// Template is the HTML template rendered for the step.
func (s WizardStep) Template() string {
	switch s {
	case StepDocumentCheck:
		return "verificacion.html"
	case StepPaymentCheck:
		return "pago.html"
	case StepPrivacyConsent:
		return "aviso.html"
	case StepForm:
		return "formulario.html"
	case StepSubmitted:
		return "finalizado.html"
	default:
		return "index.html"
	}
}

func (s WizardStep) String() string {
	switch s {
	case StepDocumentCheck:
		return "document_check"
	case StepPaymentCheck:
		return "payment_check"
	case StepPrivacyConsent:
		return "privacy_consent"
	case StepForm:
		return "form"
	case StepSubmitted:
		return "submitted"
	default:
		return "start"
	}
}

// Next is the step unlocked by completing s.
func (s WizardStep) Next() WizardStep {
	if s >= StepSubmitted {
		return StepSubmitted
	}
	if s < StepDocumentCheck {
		return StepDocumentCheck
	}
	return s + 1
}
