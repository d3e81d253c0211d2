package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionRequestTrimmed(t *testing.T) {
	req := SubmissionRequest{PaternalSurname: "  Pérez ", CURP: "abcd010101hdfxxx01\n"}
	trimmed := req.Trimmed()
	assert.Equal(t, "Pérez", trimmed.PaternalSurname)
	assert.Equal(t, "abcd010101hdfxxx01", trimmed.CURP)
	assert.Equal(t, "  Pérez ", req.PaternalSurname)
}

func TestWizardAnswer(t *testing.T) {
	assert.True(t, WizardAnswer{Answer: "SI"}.Affirmative())
	assert.False(t, WizardAnswer{Answer: "no"}.Affirmative())
	assert.False(t, WizardAnswer{}.Affirmative())
	assert.True(t, WizardAnswer{Accepted: "on"}.Consented())
	assert.False(t, WizardAnswer{Accepted: "off"}.Consented())
}
