package dto

import (
	"reflect"
	"strings"
)

// SubmissionRequest carries the text fields of the intake form.
type SubmissionRequest struct {
	PaternalSurname string `form:"paterno" validate:"required,max=100"`
	MaternalSurname string `form:"materno" validate:"required,max=100"`
	GivenName       string `form:"nombre" validate:"required,max=100"`
	CURP            string `form:"curp" validate:"required,max=18"`
	ControlNumber   string `form:"control" validate:"required,max=50"`
	Specialty       string `form:"especialidad" validate:"required,max=150"`
	Shift           string `form:"turno" validate:"required,max=50"`
	Cohort          string `form:"generacion" validate:"required,max=50"`
	Email           string `form:"correo" validate:"required,max=150"`
	Phone           string `form:"telefono" validate:"required,max=30"`
	PaymentBank     string `form:"banco" validate:"required,max=100"`
	PaymentKey      string `form:"llave" validate:"required,max=100"`
	PaymentAmount   string `form:"monto" validate:"required,max=50"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r SubmissionRequest) Trimmed() SubmissionRequest {
	v := reflect.ValueOf(&r).Elem()
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.String {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
	return r
}

// WizardAnswer is posted by the yes/no and consent steps.
type WizardAnswer struct {
	Answer   string `form:"respuesta"`
	Accepted string `form:"acepto"`
}

// Affirmative reports whether the yes/no answer is "si".
func (a WizardAnswer) Affirmative() bool {
	switch strings.ToLower(strings.TrimSpace(a.Answer)) {
	case "si", "sí":
		return true
	}
	return false
}

// Consented reports whether the consent checkbox was ticked.
func (a WizardAnswer) Consented() bool {
	switch strings.ToLower(strings.TrimSpace(a.Accepted)) {
	case "on", "true", "si", "sí", "1":
		return true
	}
	return false
}
