package models

import (
	"fmt"
	"strings"
	"time"
)

// ApplicationStatus is the review state of a certificate request.
type ApplicationStatus string

// Review states, stored verbatim in estatus_tramite.
const (
	StatusPending  ApplicationStatus = "Pendiente"
	StatusInReview ApplicationStatus = "En revisión"
	StatusApproved ApplicationStatus = "Aprobado"
	StatusRejected ApplicationStatus = "Rechazado"
)

// ApplicationStatuses lists every status in dashboard order.
var ApplicationStatuses = []ApplicationStatus{StatusPending, StatusInReview, StatusApproved, StatusRejected}

// ParseStatus maps user input onto a known status. Matching ignores case and
// surrounding whitespace; anything else is rejected.
func ParseStatus(raw string) (ApplicationStatus, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range ApplicationStatuses {
		if strings.EqualFold(raw, string(s)) {
			return s, true
		}
	}
	return "", false
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	parsed, ok := ParseStatus(string(s))
	return ok && parsed == s
}

// Slug is an ASCII, filename friendly form of the status.
func (s ApplicationStatus) Slug() string {
	switch s {
	case StatusPending:
		return "pendiente"
	case StatusInReview:
		return "en_revision"
	case StatusApproved:
		return "aprobado"
	case StatusRejected:
		return "rechazado"
	default:
		return ""
	}
}

// DocumentType names one of the PDFs attached to a request.
type DocumentType string

const (
	DocumentPayment      DocumentType = "PAGO"
	DocumentSchoolRecord DocumentType = "ESCOLAR"
	DocumentIdentity     DocumentType = "CURP"
)

// DocumentTypes lists the required uploads in form order.
var DocumentTypes = []DocumentType{DocumentPayment, DocumentSchoolRecord, DocumentIdentity}

// DocumentFilename derives the stored name for a CURP and document type.
func DocumentFilename(curp string, doc DocumentType) string {
	return fmt.Sprintf("%s_%s.pdf", strings.ToUpper(strings.TrimSpace(curp)), doc)
}

// Application is one graduate-certificate request.
type Application struct {
	ID               int64             `db:"id" json:"id"`
	PaternalSurname  string            `db:"apellido_paterno" json:"apellido_paterno"`
	MaternalSurname  string            `db:"apellido_materno" json:"apellido_materno"`
	GivenName        string            `db:"nombre" json:"nombre"`
	FullName         string            `db:"nombre_completo" json:"nombre_completo"`
	CURP             string            `db:"curp" json:"curp"`
	ControlNumber    string            `db:"numero_control" json:"numero_control"`
	Specialty        string            `db:"especialidad" json:"especialidad"`
	Shift            string            `db:"turno" json:"turno"`
	Cohort           string            `db:"generacion" json:"generacion"`
	Email            string            `db:"correo_electronico" json:"correo_electronico"`
	Phone            string            `db:"telefono_celular" json:"telefono_celular"`
	PaymentBank      string            `db:"banco_pago" json:"banco_pago"`
	PaymentKey       string            `db:"llave_pago" json:"llave_pago"`
	PaymentAmount    string            `db:"monto_pago" json:"monto_pago"`
	PaymentFile      *string           `db:"ruta_pdf_pago" json:"ruta_pdf_pago,omitempty"`
	SchoolRecordFile *string           `db:"ruta_pdf_escolar" json:"ruta_pdf_escolar,omitempty"`
	IdentityFile     *string           `db:"ruta_pdf_curp" json:"ruta_pdf_curp,omitempty"`
	Status           ApplicationStatus `db:"estatus_tramite" json:"estatus_tramite"`
	RegisteredAt     time.Time         `db:"fecha_registro" json:"fecha_registro"`
}

// ComposeFullName joins the name parts in registry order.
func ComposeFullName(paternal, maternal, given string) string {
	return strings.Join([]string{paternal, maternal, given}, " ")
}

// FileReferences returns the stored document names that are set.
func (a *Application) FileReferences() []string {
	refs := make([]string, 0, 3)
	for _, ref := range []*string{a.PaymentFile, a.SchoolRecordFile, a.IdentityFile} {
		if ref != nil && *ref != "" {
			refs = append(refs, *ref)
		}
	}
	return refs
}

// ApplicationFilter narrows listings and exports. An empty Status means all.
type ApplicationFilter struct {
	Status ApplicationStatus
}

// ApplicationExportRow is the projection used by report exports.
type ApplicationExportRow struct {
	FullName      string            `db:"nombre_completo"`
	CURP          string            `db:"curp"`
	ControlNumber string            `db:"numero_control"`
	Specialty     string            `db:"especialidad"`
	Status        ApplicationStatus `db:"estatus_tramite"`
}

// StatusCounts holds the number of requests per status.
type StatusCounts map[ApplicationStatus]int

// NewStatusCounts returns counts with every known status set to zero.
func NewStatusCounts() StatusCounts {
	counts := make(StatusCounts, len(ApplicationStatuses))
	for _, s := range ApplicationStatuses {
		counts[s] = 0
	}
	return counts
}

// Total sums all statuses.
func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
