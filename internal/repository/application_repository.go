package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/egresados-intake/internal/models"
)

const applicationColumns = `id, apellido_paterno, apellido_materno, nombre, nombre_completo, curp, numero_control,
        especialidad, turno, generacion, correo_electronico, telefono_celular, banco_pago, llave_pago, monto_pago,
        ruta_pdf_pago, ruta_pdf_escolar, ruta_pdf_curp, estatus_tramite, fecha_registro`

// ApplicationRepository manages persistence for certificate requests.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// ExistsByCURP checks whether a request was already filed for the CURP.
func (r *ApplicationRepository) ExistsByCURP(ctx context.Context, curp string) (bool, error) {
	query := r.db.Rebind("SELECT 1 FROM solicitudes WHERE curp = ? LIMIT 1")
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, curp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check curp: %w", err)
	}
	return true, nil
}

// FindByID fetches one request.
func (r *ApplicationRepository) FindByID(ctx context.Context, id int64) (*models.Application, error) {
	query := r.db.Rebind(fmt.Sprintf("SELECT %s FROM solicitudes WHERE id = ?", applicationColumns))
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// Create inserts a request and fills in its ID. A CURP collision yields
// ErrDuplicateCURP.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.Status == "" {
		app.Status = models.StatusPending
	}
	if app.RegisteredAt.IsZero() {
		app.RegisteredAt = time.Now().UTC()
	}

	query := `INSERT INTO solicitudes (apellido_paterno, apellido_materno, nombre, nombre_completo, curp, numero_control,
        especialidad, turno, generacion, correo_electronico, telefono_celular, banco_pago, llave_pago, monto_pago,
        ruta_pdf_pago, ruta_pdf_escolar, ruta_pdf_curp, estatus_tramite, fecha_registro)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []interface{}{
		app.PaternalSurname, app.MaternalSurname, app.GivenName, app.FullName, app.CURP, app.ControlNumber,
		app.Specialty, app.Shift, app.Cohort, app.Email, app.Phone, app.PaymentBank, app.PaymentKey, app.PaymentAmount,
		app.PaymentFile, app.SchoolRecordFile, app.IdentityFile, app.Status, app.RegisteredAt,
	}

	if r.db.DriverName() == "postgres" {
		if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query+" RETURNING id"), args...).Scan(&app.ID); err != nil {
			return r.createError(err)
		}
		return nil
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return r.createError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read application id: %w", err)
	}
	app.ID = id
	return nil
}

func (r *ApplicationRepository) createError(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("create application: %w", ErrDuplicateCURP)
	}
	return fmt.Errorf("create application: %w", err)
}

// List returns requests matching the filter, newest first.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	query := fmt.Sprintf("SELECT %s FROM solicitudes", applicationColumns)
	var args []interface{}
	if filter.Status != "" {
		query += " WHERE estatus_tramite = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY fecha_registro DESC, id DESC"

	apps := make([]models.Application, 0)
	if err := r.db.SelectContext(ctx, &apps, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// ListExportRows returns the report projection, newest first.
func (r *ApplicationRepository) ListExportRows(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationExportRow, error) {
	query := "SELECT nombre_completo, curp, numero_control, especialidad, estatus_tramite FROM solicitudes"
	var args []interface{}
	if filter.Status != "" {
		query += " WHERE estatus_tramite = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY fecha_registro DESC, id DESC"

	rows := make([]models.ApplicationExportRow, 0)
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list export rows: %w", err)
	}
	return rows, nil
}

// CountByStatus counts requests per status across the whole table. Statuses
// with no requests are reported as zero.
func (r *ApplicationRepository) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	var rows []struct {
		Status models.ApplicationStatus `db:"estatus_tramite"`
		Total  int                      `db:"total"`
	}
	const query = "SELECT estatus_tramite, COUNT(*) AS total FROM solicitudes GROUP BY estatus_tramite"
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count applications by status: %w", err)
	}

	counts := models.NewStatusCounts()
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// UpdateStatus sets the status of one request. sql.ErrNoRows is returned
// when the ID does not exist.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus) error {
	query := r.db.Rebind("UPDATE solicitudes SET estatus_tramite = ? WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return requireAffected(res, "update application status")
}

// Delete removes one request row. sql.ErrNoRows is returned when the ID does
// not exist.
func (r *ApplicationRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind("DELETE FROM solicitudes WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return requireAffected(res, "delete application")
}

// ListFileReferences returns every stored document name referenced by any request.
func (r *ApplicationRepository) ListFileReferences(ctx context.Context) ([]string, error) {
	const query = `SELECT ruta_pdf_pago AS ref FROM solicitudes WHERE ruta_pdf_pago IS NOT NULL
        UNION SELECT ruta_pdf_escolar FROM solicitudes WHERE ruta_pdf_escolar IS NOT NULL
        UNION SELECT ruta_pdf_curp FROM solicitudes WHERE ruta_pdf_curp IS NOT NULL`
	refs := make([]string, 0)
	if err := r.db.SelectContext(ctx, &refs, query); err != nil {
		return nil, fmt.Errorf("list file references: %w", err)
	}
	return refs, nil
}

func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
