package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/egresados-intake/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	return newMockDriver(t, "sqlmock")
}

func newMockDriver(t *testing.T, driver string) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, driver)
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var applicationRowColumns = []string{"id", "apellido_paterno", "apellido_materno", "nombre", "nombre_completo", "curp",
	"numero_control", "especialidad", "turno", "generacion", "correo_electronico", "telefono_celular", "banco_pago",
	"llave_pago", "monto_pago", "ruta_pdf_pago", "ruta_pdf_escolar", "ruta_pdf_curp", "estatus_tramite", "fecha_registro"}

func sampleApplication() *models.Application {
	pago, escolar, curp := "ABCD010101HDFXXX01_PAGO.pdf", "ABCD010101HDFXXX01_ESCOLAR.pdf", "ABCD010101HDFXXX01_CURP.pdf"
	return &models.Application{
		PaternalSurname: "PEREZ", MaternalSurname: "LOPEZ", GivenName: "ANA", FullName: "PEREZ LOPEZ ANA",
		CURP: "ABCD010101HDFXXX01", ControlNumber: "21054001", Specialty: "Programación", Shift: "Matutino",
		Cohort: "2021-2024", Email: "ana@example.com", Phone: "5512345678", PaymentBank: "BBVA",
		PaymentKey: "REF123", PaymentAmount: "350", PaymentFile: &pago, SchoolRecordFile: &escolar, IdentityFile: &curp,
	}
}

func TestExistsByCURP(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM solicitudes WHERE curp = ? LIMIT 1")).
		WithArgs("ABCD010101HDFXXX01").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM solicitudes WHERE curp = ? LIMIT 1")).
		WithArgs("NEW").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByCURP(context.Background(), "ABCD010101HDFXXX01")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByCURP(context.Background(), "NEW")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUsesLastInsertID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO solicitudes").WillReturnResult(sqlmock.NewResult(42, 1))

	app := sampleApplication()
	require.NoError(t, repo.Create(context.Background(), app))
	assert.Equal(t, int64(42), app.ID)
	assert.Equal(t, models.StatusPending, app.Status)
	assert.False(t, app.RegisteredAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostgresReturningID(t *testing.T) {
	db, mock, cleanup := newMockDriver(t, "postgres")
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(`(?s)INSERT INTO solicitudes .* VALUES \(\$1, .*\$19\) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	app := sampleApplication()
	require.NoError(t, repo.Create(context.Background(), app))
	assert.Equal(t, int64(7), app.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsUniqueViolation(t *testing.T) {
	cases := map[string]error{
		"postgres": &pq.Error{Code: "23505", Constraint: "uq_solicitudes_curp"},
		"mysql":    &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"},
	}
	for name, driverErr := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock, cleanup := newMock(t)
			defer cleanup()
			repo := NewApplicationRepository(db)

			mock.ExpectExec("INSERT INTO solicitudes").WillReturnError(driverErr)

			err := repo.Create(context.Background(), sampleApplication())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateCURP))
		})
	}
}

func TestListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(applicationRowColumns).
		AddRow(3, "RUIZ", "DIAZ", "LUIS", "RUIZ DIAZ LUIS", "WXYZ020202HDFYYY02", "21054002", "Contabilidad", "Vespertino",
			"2021-2024", "luis@example.com", "5500000000", "Banorte", "K2", "350", "W_PAGO.pdf", nil, nil, "Aprobado", now)
	mock.ExpectQuery(`(?s)SELECT .* FROM solicitudes WHERE estatus_tramite = \? ORDER BY fecha_registro DESC, id DESC`).
		WithArgs(string(models.StatusApproved)).
		WillReturnRows(rows)

	apps, err := repo.List(context.Background(), models.ApplicationFilter{Status: models.StatusApproved})
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, models.StatusApproved, apps[0].Status)
	assert.Nil(t, apps[0].SchoolRecordFile)
	assert.Equal(t, "W_PAGO.pdf", *apps[0].PaymentFile)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithoutFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(`(?s)SELECT .* FROM solicitudes ORDER BY fecha_registro DESC`).
		WillReturnRows(sqlmock.NewRows(applicationRowColumns))

	apps, err := repo.List(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.Empty(t, apps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatusDefaultsMissingToZero(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT estatus_tramite, COUNT(*) AS total FROM solicitudes GROUP BY estatus_tramite")).
		WillReturnRows(sqlmock.NewRows([]string{"estatus_tramite", "total"}).
			AddRow("Pendiente", 4).
			AddRow("Aprobado", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.StatusPending])
	assert.Equal(t, 1, counts[models.StatusApproved])
	assert.Equal(t, 0, counts[models.StatusInReview])
	assert.Equal(t, 0, counts[models.StatusRejected])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusUnknownID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE solicitudes SET estatus_tramite = ? WHERE id = ?")).
		WithArgs(string(models.StatusRejected), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 99, models.StatusRejected)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM solicitudes WHERE id = ?")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListExportRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT nombre_completo, curp, numero_control, especialidad, estatus_tramite FROM solicitudes ORDER BY fecha_registro DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"nombre_completo", "curp", "numero_control", "especialidad", "estatus_tramite"}).
			AddRow("PEREZ LOPEZ ANA", "ABCD010101HDFXXX01", "21054001", "Programación", "En revisión"))

	rows, err := repo.ListExportRows(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusInReview, rows[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFileReferences(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery("SELECT ruta_pdf_pago AS ref FROM solicitudes").
		WillReturnRows(sqlmock.NewRows([]string{"ref"}).AddRow("A_PAGO.pdf").AddRow("A_CURP.pdf"))

	refs, err := repo.ListFileReferences(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A_PAGO.pdf", "A_CURP.pdf"}, refs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
