package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

var (
	// ErrDuplicateCURP is returned when an insert collides with uq_solicitudes_curp.
	ErrDuplicateCURP = errors.New("application with this curp already exists")
	// ErrDuplicateUsername is returned when an insert collides with uq_admins_usuario.
	ErrDuplicateUsername = errors.New("admin with this username already exists")
)

const (
	pgUniqueViolation   = "23505"
	mysqlDuplicateEntry = 1062
)

// isUniqueViolation recognises unique constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	return false
}
