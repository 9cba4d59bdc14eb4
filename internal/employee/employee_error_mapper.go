package employee

import (
	"errors"

	employeeerrors "github.com/carsonjc04/Hive-Engine/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return employeeerrors.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case "uq_employee_email":
			return employeeerrors.ErrEmployeeAlreadyExists
		default:
			return employeeerrors.ErrEmployeeConstraint
		}
	}

	return err
}
