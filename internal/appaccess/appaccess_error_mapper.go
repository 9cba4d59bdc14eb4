package appaccess

import (
	"errors"

	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return apperror.WrapAs(apperror.ErrConflict, err)
		}
	}

	return err
}
