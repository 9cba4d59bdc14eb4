package device

import (
	"errors"

	deviceerrors "github.com/carsonjc04/Hive-Engine/internal/device/errors"
	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "uq_device_serial_number" {
			return deviceerrors.ErrDeviceSerialExists
		}
		return apperror.WrapAs(apperror.ErrConflict, err)
	}

	return err
}
