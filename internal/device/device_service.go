package device

import (
	"context"
	"database/sql"

	deviceerrors "github.com/carsonjc04/Hive-Engine/internal/device/errors"
	"github.com/carsonjc04/Hive-Engine/internal/shared/contextutil"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

//go:generate mockgen -source=device_service.go -destination=mock/device_service_mock.go -package=mock
type Service interface {
	LockAllForEmployee(ctx context.Context, employeeID int64) (int, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("device.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("device.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

// LockAllForEmployee locks every device assigned to employeeID and returns
// how many were newly locked. Already locked devices are left alone, so
// repeating the call is harmless.
func (s *service) LockAllForEmployee(ctx context.Context, employeeID int64) (int, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.Int64("employee_id", employeeID))

	if employeeID <= 0 {
		return 0, deviceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("lock devices begin tx failed", zap.Error(err))
		return 0, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	devices, err := qtx.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		log.Error("lock devices lookup failed", zap.Error(err))
		return 0, mapRepositoryError(err)
	}

	unlocked := lo.Filter(devices, func(d Device, _ int) bool { return !d.Locked })
	if len(unlocked) == 0 {
		log.Debug("no unlocked devices for employee", zap.Int("assigned", len(devices)))
		return 0, nil
	}

	for i := range unlocked {
		unlocked[i].Locked = true
	}

	if err := qtx.SaveAll(ctx, unlocked); err != nil {
		log.Error("lock devices persist failed", zap.Error(err))
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("lock devices commit failed", zap.Error(err))
		return 0, err
	}

	log.Info("devices locked",
		zap.Int("locked", len(unlocked)),
		zap.Strings("serial_numbers", lo.Map(unlocked, func(d Device, _ int) string { return d.SerialNumber })),
	)
	return len(unlocked), nil
}
