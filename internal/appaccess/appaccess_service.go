package appaccess

import (
	"context"
	"database/sql"

	appaccesserrors "github.com/carsonjc04/Hive-Engine/internal/appaccess/errors"
	"github.com/carsonjc04/Hive-Engine/internal/shared/contextutil"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

//go:generate mockgen -source=appaccess_service.go -destination=mock/appaccess_service_mock.go -package=mock
type Service interface {
	RevokeAllForEmployee(ctx context.Context, employeeID int64) (int, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("appaccess.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("appaccess.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

// RevokeAllForEmployee revokes the employee's active grants and returns how
// many changed.
func (s *service) RevokeAllForEmployee(ctx context.Context, employeeID int64) (int, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.Int64("employee_id", employeeID))

	if employeeID <= 0 {
		return 0, appaccesserrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("revoke access begin tx failed", zap.Error(err))
		return 0, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	grants, err := qtx.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		log.Error("revoke access lookup failed", zap.Error(err))
		return 0, mapRepositoryError(err)
	}

	active := lo.Reject(grants, func(a AppAccess, _ int) bool { return a.Revoked() })
	if len(active) == 0 {
		log.Debug("no active grants for employee", zap.Int("grants", len(grants)))
		return 0, nil
	}

	for i := range active {
		active[i].Status = StatusRevoked
	}

	if err := qtx.SaveAll(ctx, active); err != nil {
		log.Error("revoke access persist failed", zap.Error(err))
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("revoke access commit failed", zap.Error(err))
		return 0, err
	}

	log.Info("access revoked",
		zap.Int("revoked", len(active)),
		zap.Strings("apps", lo.Uniq(lo.Map(active, func(a AppAccess, _ int) string { return a.AppName }))),
	)
	return len(active), nil
}
