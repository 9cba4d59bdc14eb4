package appaccess

import (
	"context"

	"github.com/carsonjc04/Hive-Engine/internal/events"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"

	"go.uber.org/zap"
)

const SubscriptionName = "access-revocation"

// NewTerminationHandler revokes an employee's application access on TERMINATED.
func NewTerminationHandler(svc Service, logger ...*zap.Logger) messaging.Handler {
	l := zap.L().Named("appaccess.consumer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("appaccess.consumer")
	}

	return func(ctx context.Context, event events.EmployeeEvent) error {
		if !event.Is(events.EventTypeTerminated) {
			return nil
		}

		revoked, err := svc.RevokeAllForEmployee(ctx, event.EmployeeID)
		if err != nil {
			l.Error("revoke access failed",
				zap.Int64("employee_id", event.EmployeeID),
				zap.Error(err),
			)
			return apperror.WrapAs(apperror.ErrConsumerProcessing, err)
		}

		l.Info("termination processed",
			zap.Int64("employee_id", event.EmployeeID),
			zap.Int("grants_revoked", revoked),
		)
		return nil
	}
}
