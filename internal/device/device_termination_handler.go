package device

import (
	"context"

	"github.com/carsonjc04/Hive-Engine/internal/events"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"

	"go.uber.org/zap"
)

// SubscriptionName is the device lock consumer's subscription and, on Kafka,
// the suffix of its consumer group.
const SubscriptionName = "device-lock"

// NewTerminationHandler locks an employee's devices when a TERMINATED event
// arrives. Other event types are acknowledged untouched.
func NewTerminationHandler(svc Service, logger ...*zap.Logger) messaging.Handler {
	l := zap.L().Named("device.consumer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("device.consumer")
	}

	return func(ctx context.Context, event events.EmployeeEvent) error {
		log := l.With(
			zap.Int64("employee_id", event.EmployeeID),
			zap.String("event_type", event.Type),
		)

		if !event.Is(events.EventTypeTerminated) {
			log.Debug("ignoring non-termination event")
			return nil
		}

		locked, err := svc.LockAllForEmployee(ctx, event.EmployeeID)
		if err != nil {
			log.Error("lock devices failed", zap.Error(err))
			return apperror.WrapAs(apperror.ErrConsumerProcessing, err)
		}

		log.Info("termination processed", zap.Int("devices_locked", locked))
		return nil
	}
}
