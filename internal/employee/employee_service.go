package employee

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	employeeerrors "github.com/carsonjc04/Hive-Engine/internal/employee/errors"
	"github.com/carsonjc04/Hive-Engine/internal/events"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka"
	"github.com/carsonjc04/Hive-Engine/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	GetByID(ctx context.Context, id int64) (EmployeeResponse, error)
	Terminate(ctx context.Context, id int64) (EmployeeResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	topic  string
	logger *zap.Logger
}

// NewService returns the offboarding state machine. Terminations are queued
// on topic through the outbox in the same transaction as the status change.
func NewService(
	db *sql.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	topic string,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	if topic == "" {
		topic = events.EmployeeLifecycleTopic
	}
	return &service{
		db:     db,
		repo:   repo,
		outbox: outboxRepo,
		topic:  topic,
		logger: l,
	}
}

func (s *service) GetByID(ctx context.Context, id int64) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("get employee by id requested", zap.Int64("employee_id", id))

	if id <= 0 {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		log.Warn("get employee by id failed", zap.Int64("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

// Terminate moves an employee to TERMINATED and queues exactly one
// TERMINATED event. Terminating an already terminated employee returns the
// record unchanged and queues nothing.
func (s *service) Terminate(ctx context.Context, id int64) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("terminate employee requested",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
	)

	if id <= 0 {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("terminate employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		log.Warn("terminate employee lookup failed", zap.Int64("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if empl.IsTerminated() {
		log.Info("employee already terminated, nothing to publish", zap.Int64("employee_id", id))
		return mapToResponse(*empl), nil
	}

	empl.Status = StatusTerminated
	if err := qtx.Save(ctx, empl); err != nil {
		log.Error("terminate employee persist failed", zap.Int64("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	event := events.NewTerminatedEvent(empl.ID, time.Now())
	payload, err := events.Encode(event)
	if err != nil {
		log.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	outboxID := uuid.NewString()
	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            outboxID,
		RequestID:     rid,
		AggregateType: messaging.AggregateEmployee,
		AggregateID:   strconv.FormatInt(empl.ID, 10),
		EventType:     event.Type,
		Topic:         s.topic,
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		log.Error("terminate employee outbox persist failed",
			zap.Int64("employee_id", id),
			zap.Error(err),
		)
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	log.Info("terminate employee success",
		zap.String("request_id", rid),
		zap.Int64("employee_id", id),
		zap.String("outbox_id", outboxID),
		zap.String("routing_key", event.RoutingKey()),
	)

	return mapToResponse(*empl), nil
}
