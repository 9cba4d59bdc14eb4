package app

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/carsonjc04/Hive-Engine/internal/appaccess"
	"github.com/carsonjc04/Hive-Engine/internal/device"
	"github.com/carsonjc04/Hive-Engine/internal/employee"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type employeeStore struct {
	mu   sync.Mutex
	rows map[int64]employee.Employee
}

func newEmployeeStore(rows ...employee.Employee) *employeeStore {
	return &employeeStore{rows: lo.KeyBy(rows, func(e employee.Employee) int64 { return e.ID })}
}

func (s *employeeStore) WithTx(*sql.Tx) employee.Repository { return s }

func (s *employeeStore) Create(_ context.Context, e *employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[e.ID] = *e
	return nil
}

func (s *employeeStore) FindByID(_ context.Context, id int64) (*employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (s *employeeStore) FindByIDForUpdate(ctx context.Context, id int64) (*employee.Employee, error) {
	return s.FindByID(ctx, id)
}

func (s *employeeStore) Save(ctx context.Context, e *employee.Employee) error {
	return s.Create(ctx, e)
}

type outboxStore struct {
	mu     sync.Mutex
	events []kafka.OutboxEvent
}

func (s *outboxStore) WithTx(*sql.Tx) kafka.OutboxRepository { return s }

func (s *outboxStore) Create(_ context.Context, e kafka.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *outboxStore) ListPending(_ context.Context, limit int) ([]kafka.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := lo.Filter(s.events, func(e kafka.OutboxEvent, _ int) bool {
		return e.Status == kafka.OutboxStatusPending || e.Status == kafka.OutboxStatusFailed
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *outboxStore) MarkSent(_ context.Context, id string) error {
	return s.setStatus(id, kafka.OutboxStatusSent)
}

func (s *outboxStore) MarkFailed(_ context.Context, id string, _ string) error {
	return s.setStatus(id, kafka.OutboxStatusFailed)
}

func (s *outboxStore) status(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e.Status
		}
	}
	return ""
}

func (s *outboxStore) setStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].Status = status
			return nil
		}
	}
	return errors.New("outbox event not found")
}

type deviceStore struct {
	mu   sync.Mutex
	rows []device.Device
}

func (s *deviceStore) WithTx(*sql.Tx) device.Repository { return s }

func (s *deviceStore) Create(_ context.Context, d *device.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *d)
	return nil
}

func (s *deviceStore) FindByEmployeeID(_ context.Context, employeeID int64) ([]device.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Filter(s.rows, func(d device.Device, _ int) bool {
		return d.EmployeeID != nil && *d.EmployeeID == employeeID
	}), nil
}

func (s *deviceStore) SaveAll(_ context.Context, devices []device.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range devices {
		for i := range s.rows {
			if s.rows[i].ID == d.ID {
				s.rows[i] = d
			}
		}
	}
	return nil
}

func (s *deviceStore) locked() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.SliceToMap(s.rows, func(d device.Device) (string, bool) { return d.SerialNumber, d.Locked })
}

type accessStore struct {
	mu      sync.Mutex
	rows    []appaccess.AppAccess
	saveErr error
}

func (s *accessStore) WithTx(*sql.Tx) appaccess.Repository { return s }

func (s *accessStore) Create(_ context.Context, a *appaccess.AppAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, *a)
	return nil
}

func (s *accessStore) FindByEmployeeID(_ context.Context, employeeID int64) ([]appaccess.AppAccess, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Filter(s.rows, func(a appaccess.AppAccess, _ int) bool { return a.EmployeeID == employeeID }), nil
}

func (s *accessStore) SaveAll(_ context.Context, grants []appaccess.AppAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	for _, g := range grants {
		for i := range s.rows {
			if s.rows[i].ID == g.ID {
				s.rows[i] = g
			}
		}
	}
	return nil
}

func (s *accessStore) statuses() map[string]appaccess.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.SliceToMap(s.rows, func(a appaccess.AppAccess) (string, appaccess.Status) { return a.AppName, a.Status })
}
