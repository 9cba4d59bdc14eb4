package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/carsonjc04/Hive-Engine/internal/appaccess"
	"github.com/carsonjc04/Hive-Engine/internal/device"
	"github.com/carsonjc04/Hive-Engine/internal/employee"
	employeeerrors "github.com/carsonjc04/Hive-Engine/internal/employee/errors"
	"github.com/carsonjc04/Hive-Engine/internal/events"
	"github.com/carsonjc04/Hive-Engine/internal/messaging"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/kafka/producer"
	"github.com/carsonjc04/Hive-Engine/internal/messaging/memory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const topic = events.EmployeeLifecycleTopic

type cascade struct {
	bus       *memory.Bus
	metrics   *messaging.Metrics
	employees employee.Service
	outbox    *outboxStore
	devices   *deviceStore
	access    *accessStore

	employeeSQL sqlmock.Sqlmock
	deviceSQL   sqlmock.Sqlmock
	accessSQL   sqlmock.Sqlmock
}

func ptr(v int64) *int64 { return &v }

func newCascade(t *testing.T, maxDeliveries int, devices *deviceStore, access *accessStore) *cascade {
	t.Helper()
	logger := zap.NewNop()

	employeeDB, employeeSQL, err := sqlmock.New()
	require.NoError(t, err)
	deviceDB, deviceSQL, err := sqlmock.New()
	require.NoError(t, err)
	accessDB, accessSQL, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		employeeDB.Close()
		deviceDB.Close()
		accessDB.Close()
	})

	c := &cascade{
		metrics:     messaging.NewMetrics(nil),
		outbox:      &outboxStore{},
		devices:     devices,
		access:      access,
		employeeSQL: employeeSQL,
		deviceSQL:   deviceSQL,
		accessSQL:   accessSQL,
	}

	employees := newEmployeeStore(
		employee.Employee{ID: 101, Email: "ada@hive.test", FullName: "Ada", Status: employee.StatusActive},
		employee.Employee{ID: 102, Email: "bob@hive.test", FullName: "Bob", Status: employee.StatusActive},
	)
	c.employees = employee.NewService(employeeDB, employees, c.outbox, topic, logger)

	c.bus = memory.NewBus(topic, messaging.DeliveryPolicy{
		MaxDeliveries:  maxDeliveries,
		HandlerTimeout: time.Second,
		RetryInitial:   time.Millisecond,
		RetryMax:       5 * time.Millisecond,
	}, memory.WithLogger(logger), memory.WithMetrics(c.metrics))

	require.NoError(t, RegisterSubscriptions(c.bus, "hr.employee.#",
		device.NewService(deviceDB, devices, logger),
		appaccess.NewService(accessDB, access, logger),
		logger,
	))
	return c
}

func (c *cascade) start(t *testing.T) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.bus.Run(ctx) }()

	select {
	case <-c.bus.Ready():
	case err := <-done:
		t.Fatalf("bus stopped before subscribing: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("bus never became ready")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("bus did not stop")
			}
			_ = c.bus.Close()
		})
	}
}

func (c *cascade) relay(t *testing.T) int {
	t.Helper()
	sent, err := producer.ProcessPendingEvents(context.Background(), c.outbox, c.bus, c.metrics, zap.NewNop(), 50)
	require.NoError(t, err)
	return sent
}

func (c *cascade) deliveries(subscription string, outcome messaging.Outcome) float64 {
	return testutil.ToFloat64(c.metrics.Deliveries.WithLabelValues(subscription, outcome.String()))
}

func (c *cascade) waitFor(t *testing.T, subscription string, outcome messaging.Outcome, n float64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.deliveries(subscription, outcome) >= n
	}, 2*time.Second, 5*time.Millisecond, "%s never reached %v %s deliveries", subscription, n, outcome)
}

func assertSQL(t *testing.T, mocks ...sqlmock.Sqlmock) {
	t.Helper()
	for _, m := range mocks {
		assert.NoError(t, m.ExpectationsWereMet())
	}
}

func assignedDevices() *deviceStore {
	return &deviceStore{rows: []device.Device{
		{ID: 1, SerialNumber: "LAP-001", Type: device.TypeLaptop, EmployeeID: ptr(101)},
		{ID: 2, SerialNumber: "MOB-001", Type: device.TypeMobile, EmployeeID: ptr(101)},
		{ID: 3, SerialNumber: "LAP-002", Type: device.TypeLaptop, EmployeeID: ptr(102)},
		{ID: 4, SerialNumber: "TAB-001", Type: device.TypeTablet},
	}}
}

func assignedAccess() *accessStore {
	return &accessStore{rows: []appaccess.AppAccess{
		{ID: 1, AppName: "github", Role: "admin", Status: appaccess.StatusActive, EmployeeID: 101},
		{ID: 2, AppName: "slack", Role: "member", Status: appaccess.StatusActive, EmployeeID: 101},
		{ID: 3, AppName: "jira", Role: "member", Status: appaccess.StatusActive, EmployeeID: 102},
	}}
}

func TestCascade_TerminationLocksDevicesAndRevokesAccess(t *testing.T) {
	c := newCascade(t, 3, assignedDevices(), assignedAccess())

	c.employeeSQL.ExpectBegin()
	c.employeeSQL.ExpectCommit()
	c.deviceSQL.ExpectBegin()
	c.deviceSQL.ExpectCommit()
	c.accessSQL.ExpectBegin()
	c.accessSQL.ExpectCommit()

	stop := c.start(t)
	defer stop()

	resp, err := c.employees.Terminate(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, employee.StatusTerminated, resp.Status)
	assert.Equal(t, 1, c.relay(t))

	c.waitFor(t, device.SubscriptionName, messaging.OutcomeAcked, 1)
	c.waitFor(t, appaccess.SubscriptionName, messaging.OutcomeAcked, 1)

	assert.Equal(t, map[string]bool{
		"LAP-001": true,
		"MOB-001": true,
		"LAP-002": false,
		"TAB-001": false,
	}, c.devices.locked())
	assert.Equal(t, map[string]appaccess.Status{
		"github": appaccess.StatusRevoked,
		"slack":  appaccess.StatusRevoked,
		"jira":   appaccess.StatusActive,
	}, c.access.statuses())
	assert.Empty(t, c.bus.DeadLetters())

	stop()
	assertSQL(t, c.employeeSQL, c.deviceSQL, c.accessSQL)
}

func TestCascade_RepeatedTerminationPublishesOnce(t *testing.T) {
	c := newCascade(t, 3, assignedDevices(), assignedAccess())

	c.employeeSQL.ExpectBegin()
	c.employeeSQL.ExpectCommit()
	c.employeeSQL.ExpectBegin()
	c.employeeSQL.ExpectRollback()

	_, err := c.employees.Terminate(context.Background(), 101)
	require.NoError(t, err)
	resp, err := c.employees.Terminate(context.Background(), 101)
	require.NoError(t, err)

	assert.Equal(t, employee.StatusTerminated, resp.Status)
	assert.Len(t, c.outbox.events, 1)
	assertSQL(t, c.employeeSQL)
}

func TestCascade_UnknownEmployee(t *testing.T) {
	c := newCascade(t, 3, assignedDevices(), assignedAccess())

	c.employeeSQL.ExpectBegin()
	c.employeeSQL.ExpectRollback()
	// An event for an unknown employee still reaches both consumers and
	// finds nothing to change.
	c.deviceSQL.ExpectBegin()
	c.deviceSQL.ExpectRollback()
	c.accessSQL.ExpectBegin()
	c.accessSQL.ExpectRollback()

	stop := c.start(t)
	defer stop()

	_, err := c.employees.Terminate(context.Background(), 999)
	assert.True(t, errors.Is(err, employeeerrors.ErrEmployeeNotFound))
	assert.Equal(t, 0, c.relay(t))

	env, err := messaging.NewEnvelope("", events.NewTerminatedEvent(999, time.Now()))
	require.NoError(t, err)
	require.NoError(t, c.bus.Publish(context.Background(), topic, env))

	c.waitFor(t, device.SubscriptionName, messaging.OutcomeAcked, 1)
	c.waitFor(t, appaccess.SubscriptionName, messaging.OutcomeAcked, 1)

	assert.Equal(t, false, c.devices.locked()["LAP-001"])
	assert.Equal(t, appaccess.StatusActive, c.access.statuses()["github"])

	stop()
	assertSQL(t, c.employeeSQL, c.deviceSQL, c.accessSQL)
}

func TestCascade_RedeliveredEventIsIdempotent(t *testing.T) {
	c := newCascade(t, 3, assignedDevices(), assignedAccess())

	// First delivery changes rows, the next two find nothing left to do.
	c.deviceSQL.ExpectBegin()
	c.deviceSQL.ExpectCommit()
	c.accessSQL.ExpectBegin()
	c.accessSQL.ExpectCommit()
	for i := 0; i < 2; i++ {
		c.deviceSQL.ExpectBegin()
		c.deviceSQL.ExpectRollback()
		c.accessSQL.ExpectBegin()
		c.accessSQL.ExpectRollback()
	}

	stop := c.start(t)
	defer stop()

	env, err := messaging.NewEnvelope("evt-dup", events.NewTerminatedEvent(101, time.Now()))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.bus.Publish(context.Background(), topic, env))
	}

	c.waitFor(t, device.SubscriptionName, messaging.OutcomeAcked, 3)
	c.waitFor(t, appaccess.SubscriptionName, messaging.OutcomeAcked, 3)

	assert.Equal(t, true, c.devices.locked()["LAP-001"])
	assert.Equal(t, appaccess.StatusRevoked, c.access.statuses()["slack"])

	stop()
	assertSQL(t, c.deviceSQL, c.accessSQL)
}

func TestCascade_FailingConsumerDoesNotBlockOthers(t *testing.T) {
	access := assignedAccess()
	access.saveErr = errors.New("access store unavailable")
	c := newCascade(t, 2, assignedDevices(), access)

	c.deviceSQL.ExpectBegin()
	c.deviceSQL.ExpectCommit()
	for i := 0; i < 2; i++ {
		c.accessSQL.ExpectBegin()
		c.accessSQL.ExpectRollback()
	}

	stop := c.start(t)
	defer stop()

	env, err := messaging.NewEnvelope("evt-fail", events.NewTerminatedEvent(101, time.Now()))
	require.NoError(t, err)
	require.NoError(t, c.bus.Publish(context.Background(), topic, env))

	c.waitFor(t, device.SubscriptionName, messaging.OutcomeAcked, 1)
	require.Eventually(t, func() bool { return len(c.bus.DeadLetters()) == 1 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, true, c.devices.locked()["MOB-001"])
	assert.Equal(t, appaccess.StatusActive, c.access.statuses()["github"])

	dead := c.bus.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, appaccess.SubscriptionName, dead[0].Subscription)
	assert.Equal(t, 2, dead[0].Attempts)
	assert.Equal(t, "evt-fail", dead[0].Envelope.ID)

	stop()
	assertSQL(t, c.deviceSQL, c.accessSQL)
}

func TestCascade_OutboxRowStaysUnsentUntilConsumersFinish(t *testing.T) {
	c := newCascade(t, 3, assignedDevices(), assignedAccess())

	c.employeeSQL.ExpectBegin()
	c.employeeSQL.ExpectCommit()
	c.deviceSQL.ExpectBegin()
	c.deviceSQL.ExpectCommit()
	c.accessSQL.ExpectBegin()
	c.accessSQL.ExpectCommit()

	_, err := c.employees.Terminate(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, c.outbox.events, 1)
	rowID := c.outbox.events[0].ID

	// No subscription is consuming yet, so the row must survive for a retry.
	assert.Equal(t, 0, c.relay(t))
	assert.Equal(t, kafka.OutboxStatusFailed, c.outbox.status(rowID))
	assert.Equal(t, false, c.devices.locked()["LAP-001"])

	stop := c.start(t)
	defer stop()

	// Publish returns only after both consumers handled the event.
	assert.Equal(t, 1, c.relay(t))
	assert.Equal(t, kafka.OutboxStatusSent, c.outbox.status(rowID))
	assert.Equal(t, true, c.devices.locked()["LAP-001"])
	assert.Equal(t, appaccess.StatusRevoked, c.access.statuses()["github"])

	stop()
	assertSQL(t, c.employeeSQL, c.deviceSQL, c.accessSQL)
}

func TestCascade_ShutdownMidCascadeKeepsRowForRetry(t *testing.T) {
	access := assignedAccess()
	access.saveErr = errors.New("access store unavailable")
	// Unbounded redelivery: the access consumer never finishes on its own.
	c := newCascade(t, 0, assignedDevices(), access)

	c.employeeSQL.ExpectBegin()
	c.employeeSQL.ExpectCommit()
	c.deviceSQL.ExpectBegin()
	c.deviceSQL.ExpectCommit()
	c.accessSQL.MatchExpectationsInOrder(false)
	for i := 0; i < 1000; i++ {
		c.accessSQL.ExpectBegin()
		c.accessSQL.ExpectRollback()
	}

	_, err := c.employees.Terminate(context.Background(), 101)
	require.NoError(t, err)
	rowID := c.outbox.events[0].ID

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.bus.Run(ctx) }()
	<-c.bus.Ready()

	relayed := make(chan int, 1)
	go func() {
		sent, _ := producer.ProcessPendingEvents(ctx, c.outbox, c.bus, c.metrics, zap.NewNop(), 50)
		relayed <- sent
	}()

	c.waitFor(t, device.SubscriptionName, messaging.OutcomeAcked, 1)
	cancel()

	select {
	case sent := <-relayed:
		assert.Equal(t, 0, sent)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not return after shutdown")
	}
	require.NoError(t, <-done)
	_ = c.bus.Close()

	assert.NotEqual(t, kafka.OutboxStatusSent, c.outbox.status(rowID))
}
