package device

import (
	"context"
	"database/sql"

	deviceerrors "github.com/carsonjc04/Hive-Engine/internal/device/errors"
	"github.com/carsonjc04/Hive-Engine/internal/shared/connection"

	"gorm.io/gorm"
)

//go:generate mockgen -source=device_repo.go -destination=mock/device_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, d *Device) error
	FindByEmployeeID(ctx context.Context, employeeID int64) ([]Device, error)
	SaveAll(ctx context.Context, devices []Device) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) Create(ctx context.Context, d *Device) error {
	if !d.Type.Valid() {
		return deviceerrors.ErrInvalidDeviceType
	}
	return mapRepositoryError(r.conn(ctx).Create(d).Error)
}

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID int64) ([]Device, error) {
	var devices []Device
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("id").
		Find(&devices).Error
	return devices, err
}

func (r *repository) SaveAll(ctx context.Context, devices []Device) error {
	if len(devices) == 0 {
		return nil
	}
	return mapRepositoryError(r.conn(ctx).Save(&devices).Error)
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return connection.GORMConn(ctx, r.db, r.tx)
}
