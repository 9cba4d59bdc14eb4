package appaccess

import (
	"context"
	"database/sql"
	"strings"

	appaccesserrors "github.com/carsonjc04/Hive-Engine/internal/appaccess/errors"
	"github.com/carsonjc04/Hive-Engine/internal/shared/connection"

	"gorm.io/gorm"
)

//go:generate mockgen -source=appaccess_repo.go -destination=mock/appaccess_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *AppAccess) error
	FindByEmployeeID(ctx context.Context, employeeID int64) ([]AppAccess, error)
	SaveAll(ctx context.Context, grants []AppAccess) error
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

func (r *repository) Create(ctx context.Context, a *AppAccess) error {
	if strings.TrimSpace(a.AppName) == "" {
		return appaccesserrors.ErrMissingAppName
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
	return mapRepositoryError(r.conn(ctx).Create(a).Error)
}

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID int64) ([]AppAccess, error) {
	var grants []AppAccess
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("id").
		Find(&grants).Error
	return grants, err
}

func (r *repository) SaveAll(ctx context.Context, grants []AppAccess) error {
	if len(grants) == 0 {
		return nil
	}
	return mapRepositoryError(r.conn(ctx).Save(&grants).Error)
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return connection.GORMConn(ctx, r.db, r.tx)
}
