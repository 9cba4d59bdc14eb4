package employee

import (
	"context"
	"database/sql"

	"github.com/carsonjc04/Hive-Engine/internal/shared/connection"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindByID(ctx context.Context, id int64) (*Employee, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*Employee, error)
	Save(ctx context.Context, empl *Employee) error
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

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Create(empl).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Employee, error) {
	var empl Employee
	err := r.conn(ctx).First(&empl, "id = ?", id).Error
	return &empl, err
}

// FindByIDForUpdate row-locks the employee until the surrounding
// transaction ends, serializing concurrent terminations.
func (r *repository) FindByIDForUpdate(ctx context.Context, id int64) (*Employee, error) {
	var empl Employee
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&empl, "id = ?", id).Error
	return &empl, err
}

func (r *repository) Save(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Save(empl).Error
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return connection.GORMConn(ctx, r.db, r.tx)
}
