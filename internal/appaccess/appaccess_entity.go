package appaccess

import "time"

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
)

// AppAccess is one employee's grant on one application.
type AppAccess struct {
	ID         int64  `gorm:"primaryKey"`
	AppName    string `gorm:"index"`
	Role       string
	Status     Status `gorm:"type:varchar(20);default:ACTIVE"`
	EmployeeID int64  `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AppAccess) TableName() string {
	return "app_accesses"
}

func (a AppAccess) Revoked() bool {
	return a.Status == StatusRevoked
}
