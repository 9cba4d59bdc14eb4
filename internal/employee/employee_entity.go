package employee

import "time"

type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusTerminated Status = "TERMINATED"
)

type Employee struct {
	ID         int64  `gorm:"primaryKey"`
	Email      string `gorm:"uniqueIndex:uq_employee_email"`
	FullName   string
	Department string
	Status     Status `gorm:"type:varchar(20);default:ACTIVE"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Employee) TableName() string {
	return "employees"
}

func (e Employee) IsTerminated() bool {
	return e.Status == StatusTerminated
}
