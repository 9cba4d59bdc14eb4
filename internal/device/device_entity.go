package device

import "time"

type Type string

const (
	TypeLaptop Type = "LAPTOP"
	TypeMobile Type = "MOBILE"
	TypeTablet Type = "TABLET"
)

func (t Type) Valid() bool {
	switch t {
	case TypeLaptop, TypeMobile, TypeTablet:
		return true
	}
	return false
}

// Device is company hardware. EmployeeID is nil while the device sits in stock.
type Device struct {
	ID           int64  `gorm:"primaryKey"`
	SerialNumber string `gorm:"uniqueIndex:uq_device_serial_number"`
	Type         Type   `gorm:"type:varchar(20)"`
	Locked       bool
	EmployeeID   *int64 `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Device) TableName() string {
	return "devices"
}
