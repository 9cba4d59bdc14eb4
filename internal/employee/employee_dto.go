package employee

import "time"

type EmployeeURI struct {
	ID int64 `uri:"id" json:"employee_id" binding:"required,gt=0"`
}

type EmployeeResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Department string    `json:"department"`
	Status     Status    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func mapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:         empl.ID,
		Email:      empl.Email,
		FullName:   empl.FullName,
		Department: empl.Department,
		Status:     empl.Status,
		UpdatedAt:  empl.UpdatedAt,
	}
}
