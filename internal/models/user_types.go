package models

import "strings"

// Employee is the model for the 'employees' table.
// Login is a simple "does this username exist and is it active" check
// against this table; there is no password.
type Employee struct {
	Username     string `json:"username" db:"username"`
	EmployeeName string `json:"employeeName" db:"employee_name"`
	Status       string `json:"-" db:"status"`
	Role         string `json:"role" db:"role"` // "staff" or "supervisor"
}

// IsActive does a forgiving status comparison because the upstream HR
// data is hand-entered ("Active", "active ", ...).
func (e *Employee) IsActive() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "active")
}
