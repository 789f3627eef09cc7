package models

// EmployeeRole represents the role column of the Employees table
type EmployeeRole string

const (
	RoleEmployee EmployeeRole = "employee"
	RoleManager  EmployeeRole = "manager"
)

// EmployeeStatusActive is written for every auto-registered employee
const EmployeeStatusActive = "active"

// Employee represents a registered chat user
type Employee struct {
	TelegramID   string       `json:"telegram_id"`
	FullName     string       `json:"full_name"`
	Role         EmployeeRole `json:"role"`
	Status       string       `json:"status"`
	RegisteredAt string       `json:"registered_at"`
}
