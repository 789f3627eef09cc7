package service

import (
	"context"
	"strconv"

	"github.com/pizza-nz/lunch-bot/internal/db/repository"
	"github.com/pizza-nz/lunch-bot/internal/models"
)

// EmployeeService handles registration and roles
type EmployeeService struct {
	repos   *repository.Repositories
	adminID int64
}

// NewEmployeeService creates a new employee service. adminID is the
// configured administrator, 0 when none.
func NewEmployeeService(repos *repository.Repositories, adminID int64) *EmployeeService {
	return &EmployeeService{repos: repos, adminID: adminID}
}

// Register makes sure the user has an employee record
func (s *EmployeeService) Register(ctx context.Context, userID int64, fullName string) bool {
	return s.repos.Employee.Register(ctx, employeeID(userID), fullName)
}

// IsRegistered reports whether the user has an employee record
func (s *EmployeeService) IsRegistered(ctx context.Context, userID int64) bool {
	return s.repos.Employee.IsRegistered(ctx, employeeID(userID))
}

// IsAdmin reports whether the user is the configured administrator or a
// manager
func (s *EmployeeService) IsAdmin(ctx context.Context, userID int64) bool {
	if s.adminID != 0 && userID == s.adminID {
		return true
	}
	e, ok := s.repos.Employee.Get(ctx, employeeID(userID))
	return ok && e.Role == models.RoleManager
}

func employeeID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
