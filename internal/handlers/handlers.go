package handlers

import (
	"context"

	"github.com/quangtd/shelfcheck-golang/internal/models"
	"github.com/quangtd/shelfcheck-golang/internal/workflow"
)

// EmployeeFinder is the slice of the repository login needs.
type EmployeeFinder interface {
	FindEmployee(ctx context.Context, username string) (*models.Employee, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Svc       *workflow.Service
	Employees EmployeeFinder
}
