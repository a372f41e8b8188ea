package employee

import "context"

// EmployeeRepository reads from the employee directory. The query is
// constrained to the active employment row so at most one record matches.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
}
