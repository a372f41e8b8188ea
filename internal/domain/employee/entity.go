package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the read model consumed from the employee directory.
// This service never writes employee rows.
type Employee struct {
	ID              string
	CompanyID       string
	FullName        string
	Email           string
	Gender          Gender
	HireDate        time.Time
	ManagerID       *string
	EmploymentLevel EmploymentLevel
	MonthlySalary   *decimal.Decimal
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

type EmploymentLevel string

const (
	LevelStaff    EmploymentLevel = "staff"
	LevelSenior   EmploymentLevel = "senior"
	LevelManager  EmploymentLevel = "manager"
	LevelDirector EmploymentLevel = "director"
)

// IsManagerTier reports whether approvals for this employee escalate to the
// executive stage when company policy requires it.
func (e Employee) IsManagerTier() bool {
	return e.EmploymentLevel == LevelManager || e.EmploymentLevel == LevelDirector
}
