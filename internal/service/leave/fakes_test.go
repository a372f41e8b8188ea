package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
)

// In-memory repositories mirroring the guard semantics of the SQL layer so
// service behavior can be exercised without a database.

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func newFakeEmployeeRepo(emps ...employee.Employee) *fakeEmployeeRepo {
	r := &fakeEmployeeRepo{employees: make(map[string]employee.Employee)}
	for _, e := range emps {
		r.employees[e.ID] = e
	}
	return r
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok || !e.Active {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type fakeLeaveTypeRepo struct {
	types map[string]leave.LeaveType
	seq   int
}

func newFakeLeaveTypeRepo(types ...leave.LeaveType) *fakeLeaveTypeRepo {
	r := &fakeLeaveTypeRepo{types: make(map[string]leave.LeaveType)}
	for _, t := range types {
		r.types[t.ID] = t
	}
	return r
}

func (r *fakeLeaveTypeRepo) Create(_ context.Context, t leave.LeaveType) (leave.LeaveType, error) {
	for _, existing := range r.types {
		if existing.CompanyID == t.CompanyID && existing.Code == t.Code {
			return leave.LeaveType{}, leave.ErrDuplicateLeaveTypeCode
		}
	}
	r.seq++
	t.ID = fmt.Sprintf("lt-%d", r.seq)
	r.types[t.ID] = t
	return t, nil
}

func (r *fakeLeaveTypeRepo) GetByID(_ context.Context, id string) (leave.LeaveType, error) {
	t, ok := r.types[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return t, nil
}

func (r *fakeLeaveTypeRepo) GetByCode(_ context.Context, companyID, code string) (leave.LeaveType, error) {
	for _, t := range r.types {
		if t.CompanyID == companyID && t.Code == code {
			return t, nil
		}
	}
	return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
}

func (r *fakeLeaveTypeRepo) GetByCompanyID(_ context.Context, companyID string) ([]leave.LeaveType, error) {
	out := make([]leave.LeaveType, 0)
	for _, t := range r.types {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeLeaveTypeRepo) Update(_ context.Context, req leave.UpdateLeaveTypeRequest) error {
	t, ok := r.types[req.ID]
	if !ok {
		return leave.ErrLeaveTypeNotFound
	}
	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.DefaultAllowanceDays != nil {
		t.DefaultAllowanceDays = *req.DefaultAllowanceDays
	}
	if req.Paid != nil {
		t.Paid = *req.Paid
	}
	r.types[req.ID] = t
	return nil
}

func (r *fakeLeaveTypeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.types[id]; !ok {
		return leave.ErrLeaveTypeNotFound
	}
	delete(r.types, id)
	return nil
}

type fakeSettingsRepo struct {
	settings map[string]leave.LeaveSettings
}

func newFakeSettingsRepo(settings ...leave.LeaveSettings) *fakeSettingsRepo {
	r := &fakeSettingsRepo{settings: make(map[string]leave.LeaveSettings)}
	for _, s := range settings {
		r.settings[s.CompanyID] = s
	}
	return r
}

func (r *fakeSettingsRepo) GetByCompanyID(_ context.Context, companyID string) (leave.LeaveSettings, error) {
	s, ok := r.settings[companyID]
	if !ok {
		return leave.LeaveSettings{}, leave.ErrSettingsNotFound
	}
	return s, nil
}

func (r *fakeSettingsRepo) Upsert(_ context.Context, s leave.LeaveSettings) error {
	r.settings[s.CompanyID] = s
	return nil
}

type fakeBalanceRepo struct {
	balances map[string]leave.LeaveBalance
	seq      int
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{balances: make(map[string]leave.LeaveBalance)}
}

func (r *fakeBalanceRepo) Create(_ context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	for _, existing := range r.balances {
		if existing.EmployeeID == b.EmployeeID && existing.LeaveTypeID == b.LeaveTypeID && existing.FiscalYear == b.FiscalYear {
			return leave.LeaveBalance{}, leave.ErrStoreConflict
		}
	}
	r.seq++
	b.ID = fmt.Sprintf("bal-%d", r.seq)
	r.balances[b.ID] = b
	return b, nil
}

func (r *fakeBalanceRepo) Get(_ context.Context, employeeID, leaveTypeID string, fiscalYear int) (leave.LeaveBalance, error) {
	for _, b := range r.balances {
		if b.EmployeeID == employeeID && b.LeaveTypeID == leaveTypeID && b.FiscalYear == fiscalYear {
			return b, nil
		}
	}
	return leave.LeaveBalance{}, leave.ErrBalanceNotFound
}

func (r *fakeBalanceRepo) GetByID(_ context.Context, id string) (leave.LeaveBalance, error) {
	b, ok := r.balances[id]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

func (r *fakeBalanceRepo) GetByEmployeeYear(_ context.Context, employeeID string, fiscalYear int) ([]leave.LeaveBalance, error) {
	out := make([]leave.LeaveBalance, 0)
	for _, b := range r.balances {
		if b.EmployeeID == employeeID && b.FiscalYear == fiscalYear {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBalanceRepo) GetByCompanyYear(_ context.Context, _ string, fiscalYear int) ([]leave.LeaveBalance, error) {
	out := make([]leave.LeaveBalance, 0)
	for _, b := range r.balances {
		if b.FiscalYear == fiscalYear {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBalanceRepo) AddPending(_ context.Context, balanceID string, days, effectiveEntitlement float64) error {
	b, ok := r.balances[balanceID]
	if !ok || effectiveEntitlement-b.UsedDays-b.PendingDays < days {
		return leave.ErrInsufficientBalance
	}
	b.PendingDays += days
	r.balances[balanceID] = b
	return nil
}

func (r *fakeBalanceRepo) MovePendingToUsed(_ context.Context, balanceID string, days float64) error {
	b, ok := r.balances[balanceID]
	if !ok || b.PendingDays < days {
		return leave.ErrStoreConflict
	}
	b.PendingDays -= days
	b.UsedDays += days
	r.balances[balanceID] = b
	return nil
}

func (r *fakeBalanceRepo) RemovePending(_ context.Context, balanceID string, days float64) error {
	b, ok := r.balances[balanceID]
	if !ok || b.PendingDays < days {
		return leave.ErrStoreConflict
	}
	b.PendingDays -= days
	r.balances[balanceID] = b
	return nil
}

func (r *fakeBalanceRepo) RefundUsed(_ context.Context, balanceID string, days float64) error {
	b, ok := r.balances[balanceID]
	if !ok || b.UsedDays < days {
		return leave.ErrStoreConflict
	}
	b.UsedDays -= days
	r.balances[balanceID] = b
	return nil
}

func (r *fakeBalanceRepo) AdjustEntitlement(_ context.Context, balanceID string, delta float64) error {
	b, ok := r.balances[balanceID]
	if !ok || b.TotalEntitlement+delta < b.UsedDays {
		return leave.ErrAdjustBelowUsed
	}
	b.TotalEntitlement += delta
	r.balances[balanceID] = b
	return nil
}

type fakeApplicationRepo struct {
	applications map[string]leave.LeaveApplication
	seq          int
}

func newFakeApplicationRepo(apps ...leave.LeaveApplication) *fakeApplicationRepo {
	r := &fakeApplicationRepo{applications: make(map[string]leave.LeaveApplication)}
	for _, a := range apps {
		r.applications[a.ID] = a
	}
	return r
}

func (r *fakeApplicationRepo) Create(_ context.Context, a leave.LeaveApplication) (leave.LeaveApplication, error) {
	r.seq++
	a.ID = fmt.Sprintf("app-%d", r.seq)
	r.applications[a.ID] = a
	return a, nil
}

func (r *fakeApplicationRepo) GetByID(_ context.Context, id string) (leave.LeaveApplication, error) {
	a, ok := r.applications[id]
	if !ok {
		return leave.LeaveApplication{}, leave.ErrApplicationNotFound
	}
	return a, nil
}

func (r *fakeApplicationRepo) HasOverlapping(_ context.Context, employeeID string, startDate, endDate time.Time) (bool, error) {
	for _, a := range r.applications {
		if a.EmployeeID != employeeID {
			continue
		}
		if a.Status == leave.StatusRejected || a.Status == leave.StatusCancelled {
			continue
		}
		if !a.StartDate.After(endDate) && !a.EndDate.Before(startDate) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeApplicationRepo) UpdateStatus(_ context.Context, id string, from, to leave.ApplicationStatus) error {
	a, ok := r.applications[id]
	if !ok || a.Status != from {
		return leave.ErrStoreConflict
	}
	a.Status = to
	r.applications[id] = a
	return nil
}

func (r *fakeApplicationRepo) Truncate(_ context.Context, id string, endDate, returnDate time.Time, requestedDays float64) error {
	a, ok := r.applications[id]
	if !ok || a.Status != leave.StatusApproved {
		return leave.ErrStoreConflict
	}
	a.EndDate = endDate
	a.ReturnDate = returnDate
	a.RequestedDays = requestedDays
	r.applications[id] = a
	return nil
}

func (r *fakeApplicationRepo) GetByEmployeeID(_ context.Context, employeeID string, fiscalYear int) ([]leave.LeaveApplication, error) {
	out := make([]leave.LeaveApplication, 0)
	for _, a := range r.applications {
		if a.EmployeeID == employeeID && a.FiscalYear == fiscalYear {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeApplicationRepo) GetByCompanyID(_ context.Context, companyID string, status *leave.ApplicationStatus) ([]leave.LeaveApplication, error) {
	out := make([]leave.LeaveApplication, 0)
	for _, a := range r.applications {
		if a.CompanyID != companyID {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type fakeApprovalLogRepo struct {
	logs []leave.ApprovalLog
}

func (r *fakeApprovalLogRepo) Append(_ context.Context, log leave.ApprovalLog) error {
	log.ID = fmt.Sprintf("log-%d", len(r.logs)+1)
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeApprovalLogRepo) GetByApplicationID(_ context.Context, applicationID string) ([]leave.ApprovalLog, error) {
	out := make([]leave.ApprovalLog, 0)
	for _, l := range r.logs {
		if l.ApplicationID == applicationID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeRecallRepo struct {
	recalls map[string]leave.LeaveRecall
	seq     int
}

func newFakeRecallRepo() *fakeRecallRepo {
	return &fakeRecallRepo{recalls: make(map[string]leave.LeaveRecall)}
}

func (r *fakeRecallRepo) Create(_ context.Context, rec leave.LeaveRecall) (leave.LeaveRecall, error) {
	for _, existing := range r.recalls {
		if existing.ApplicationID == rec.ApplicationID && existing.Status == leave.RecallPending {
			return leave.LeaveRecall{}, leave.ErrRecallAlreadyPending
		}
	}
	r.seq++
	rec.ID = fmt.Sprintf("rec-%d", r.seq)
	rec.Status = leave.RecallPending
	r.recalls[rec.ID] = rec
	return rec, nil
}

func (r *fakeRecallRepo) GetByID(_ context.Context, id string) (leave.LeaveRecall, error) {
	rec, ok := r.recalls[id]
	if !ok {
		return leave.LeaveRecall{}, leave.ErrRecallNotFound
	}
	return rec, nil
}

func (r *fakeRecallRepo) Resolve(_ context.Context, id string, status leave.RecallStatus, daysRestored float64, actualReturnDate *time.Time) error {
	rec, ok := r.recalls[id]
	if !ok || rec.Status != leave.RecallPending {
		return leave.ErrRecallAlreadyResolved
	}
	rec.Status = status
	rec.DaysRestored = daysRestored
	rec.ActualReturnDate = actualReturnDate
	r.recalls[id] = rec
	return nil
}

func (r *fakeRecallRepo) Delete(_ context.Context, id string) error {
	rec, ok := r.recalls[id]
	if !ok || rec.Status != leave.RecallPending {
		return leave.ErrRecallAlreadyResolved
	}
	delete(r.recalls, id)
	return nil
}

type fakeUnpaidUsageRepo struct {
	counts map[string]int
}

func newFakeUnpaidUsageRepo() *fakeUnpaidUsageRepo {
	return &fakeUnpaidUsageRepo{counts: make(map[string]int)}
}

func unpaidKey(employeeID, companyID string, fiscalYear int) string {
	return fmt.Sprintf("%s|%s|%d", employeeID, companyID, fiscalYear)
}

func (r *fakeUnpaidUsageRepo) Get(_ context.Context, employeeID, companyID string, fiscalYear int) (leave.UnpaidLeaveUsage, error) {
	return leave.UnpaidLeaveUsage{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		FiscalYear: fiscalYear,
		UsageCount: r.counts[unpaidKey(employeeID, companyID, fiscalYear)],
	}, nil
}

func (r *fakeUnpaidUsageRepo) Increment(_ context.Context, employeeID, companyID string, fiscalYear int) error {
	key := unpaidKey(employeeID, companyID, fiscalYear)
	if r.counts[key] >= leave.UnpaidMaxUsesPerFiscalYear {
		return leave.ErrUnpaidLimitExceeded
	}
	r.counts[key]++
	return nil
}

type fakeHolidayRepo struct {
	dates []time.Time
}

func (r *fakeHolidayRepo) GetDates(_ context.Context, _ string, from, to time.Time) ([]time.Time, error) {
	out := make([]time.Time, 0)
	for _, d := range r.dates {
		if !d.Before(from) && !d.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	sent []string
}

func (n *fakeNotifier) Notify(_ context.Context, recipientEmail, subject, _ string) error {
	n.sent = append(n.sent, recipientEmail+": "+subject)
	return nil
}
