package leave

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	supervisorActor = leave.Actor{EmployeeID: "emp-sup", Role: leave.RoleSupervisor}
	hrActor         = leave.Actor{EmployeeID: "emp-hr", Role: leave.RoleHR}
	ceoActor        = leave.Actor{EmployeeID: "emp-ceo", Role: leave.RoleCEO}
)

type appFixture struct {
	svc         leave.ApplicationService
	balanceSvc  leave.BalanceService
	appRepo     *fakeApplicationRepo
	logRepo     *fakeApprovalLogRepo
	unpaidRepo  *fakeUnpaidUsageRepo
	balanceRepo *fakeBalanceRepo
	typeRepo    *fakeLeaveTypeRepo
	notifier    *fakeNotifier
}

func newAppFixture(t *testing.T, now time.Time, types ...leave.LeaveType) appFixture {
	t.Helper()

	supID := "emp-sup"
	empRepo := newFakeEmployeeRepo(
		employee.Employee{
			ID: "emp-1", CompanyID: "co-1", FullName: "Ada Staff", Email: "ada@example.com",
			Gender: employee.Female, HireDate: date(2020, time.January, 1),
			ManagerID: &supID, EmploymentLevel: employee.LevelStaff, Active: true,
		},
		employee.Employee{
			ID: "emp-2", CompanyID: "co-1", FullName: "Max Manager", Email: "max@example.com",
			Gender: employee.Male, HireDate: date(2018, time.June, 1),
			ManagerID: &supID, EmploymentLevel: employee.LevelManager, Active: true,
		},
		employee.Employee{
			ID: "emp-sup", CompanyID: "co-1", FullName: "Sue Supervisor", Email: "sue@example.com",
			Gender: employee.Female, HireDate: date(2015, time.January, 1),
			EmploymentLevel: employee.LevelSenior, Active: true,
		},
	)

	typeRepo := newFakeLeaveTypeRepo(types...)
	settingsRepo := newFakeSettingsRepo()
	balanceRepo := newFakeBalanceRepo()
	appRepo := newFakeApplicationRepo()
	logRepo := &fakeApprovalLogRepo{}
	unpaidRepo := newFakeUnpaidUsageRepo()
	holidayRepo := &fakeHolidayRepo{}
	notifier := &fakeNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	balanceSvc := NewBalanceService(passthroughTx, balanceRepo, typeRepo, settingsRepo, empRepo)
	balanceSvc.(*balanceServiceImpl).now = func() time.Time { return now }

	svc := NewApplicationService(passthroughTx, appRepo, logRepo, unpaidRepo, holidayRepo,
		typeRepo, settingsRepo, empRepo, balanceSvc, notifier, logger)
	svc.(*applicationServiceImpl).now = func() time.Time { return now }

	return appFixture{
		svc: svc, balanceSvc: balanceSvc,
		appRepo: appRepo, logRepo: logRepo, unpaidRepo: unpaidRepo,
		balanceRepo: balanceRepo, typeRepo: typeRepo, notifier: notifier,
	}
}

func unpaidLeaveType() leave.LeaveType {
	return leave.LeaveType{
		ID: "lt-unpaid", CompanyID: "co-1", Name: "Unpaid Leave", Code: "UNPAID",
		Paid: false, ApplicableGender: leave.GenderAll, DeductionBasis: leave.DeductWorkingDays,
	}
}

func TestApplicationCreate(t *testing.T) {
	ctx := context.Background()
	now := date(2026, time.March, 2)

	t.Run("counts working days and reserves them", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())

		app, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID:  "emp-1",
			LeaveTypeID: "lt-annual",
			StartDate:   "2026-03-09",
			EndDate:     "2026-03-13",
			Reason:      "family trip",
		})
		require.NoError(t, err)

		assert.Equal(t, leave.StatusPendingSupervisor, app.Status)
		assert.Equal(t, 5.0, app.RequestedDays)
		assert.Equal(t, date(2026, time.March, 14), app.ReturnDate)
		assert.Equal(t, 2026, app.FiscalYear)

		balance, err := f.balanceSvc.Get(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		assert.Equal(t, 5.0, balance.PendingDays)

		require.Len(t, f.notifier.sent, 1)
		assert.Contains(t, f.notifier.sent[0], "sue@example.com")
	})

	t.Run("rejects a gender-restricted type", func(t *testing.T) {
		leaveType := annualLeaveType()
		leaveType.ID = "lt-paternity"
		leaveType.ApplicableGender = leave.GenderMale
		f := newAppFixture(t, now, leaveType)

		_, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID:  "emp-1", // female
			LeaveTypeID: "lt-paternity",
			StartDate:   "2026-03-09",
			EndDate:     "2026-03-13",
		})
		assert.True(t, errors.Is(err, leave.ErrGenderNotApplicable))
	})

	t.Run("requires an attachment when the type demands one", func(t *testing.T) {
		leaveType := annualLeaveType()
		leaveType.RequiresAttachment = true
		f := newAppFixture(t, now, leaveType)

		_, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID:  "emp-1",
			LeaveTypeID: "lt-annual",
			StartDate:   "2026-03-09",
			EndDate:     "2026-03-13",
		})
		assert.True(t, errors.Is(err, leave.ErrAttachmentRequired))
	})

	t.Run("rejects overlapping applications", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())

		_, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-annual",
			StartDate: "2026-03-09", EndDate: "2026-03-13",
		})
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-annual",
			StartDate: "2026-03-12", EndDate: "2026-03-17",
		})
		assert.True(t, errors.Is(err, leave.ErrOverlappingApplication))
	})

	t.Run("insufficient balance carries available and requested", func(t *testing.T) {
		leaveType := annualLeaveType()
		leaveType.DefaultAllowanceDays = 2
		f := newAppFixture(t, now, leaveType)

		_, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-annual",
			StartDate: "2026-03-09", EndDate: "2026-03-13",
		})

		var ruleErr *leave.BusinessRuleError
		require.ErrorAs(t, err, &ruleErr)
		assert.Equal(t, 2.0, ruleErr.Available)
		assert.Equal(t, 5.0, ruleErr.Requested)
	})

	t.Run("unpaid leave span is capped", func(t *testing.T) {
		f := newAppFixture(t, now, unpaidLeaveType())

		_, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-unpaid",
			StartDate: "2026-03-09", EndDate: "2026-03-14", // six calendar days
		})
		assert.True(t, errors.Is(err, leave.ErrUnpaidSpanTooLong))
	})

	t.Run("unpaid leave uses per year are capped", func(t *testing.T) {
		f := newAppFixture(t, now, unpaidLeaveType())
		f.unpaidRepo.counts[unpaidKey("emp-1", "co-1", 2026)] = leave.UnpaidMaxUsesPerFiscalYear

		_, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-unpaid",
			StartDate: "2026-03-09", EndDate: "2026-03-11",
		})
		assert.True(t, errors.Is(err, leave.ErrUnpaidLimitExceeded))
	})

	t.Run("unpaid leave never touches the ledger", func(t *testing.T) {
		f := newAppFixture(t, now, unpaidLeaveType())

		_, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-unpaid",
			StartDate: "2026-03-09", EndDate: "2026-03-11",
		})
		require.NoError(t, err)
		assert.Empty(t, f.balanceRepo.balances)
	})
}

func createApplication(t *testing.T, f appFixture, employeeID, leaveTypeID string) leave.LeaveApplication {
	t.Helper()
	app, err := f.svc.Create(context.Background(), leave.CreateApplicationRequest{
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		StartDate:   "2026-03-09",
		EndDate:     "2026-03-13",
		Reason:      "trip",
	})
	require.NoError(t, err)
	return app
}

func TestApplicationApprove(t *testing.T) {
	ctx := context.Background()
	now := date(2026, time.March, 2)

	t.Run("staff chain ends at HR and commits the ledger", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		afterSup, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: supervisorActor})
		require.NoError(t, err)
		assert.Equal(t, leave.StatusPendingHR, afterSup.Status)

		afterHR, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, afterHR.Status)

		balance, err := f.balanceSvc.Get(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance.PendingDays)
		assert.Equal(t, 5.0, balance.UsedDays)

		logs, err := f.svc.ApprovalHistory(ctx, app.ID)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, leave.RoleSupervisor, logs[0].Role)
		assert.Equal(t, leave.RoleHR, logs[1].Role)
	})

	t.Run("manager tier escalates to the CEO", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-2", "lt-annual") // manager level

		_, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: supervisorActor})
		require.NoError(t, err)

		afterHR, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		require.NoError(t, err)
		assert.Equal(t, leave.StatusPendingCEO, afterHR.Status)

		afterCEO, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: ceoActor})
		require.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, afterCEO.Status)
	})

	t.Run("wrong role at a stage is rejected", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		_, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		assert.True(t, errors.Is(err, leave.ErrNotAuthorizedApprover))
	})

	t.Run("a supervisor who is not the direct manager cannot approve", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		other := leave.Actor{EmployeeID: "emp-2", Role: leave.RoleSupervisor}
		_, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: other})
		assert.True(t, errors.Is(err, leave.ErrNotAuthorizedApprover))

		unchanged, err := f.svc.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusPendingSupervisor, unchanged.Status)
	})

	t.Run("admins can act on any stage", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		admin := leave.Actor{EmployeeID: "emp-sup", Role: leave.RoleAdmin}
		after, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: admin})
		require.NoError(t, err)
		assert.Equal(t, leave.StatusPendingHR, after.Status)
	})

	t.Run("approving a settled application has no ledger effect", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		_, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: supervisorActor})
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		assert.True(t, errors.Is(err, leave.ErrAlreadyProcessed))

		balance, err := f.balanceSvc.Get(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		assert.Equal(t, 5.0, balance.UsedDays)
		assert.Equal(t, 0.0, balance.PendingDays)
	})

	t.Run("final approval of unpaid leave burns a capped use", func(t *testing.T) {
		f := newAppFixture(t, now, unpaidLeaveType())
		app, err := f.svc.Create(ctx, leave.CreateApplicationRequest{
			EmployeeID: "emp-1", LeaveTypeID: "lt-unpaid",
			StartDate: "2026-03-09", EndDate: "2026-03-11",
		})
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: supervisorActor})
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		require.NoError(t, err)

		usage, err := f.unpaidRepo.Get(ctx, "emp-1", "co-1", 2026)
		require.NoError(t, err)
		assert.Equal(t, 1, usage.UsageCount)
	})
}

func TestApplicationReject(t *testing.T) {
	ctx := context.Background()
	now := date(2026, time.March, 2)

	t.Run("releases the reservation and records the reason", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		rejected, err := f.svc.Reject(ctx, leave.RejectApplicationRequest{
			ApplicationID: app.ID,
			Reason:        "short staffed that week",
			Approver:      supervisorActor,
		})
		require.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, rejected.Status)

		balance, err := f.balanceSvc.Get(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance.PendingDays)
		assert.Equal(t, 16.0, balance.RemainingDays)

		logs, err := f.svc.ApprovalHistory(ctx, app.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, leave.ActionRejected, logs[0].Action)
		assert.Equal(t, "short staffed that week", logs[0].Comments)
	})

	t.Run("a supervisor who is not the direct manager cannot reject", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		other := leave.Actor{EmployeeID: "emp-2", Role: leave.RoleSupervisor}
		_, err := f.svc.Reject(ctx, leave.RejectApplicationRequest{
			ApplicationID: app.ID,
			Reason:        "no coverage",
			Approver:      other,
		})
		assert.True(t, errors.Is(err, leave.ErrNotAuthorizedApprover))
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		_, err := f.svc.Reject(ctx, leave.RejectApplicationRequest{
			ApplicationID: app.ID,
			Approver:      supervisorActor,
		})
		assert.Error(t, err)
	})
}

func TestApplicationCancel(t *testing.T) {
	ctx := context.Background()
	now := date(2026, time.March, 2)
	owner := leave.Actor{EmployeeID: "emp-1", Role: leave.RoleEmployee}

	t.Run("pending cancellation releases the reservation", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		cancelled, err := f.svc.Cancel(ctx, app.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, cancelled.Status)

		balance, err := f.balanceSvc.Get(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		assert.Equal(t, 16.0, balance.RemainingDays)
	})

	t.Run("only the owner can cancel", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		_, err := f.svc.Cancel(ctx, app.ID, leave.Actor{EmployeeID: "emp-2", Role: leave.RoleEmployee})
		assert.True(t, errors.Is(err, leave.ErrNotApplicationOwner))
	})

	t.Run("approved leave refunds when cancelled before it starts", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		_, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: supervisorActor})
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		require.NoError(t, err)

		cancelled, err := f.svc.Cancel(ctx, app.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, cancelled.Status)

		balance, err := f.balanceSvc.Get(ctx, "emp-1", "lt-annual", 2026)
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance.UsedDays)
		assert.Equal(t, 16.0, balance.RemainingDays)
	})

	t.Run("approved leave cannot be cancelled once started", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		_, err := f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: supervisorActor})
		require.NoError(t, err)
		_, err = f.svc.Approve(ctx, leave.ApproveApplicationRequest{ApplicationID: app.ID, Approver: hrActor})
		require.NoError(t, err)

		f.svc.(*applicationServiceImpl).now = func() time.Time { return date(2026, time.March, 10) }
		_, err = f.svc.Cancel(ctx, app.ID, owner)
		assert.True(t, errors.Is(err, leave.ErrLeaveAlreadyStarted))
	})

	t.Run("cancelling a settled application is a conflict", func(t *testing.T) {
		f := newAppFixture(t, now, annualLeaveType())
		app := createApplication(t, f, "emp-1", "lt-annual")

		_, err := f.svc.Cancel(ctx, app.ID, owner)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, app.ID, owner)
		assert.True(t, errors.Is(err, leave.ErrAlreadyProcessed))
	})
}
