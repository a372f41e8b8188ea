package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/notification"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/validator"
)

// statusConflictRetries bounds the automatic retry after a lost
// compare-and-swap on application status.
const statusConflictRetries = 1

type applicationServiceImpl struct {
	tx              Transactor
	applicationRepo leave.LeaveApplicationRepository
	approvalLogRepo leave.ApprovalLogRepository
	unpaidUsageRepo leave.UnpaidUsageRepository
	holidayRepo     leave.HolidayRepository
	leaveTypeRepo   leave.LeaveTypeRepository
	settingsRepo    leave.LeaveSettingsRepository
	employeeRepo    employee.EmployeeRepository
	balanceService  leave.BalanceService
	notifier        notification.Notifier
	logger          *slog.Logger
	now             func() time.Time
}

func NewApplicationService(
	tx Transactor,
	applicationRepo leave.LeaveApplicationRepository,
	approvalLogRepo leave.ApprovalLogRepository,
	unpaidUsageRepo leave.UnpaidUsageRepository,
	holidayRepo leave.HolidayRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
	settingsRepo leave.LeaveSettingsRepository,
	employeeRepo employee.EmployeeRepository,
	balanceService leave.BalanceService,
	notifier notification.Notifier,
	logger *slog.Logger,
) leave.ApplicationService {
	return &applicationServiceImpl{
		tx:              tx,
		applicationRepo: applicationRepo,
		approvalLogRepo: approvalLogRepo,
		unpaidUsageRepo: unpaidUsageRepo,
		holidayRepo:     holidayRepo,
		leaveTypeRepo:   leaveTypeRepo,
		settingsRepo:    settingsRepo,
		employeeRepo:    employeeRepo,
		balanceService:  balanceService,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *applicationServiceImpl) resolveSettings(ctx context.Context, companyID string) (leave.LeaveSettings, error) {
	settings, err := s.settingsRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		if errors.Is(err, leave.ErrSettingsNotFound) {
			return leave.DefaultSettings(companyID), nil
		}
		return leave.LeaveSettings{}, err
	}
	return settings, nil
}

// Create implements leave.ApplicationService. Checks run cheapest-first:
// shape validation, then applicability rules, then the overlap and balance
// guards inside a single transaction with the insert.
func (s *applicationServiceImpl) Create(ctx context.Context, req leave.CreateApplicationRequest) (leave.LeaveApplication, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveApplication{}, err
	}
	startDate, _ := validator.IsValidDate(req.StartDate)
	endDate, _ := validator.IsValidDate(req.EndDate)

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return leave.LeaveApplication{}, err
	}
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.LeaveApplication{}, err
	}

	if !leaveType.AppliesTo(emp.Gender) {
		return leave.LeaveApplication{}, leave.ErrGenderNotApplicable
	}
	if leaveType.RequiresAttachment && (req.AttachmentURL == nil || *req.AttachmentURL == "") {
		return leave.LeaveApplication{}, leave.ErrAttachmentRequired
	}

	settings, err := s.resolveSettings(ctx, emp.CompanyID)
	if err != nil {
		return leave.LeaveApplication{}, err
	}

	requestedDays, returnDate, err := s.countRequestedDays(ctx, emp.CompanyID, leaveType, settings, startDate, endDate)
	if err != nil {
		return leave.LeaveApplication{}, err
	}
	if requestedDays <= 0 {
		return leave.LeaveApplication{}, validator.ValidationErrors{{
			Field:   "start_date",
			Message: "requested range contains no deductible days",
		}}
	}

	fiscalYear := settings.FiscalYear(startDate)

	if !leaveType.Paid {
		if CalendarDays(startDate, endDate) > leave.UnpaidMaxConsecutiveDays {
			return leave.LeaveApplication{}, leave.ErrUnpaidSpanTooLong
		}
		usage, err := s.unpaidUsageRepo.Get(ctx, emp.ID, emp.CompanyID, fiscalYear)
		if err != nil {
			return leave.LeaveApplication{}, err
		}
		if usage.UsageCount >= leave.UnpaidMaxUsesPerFiscalYear {
			return leave.LeaveApplication{}, leave.ErrUnpaidLimitExceeded
		}
	}

	application := leave.LeaveApplication{
		CompanyID:       emp.CompanyID,
		EmployeeID:      emp.ID,
		LeaveTypeID:     leaveType.ID,
		FiscalYear:      fiscalYear,
		StartDate:       startDate,
		EndDate:         endDate,
		ReturnDate:      returnDate,
		RequestedDays:   requestedDays,
		Status:          leave.StatusPendingSupervisor,
		ReliefOfficerID: req.ReliefOfficerID,
		Reason:          req.Reason,
		AttachmentURL:   req.AttachmentURL,
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		overlapping, err := s.applicationRepo.HasOverlapping(ctx, emp.ID, startDate, endDate)
		if err != nil {
			return err
		}
		if overlapping {
			return leave.ErrOverlappingApplication
		}
		if leaveType.Paid {
			if err := s.balanceService.Reserve(ctx, emp.ID, leaveType.ID, fiscalYear, requestedDays); err != nil {
				return err
			}
		}
		application, err = s.applicationRepo.Create(ctx, application)
		return err
	})
	if err != nil {
		return leave.LeaveApplication{}, err
	}

	s.notifyManager(ctx, emp, fmt.Sprintf("Leave request from %s", emp.FullName),
		fmt.Sprintf("%s requested %s from %s to %s.", emp.FullName, leaveType.Name,
			startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))

	return application, nil
}

// countRequestedDays applies the leave type's deduction basis over the span.
// Holidays are fetched a month past the end date so the return date can land
// after a holiday run.
func (s *applicationServiceImpl) countRequestedDays(ctx context.Context, companyID string, leaveType leave.LeaveType, settings leave.LeaveSettings, startDate, endDate time.Time) (float64, time.Time, error) {
	holidays, err := s.holidayRepo.GetDates(ctx, companyID, startDate, endDate.AddDate(0, 1, 0))
	if err != nil {
		return 0, time.Time{}, err
	}
	calendar, err := NewWorkCalendar(settings.WeeklyPattern, holidays)
	if err != nil {
		return 0, time.Time{}, err
	}

	returnDate := calendar.ReturnDate(endDate)
	if leaveType.DeductionBasis == leave.DeductCalendarDays {
		return CalendarDays(startDate, endDate), returnDate, nil
	}
	return calendar.WorkingDays(startDate, endDate), returnDate, nil
}

// stageRole maps a pending status to the role allowed to act on it.
func stageRole(status leave.ApplicationStatus) (leave.ApproverRole, bool) {
	switch status {
	case leave.StatusPendingSupervisor:
		return leave.RoleSupervisor, true
	case leave.StatusPendingHR:
		return leave.RoleHR, true
	case leave.StatusPendingCEO:
		return leave.RoleCEO, true
	default:
		return "", false
	}
}

// authorizeStage checks that the actor may decide the application at its
// current stage. Admins may act anywhere; the supervisor stage additionally
// requires the actor to be the applicant's current direct manager.
func (s *applicationServiceImpl) authorizeStage(ctx context.Context, actor leave.Actor, app leave.LeaveApplication) error {
	role, ok := stageRole(app.Status)
	if !ok {
		return leave.ErrAlreadyProcessed
	}
	if actor.Role == leave.RoleAdmin {
		return nil
	}
	if actor.Role != role {
		return leave.ErrNotAuthorizedApprover
	}
	if app.Status == leave.StatusPendingSupervisor {
		emp, err := s.employeeRepo.GetByID(ctx, app.EmployeeID)
		if err != nil {
			return err
		}
		if emp.ManagerID == nil || *emp.ManagerID != actor.EmployeeID {
			return leave.ErrNotAuthorizedApprover
		}
	}
	return nil
}

// Approve implements leave.ApplicationService. The status swap is a
// compare-and-swap; a lost race re-reads the row once before giving up, so
// a second identical approval surfaces ErrAlreadyProcessed rather than a
// double transition.
func (s *applicationServiceImpl) Approve(ctx context.Context, req leave.ApproveApplicationRequest) (leave.LeaveApplication, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveApplication{}, err
	}

	var application leave.LeaveApplication
	for attempt := 0; ; attempt++ {
		app, err := s.applicationRepo.GetByID(ctx, req.ApplicationID)
		if err != nil {
			return leave.LeaveApplication{}, err
		}
		if app.Status.IsTerminal() {
			return leave.LeaveApplication{}, leave.ErrAlreadyProcessed
		}
		if err := s.authorizeStage(ctx, req.Approver, app); err != nil {
			return leave.LeaveApplication{}, err
		}

		next, err := s.nextStatus(ctx, app)
		if err != nil {
			return leave.LeaveApplication{}, err
		}

		err = s.tx(ctx, func(ctx context.Context) error {
			if err := s.applicationRepo.UpdateStatus(ctx, app.ID, app.Status, next); err != nil {
				return err
			}
			if err := s.approvalLogRepo.Append(ctx, leave.ApprovalLog{
				ApplicationID: app.ID,
				ApproverID:    req.Approver.EmployeeID,
				Role:          req.Approver.Role,
				Action:        leave.ActionApproved,
				Comments:      req.Comments,
			}); err != nil {
				return err
			}
			if next == leave.StatusApproved {
				return s.finalizeApproval(ctx, app)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, leave.ErrStoreConflict) && attempt < statusConflictRetries {
				continue
			}
			return leave.LeaveApplication{}, err
		}

		app.Status = next
		application = app
		break
	}

	if application.Status == leave.StatusApproved {
		s.notifyEmployee(ctx, application.EmployeeID, "Leave request approved",
			fmt.Sprintf("Your leave from %s to %s has been approved.",
				application.StartDate.Format("2006-01-02"), application.EndDate.Format("2006-01-02")))
	}
	return application, nil
}

// nextStatus advances the approval chain. The CEO stage applies only to
// manager-tier employees and only when company policy requires it; the
// policy is read at decision time, not at application time.
func (s *applicationServiceImpl) nextStatus(ctx context.Context, app leave.LeaveApplication) (leave.ApplicationStatus, error) {
	switch app.Status {
	case leave.StatusPendingSupervisor:
		return leave.StatusPendingHR, nil
	case leave.StatusPendingHR:
		emp, err := s.employeeRepo.GetByID(ctx, app.EmployeeID)
		if err != nil {
			return "", err
		}
		settings, err := s.resolveSettings(ctx, app.CompanyID)
		if err != nil {
			return "", err
		}
		if emp.IsManagerTier() && settings.CEOApprovalRequired {
			return leave.StatusPendingCEO, nil
		}
		return leave.StatusApproved, nil
	case leave.StatusPendingCEO:
		return leave.StatusApproved, nil
	default:
		return "", leave.ErrAlreadyProcessed
	}
}

// finalizeApproval settles the ledger side of a final approval: paid leave
// moves the reservation to used; unpaid leave burns one of the capped uses.
func (s *applicationServiceImpl) finalizeApproval(ctx context.Context, app leave.LeaveApplication) error {
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, app.LeaveTypeID)
	if err != nil {
		return err
	}
	if leaveType.Paid {
		return s.balanceService.Commit(ctx, app.EmployeeID, app.LeaveTypeID, app.FiscalYear, app.RequestedDays)
	}
	return s.unpaidUsageRepo.Increment(ctx, app.EmployeeID, app.CompanyID, app.FiscalYear)
}

// Reject implements leave.ApplicationService.
func (s *applicationServiceImpl) Reject(ctx context.Context, req leave.RejectApplicationRequest) (leave.LeaveApplication, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveApplication{}, err
	}

	var application leave.LeaveApplication
	for attempt := 0; ; attempt++ {
		app, err := s.applicationRepo.GetByID(ctx, req.ApplicationID)
		if err != nil {
			return leave.LeaveApplication{}, err
		}
		if app.Status.IsTerminal() {
			return leave.LeaveApplication{}, leave.ErrAlreadyProcessed
		}
		if err := s.authorizeStage(ctx, req.Approver, app); err != nil {
			return leave.LeaveApplication{}, err
		}

		err = s.tx(ctx, func(ctx context.Context) error {
			if err := s.applicationRepo.UpdateStatus(ctx, app.ID, app.Status, leave.StatusRejected); err != nil {
				return err
			}
			if err := s.approvalLogRepo.Append(ctx, leave.ApprovalLog{
				ApplicationID: app.ID,
				ApproverID:    req.Approver.EmployeeID,
				Role:          req.Approver.Role,
				Action:        leave.ActionRejected,
				Comments:      req.Reason,
			}); err != nil {
				return err
			}
			return s.releaseReservation(ctx, app)
		})
		if err != nil {
			if errors.Is(err, leave.ErrStoreConflict) && attempt < statusConflictRetries {
				continue
			}
			return leave.LeaveApplication{}, err
		}

		app.Status = leave.StatusRejected
		application = app
		break
	}

	s.notifyEmployee(ctx, application.EmployeeID, "Leave request rejected",
		fmt.Sprintf("Your leave from %s to %s was rejected: %s",
			application.StartDate.Format("2006-01-02"), application.EndDate.Format("2006-01-02"), req.Reason))
	return application, nil
}

func (s *applicationServiceImpl) releaseReservation(ctx context.Context, app leave.LeaveApplication) error {
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, app.LeaveTypeID)
	if err != nil {
		return err
	}
	if !leaveType.Paid {
		return nil
	}
	return s.balanceService.Release(ctx, app.EmployeeID, app.LeaveTypeID, app.FiscalYear, app.RequestedDays)
}

// Cancel implements leave.ApplicationService. Pending applications release
// their reservation; an approved application can be cancelled only before
// its start date, refunding the committed days.
func (s *applicationServiceImpl) Cancel(ctx context.Context, applicationID string, actor leave.Actor) (leave.LeaveApplication, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return leave.LeaveApplication{}, err
	}
	if app.EmployeeID != actor.EmployeeID {
		return leave.LeaveApplication{}, leave.ErrNotApplicationOwner
	}

	switch {
	case app.Status.IsPending():
		err = s.tx(ctx, func(ctx context.Context) error {
			if err := s.applicationRepo.UpdateStatus(ctx, app.ID, app.Status, leave.StatusCancelled); err != nil {
				return err
			}
			if err := s.approvalLogRepo.Append(ctx, leave.ApprovalLog{
				ApplicationID: app.ID,
				ApproverID:    actor.EmployeeID,
				Role:          leave.RoleEmployee,
				Action:        leave.ActionCancelled,
			}); err != nil {
				return err
			}
			return s.releaseReservation(ctx, app)
		})

	case app.Status == leave.StatusApproved:
		if !s.now().Before(truncateDay(app.StartDate)) {
			return leave.LeaveApplication{}, leave.ErrLeaveAlreadyStarted
		}
		err = s.tx(ctx, func(ctx context.Context) error {
			if err := s.applicationRepo.UpdateStatus(ctx, app.ID, app.Status, leave.StatusCancelled); err != nil {
				return err
			}
			if err := s.approvalLogRepo.Append(ctx, leave.ApprovalLog{
				ApplicationID: app.ID,
				ApproverID:    actor.EmployeeID,
				Role:          leave.RoleEmployee,
				Action:        leave.ActionCancelled,
			}); err != nil {
				return err
			}
			return s.refundCommitted(ctx, app, app.RequestedDays)
		})

	default:
		return leave.LeaveApplication{}, leave.ErrAlreadyProcessed
	}
	if err != nil {
		return leave.LeaveApplication{}, err
	}

	app.Status = leave.StatusCancelled
	return app, nil
}

func (s *applicationServiceImpl) refundCommitted(ctx context.Context, app leave.LeaveApplication, days float64) error {
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, app.LeaveTypeID)
	if err != nil {
		return err
	}
	if !leaveType.Paid {
		return nil
	}
	return s.balanceService.Refund(ctx, app.EmployeeID, app.LeaveTypeID, app.FiscalYear, days)
}

// Get implements leave.ApplicationService.
func (s *applicationServiceImpl) Get(ctx context.Context, applicationID string) (leave.LeaveApplication, error) {
	return s.applicationRepo.GetByID(ctx, applicationID)
}

// GetByEmployee implements leave.ApplicationService.
func (s *applicationServiceImpl) GetByEmployee(ctx context.Context, employeeID string, fiscalYear int) ([]leave.LeaveApplication, error) {
	return s.applicationRepo.GetByEmployeeID(ctx, employeeID, fiscalYear)
}

// GetByCompany implements leave.ApplicationService.
func (s *applicationServiceImpl) GetByCompany(ctx context.Context, companyID string, status *leave.ApplicationStatus) ([]leave.LeaveApplication, error) {
	return s.applicationRepo.GetByCompanyID(ctx, companyID, status)
}

// ApprovalHistory implements leave.ApplicationService.
func (s *applicationServiceImpl) ApprovalHistory(ctx context.Context, applicationID string) ([]leave.ApprovalLog, error) {
	return s.approvalLogRepo.GetByApplicationID(ctx, applicationID)
}

// notifyEmployee sends a best-effort notification. Delivery failure never
// fails the business operation.
func (s *applicationServiceImpl) notifyEmployee(ctx context.Context, employeeID, subject, body string) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		s.logger.Warn("notification skipped, employee lookup failed", "employee_id", employeeID, "error", err)
		return
	}
	if err := s.notifier.Notify(ctx, emp.Email, subject, body); err != nil {
		s.logger.Warn("notification delivery failed", "employee_id", employeeID, "error", err)
	}
}

func (s *applicationServiceImpl) notifyManager(ctx context.Context, emp employee.Employee, subject, body string) {
	if emp.ManagerID == nil {
		return
	}
	s.notifyEmployee(ctx, *emp.ManagerID, subject, body)
}
