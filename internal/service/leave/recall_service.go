package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/notification"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/validator"
)

type recallServiceImpl struct {
	tx              Transactor
	recallRepo      leave.LeaveRecallRepository
	applicationRepo leave.LeaveApplicationRepository
	leaveTypeRepo   leave.LeaveTypeRepository
	settingsRepo    leave.LeaveSettingsRepository
	holidayRepo     leave.HolidayRepository
	employeeRepo    employee.EmployeeRepository
	balanceService  leave.BalanceService
	notifier        notification.Notifier
	logger          *slog.Logger
	now             func() time.Time
}

func NewRecallService(
	tx Transactor,
	recallRepo leave.LeaveRecallRepository,
	applicationRepo leave.LeaveApplicationRepository,
	leaveTypeRepo leave.LeaveTypeRepository,
	settingsRepo leave.LeaveSettingsRepository,
	holidayRepo leave.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
	balanceService leave.BalanceService,
	notifier notification.Notifier,
	logger *slog.Logger,
) leave.RecallService {
	return &recallServiceImpl{
		tx:              tx,
		recallRepo:      recallRepo,
		applicationRepo: applicationRepo,
		leaveTypeRepo:   leaveTypeRepo,
		settingsRepo:    settingsRepo,
		holidayRepo:     holidayRepo,
		employeeRepo:    employeeRepo,
		balanceService:  balanceService,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

func canInitiateRecall(actor leave.Actor) bool {
	switch actor.Role {
	case leave.RoleSupervisor, leave.RoleHR, leave.RoleCEO, leave.RoleAdmin:
		return true
	default:
		return false
	}
}

// Create implements leave.RecallService. Only approved leave that is
// currently in progress can be recalled, and only for a future date inside
// the remaining span. At most one pending recall exists per application.
func (s *recallServiceImpl) Create(ctx context.Context, req leave.CreateRecallRequest) (leave.LeaveRecall, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRecall{}, err
	}
	if !canInitiateRecall(req.Initiator) {
		return leave.LeaveRecall{}, leave.ErrNotAuthorizedApprover
	}
	recallDate, _ := validator.IsValidDate(req.RecallDate)

	app, err := s.applicationRepo.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return leave.LeaveRecall{}, err
	}
	if app.Status != leave.StatusApproved {
		return leave.LeaveRecall{}, leave.ErrLeaveNotInProgress
	}

	today := truncateDay(s.now())
	if today.Before(truncateDay(app.StartDate)) || today.After(truncateDay(app.EndDate)) {
		return leave.LeaveRecall{}, leave.ErrLeaveNotInProgress
	}
	if !recallDate.After(today) || recallDate.After(truncateDay(app.EndDate)) {
		return leave.LeaveRecall{}, leave.ErrRecallDateOutOfRange
	}

	recall, err := s.recallRepo.Create(ctx, leave.LeaveRecall{
		ApplicationID: app.ID,
		InitiatorID:   req.Initiator.EmployeeID,
		Reason:        req.Reason,
		RecallDate:    recallDate,
	})
	if err != nil {
		return leave.LeaveRecall{}, err
	}

	s.notify(ctx, app.EmployeeID, "Recall from leave requested",
		fmt.Sprintf("You are asked to return from leave on %s: %s", recallDate.Format("2006-01-02"), req.Reason))
	return recall, nil
}

// Respond implements leave.RecallService. Accepting truncates the leave at
// the actual return date, restores the days from that date through the
// original end to the ledger and records them on the recall row. Declining
// resolves the recall with no ledger effect.
func (s *recallServiceImpl) Respond(ctx context.Context, req leave.RespondRecallRequest) (leave.LeaveRecall, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRecall{}, err
	}

	recall, err := s.recallRepo.GetByID(ctx, req.RecallID)
	if err != nil {
		return leave.LeaveRecall{}, err
	}
	if recall.Status != leave.RecallPending {
		return leave.LeaveRecall{}, leave.ErrRecallAlreadyResolved
	}

	app, err := s.applicationRepo.GetByID(ctx, recall.ApplicationID)
	if err != nil {
		return leave.LeaveRecall{}, err
	}
	if app.EmployeeID != req.Responder.EmployeeID {
		return leave.LeaveRecall{}, leave.ErrNotApplicationOwner
	}

	if req.Decision == "decline" {
		if err := s.recallRepo.Resolve(ctx, recall.ID, leave.RecallDeclined, 0, nil); err != nil {
			return leave.LeaveRecall{}, err
		}
		recall.Status = leave.RecallDeclined
		s.notify(ctx, recall.InitiatorID, "Recall declined",
			fmt.Sprintf("The recall for leave ending %s was declined.", app.EndDate.Format("2006-01-02")))
		return recall, nil
	}

	actualReturn := recall.RecallDate
	if req.ActualReturnDate != nil {
		actualReturn, _ = validator.IsValidDate(*req.ActualReturnDate)
	}
	if actualReturn.After(truncateDay(app.EndDate)) || !actualReturn.After(truncateDay(app.StartDate)) {
		return leave.LeaveRecall{}, leave.ErrRecallDateOutOfRange
	}

	restored, err := s.countRestoredDays(ctx, app, actualReturn)
	if err != nil {
		return leave.LeaveRecall{}, err
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.recallRepo.Resolve(ctx, recall.ID, leave.RecallAccepted, restored, &actualReturn); err != nil {
			return err
		}
		if err := s.applicationRepo.Truncate(ctx, app.ID, actualReturn, actualReturn, app.RequestedDays-restored); err != nil {
			return err
		}
		return s.refundRestored(ctx, app, restored)
	})
	if err != nil {
		return leave.LeaveRecall{}, err
	}

	recall.Status = leave.RecallAccepted
	recall.DaysRestored = restored
	recall.ActualReturnDate = &actualReturn

	s.notify(ctx, recall.InitiatorID, "Recall accepted",
		fmt.Sprintf("The employee returns on %s; %.1f days restored.", actualReturn.Format("2006-01-02"), restored))
	return recall, nil
}

// countRestoredDays values the untaken tail [actualReturn, endDate] using
// the same deduction basis the application was charged with.
func (s *recallServiceImpl) countRestoredDays(ctx context.Context, app leave.LeaveApplication, actualReturn time.Time) (float64, error) {
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, app.LeaveTypeID)
	if err != nil {
		return 0, err
	}
	if leaveType.DeductionBasis == leave.DeductCalendarDays {
		return CalendarDays(actualReturn, app.EndDate), nil
	}

	settings, err := s.resolveSettings(ctx, app.CompanyID)
	if err != nil {
		return 0, err
	}
	holidays, err := s.holidayRepo.GetDates(ctx, app.CompanyID, actualReturn, app.EndDate)
	if err != nil {
		return 0, err
	}
	calendar, err := NewWorkCalendar(settings.WeeklyPattern, holidays)
	if err != nil {
		return 0, err
	}
	return calendar.WorkingDays(actualReturn, app.EndDate), nil
}

func (s *recallServiceImpl) resolveSettings(ctx context.Context, companyID string) (leave.LeaveSettings, error) {
	settings, err := s.settingsRepo.GetByCompanyID(ctx, companyID)
	if err != nil {
		if err == leave.ErrSettingsNotFound {
			return leave.DefaultSettings(companyID), nil
		}
		return leave.LeaveSettings{}, err
	}
	return settings, nil
}

func (s *recallServiceImpl) refundRestored(ctx context.Context, app leave.LeaveApplication, restored float64) error {
	if restored <= 0 {
		return nil
	}
	leaveType, err := s.leaveTypeRepo.GetByID(ctx, app.LeaveTypeID)
	if err != nil {
		return err
	}
	if !leaveType.Paid {
		return nil
	}
	return s.balanceService.Refund(ctx, app.EmployeeID, app.LeaveTypeID, app.FiscalYear, restored)
}

// Cancel implements leave.RecallService. Only pending recalls can be
// withdrawn, and only by whoever initiated them.
func (s *recallServiceImpl) Cancel(ctx context.Context, recallID string, actor leave.Actor) error {
	recall, err := s.recallRepo.GetByID(ctx, recallID)
	if err != nil {
		return err
	}
	if recall.InitiatorID != actor.EmployeeID && actor.Role != leave.RoleAdmin {
		return leave.ErrNotRecallInitiator
	}
	return s.recallRepo.Delete(ctx, recall.ID)
}

func (s *recallServiceImpl) notify(ctx context.Context, employeeID, subject, body string) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		s.logger.Warn("notification skipped, employee lookup failed", "employee_id", employeeID, "error", err)
		return
	}
	if err := s.notifier.Notify(ctx, emp.Email, subject, body); err != nil {
		s.logger.Warn("notification delivery failed", "employee_id", employeeID, "error", err)
	}
}
