package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/handler/http/response"
)

type LeaveHandler interface {
	CreateType(w http.ResponseWriter, r *http.Request)
	UpdateType(w http.ResponseWriter, r *http.Request)
	GetType(w http.ResponseWriter, r *http.Request)
	ListTypes(w http.ResponseWriter, r *http.Request)
	DeleteType(w http.ResponseWriter, r *http.Request)

	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)

	GetMyBalances(w http.ResponseWriter, r *http.Request)
	ListBalances(w http.ResponseWriter, r *http.Request)
	AdjustBalance(w http.ResponseWriter, r *http.Request)

	CreateApplication(w http.ResponseWriter, r *http.Request)
	GetApplication(w http.ResponseWriter, r *http.Request)
	GetMyApplications(w http.ResponseWriter, r *http.Request)
	ListApplications(w http.ResponseWriter, r *http.Request)
	ApprovalHistory(w http.ResponseWriter, r *http.Request)
	ApproveApplication(w http.ResponseWriter, r *http.Request)
	RejectApplication(w http.ResponseWriter, r *http.Request)
	CancelApplication(w http.ResponseWriter, r *http.Request)

	CreateRecall(w http.ResponseWriter, r *http.Request)
	RespondRecall(w http.ResponseWriter, r *http.Request)
	CancelRecall(w http.ResponseWriter, r *http.Request)

	QuoteEncashment(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	registryService    leave.RegistryService
	balanceService     leave.BalanceService
	applicationService leave.ApplicationService
	recallService      leave.RecallService
	encashmentService  leave.EncashmentService
}

func NewLeaveHandler(
	registryService leave.RegistryService,
	balanceService leave.BalanceService,
	applicationService leave.ApplicationService,
	recallService leave.RecallService,
	encashmentService leave.EncashmentService,
) LeaveHandler {
	return &LeaveHandlerImpl{
		registryService:    registryService,
		balanceService:     balanceService,
		applicationService: applicationService,
		recallService:      recallService,
		encashmentService:  encashmentService,
	}
}

// claimsIdentity is the caller identity carried in the JWT.
type claimsIdentity struct {
	EmployeeID string
	CompanyID  string
	Actor      leave.Actor
}

func identityFromRequest(r *http.Request) (claimsIdentity, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return claimsIdentity{}, false
	}
	employeeID, _ := claims["employee_id"].(string)
	companyID, _ := claims["company_id"].(string)
	role, _ := claims["role"].(string)
	if employeeID == "" || companyID == "" {
		return claimsIdentity{}, false
	}
	return claimsIdentity{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Actor:      leave.Actor{EmployeeID: employeeID, Role: leave.ApproverRole(role)},
	}, true
}

// fiscalYearParam reads ?fiscal_year= or falls back to the company's current
// fiscal year.
func (l *LeaveHandlerImpl) fiscalYearParam(r *http.Request, companyID string) (int, error) {
	if raw := r.URL.Query().Get("fiscal_year"); raw != "" {
		return strconv.Atoi(raw)
	}
	settings, err := l.registryService.ResolveSettings(r.Context(), companyID)
	if err != nil {
		return 0, err
	}
	return settings.FiscalYear(time.Now()), nil
}

// CreateType implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateType(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var req leave.CreateLeaveTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateType decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = identity.CompanyID

	created, err := l.registryService.CreateLeaveType(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Leave type created successfully", created)
}

// UpdateType implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateType(w http.ResponseWriter, r *http.Request) {
	var req leave.UpdateLeaveTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateType decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	if err := l.registryService.UpdateLeaveType(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave type updated successfully", nil)
}

// GetType implements LeaveHandler.
func (l *LeaveHandlerImpl) GetType(w http.ResponseWriter, r *http.Request) {
	leaveType, err := l.registryService.GetLeaveType(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, leaveType)
}

// ListTypes implements LeaveHandler.
func (l *LeaveHandlerImpl) ListTypes(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	types, err := l.registryService.ListLeaveTypes(r.Context(), identity.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, types)
}

// DeleteType implements LeaveHandler.
func (l *LeaveHandlerImpl) DeleteType(w http.ResponseWriter, r *http.Request) {
	if err := l.registryService.DeleteLeaveType(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave type deleted successfully", nil)
}

// GetSettings implements LeaveHandler.
func (l *LeaveHandlerImpl) GetSettings(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	settings, err := l.registryService.ResolveSettings(r.Context(), identity.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, settings)
}

// UpdateSettings implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var req leave.UpdateLeaveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateSettings decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.CompanyID = identity.CompanyID

	settings, err := l.registryService.UpdateSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave settings updated successfully", settings)
}

// GetMyBalances implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyBalances(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	fiscalYear, err := l.fiscalYearParam(r, identity.CompanyID)
	if err != nil {
		response.BadRequest(w, "Invalid fiscal_year", nil)
		return
	}

	balances, err := l.balanceService.GetByEmployeeYear(r.Context(), identity.EmployeeID, fiscalYear)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, balances)
}

// ListBalances implements LeaveHandler.
func (l *LeaveHandlerImpl) ListBalances(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	fiscalYear, err := l.fiscalYearParam(r, identity.CompanyID)
	if err != nil {
		response.BadRequest(w, "Invalid fiscal_year", nil)
		return
	}

	balances, err := l.balanceService.GetByCompanyYear(r.Context(), identity.CompanyID, fiscalYear)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, balances)
}

// AdjustBalance implements LeaveHandler.
func (l *LeaveHandlerImpl) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req leave.AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("AdjustBalance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := l.balanceService.Adjust(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave balance adjusted successfully", nil)
}

// CreateApplication implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var req leave.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateApplication decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.EmployeeID = identity.EmployeeID

	application, err := l.applicationService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Leave application submitted successfully", application)
}

// GetApplication implements LeaveHandler.
func (l *LeaveHandlerImpl) GetApplication(w http.ResponseWriter, r *http.Request) {
	application, err := l.applicationService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, application)
}

// GetMyApplications implements LeaveHandler.
func (l *LeaveHandlerImpl) GetMyApplications(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	fiscalYear, err := l.fiscalYearParam(r, identity.CompanyID)
	if err != nil {
		response.BadRequest(w, "Invalid fiscal_year", nil)
		return
	}

	applications, err := l.applicationService.GetByEmployee(r.Context(), identity.EmployeeID, fiscalYear)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, applications)
}

// ListApplications implements LeaveHandler.
func (l *LeaveHandlerImpl) ListApplications(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var status *leave.ApplicationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := leave.ApplicationStatus(raw)
		status = &s
	}

	applications, err := l.applicationService.GetByCompany(r.Context(), identity.CompanyID, status)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, applications)
}

// ApprovalHistory implements LeaveHandler.
func (l *LeaveHandlerImpl) ApprovalHistory(w http.ResponseWriter, r *http.Request) {
	logs, err := l.applicationService.ApprovalHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, logs)
}

// ApproveApplication implements LeaveHandler.
func (l *LeaveHandlerImpl) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var req leave.ApproveApplicationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("ApproveApplication decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}
	req.ApplicationID = chi.URLParam(r, "id")
	req.Approver = identity.Actor

	application, err := l.applicationService.Approve(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave application approved", application)
}

// RejectApplication implements LeaveHandler.
func (l *LeaveHandlerImpl) RejectApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var req leave.RejectApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RejectApplication decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ApplicationID = chi.URLParam(r, "id")
	req.Approver = identity.Actor

	application, err := l.applicationService.Reject(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave application rejected", application)
}

// CancelApplication implements LeaveHandler.
func (l *LeaveHandlerImpl) CancelApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	application, err := l.applicationService.Cancel(r.Context(), chi.URLParam(r, "id"), identity.Actor)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Leave application cancelled", application)
}

// CreateRecall implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateRecall(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var req leave.CreateRecallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateRecall decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.Initiator = identity.Actor

	recall, err := l.recallService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Recall requested", recall)
}

// RespondRecall implements LeaveHandler.
func (l *LeaveHandlerImpl) RespondRecall(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	var req leave.RespondRecallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RespondRecall decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.RecallID = chi.URLParam(r, "id")
	req.Responder = identity.Actor

	recall, err := l.recallService.Respond(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Recall response recorded", recall)
}

// CancelRecall implements LeaveHandler.
func (l *LeaveHandlerImpl) CancelRecall(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	if err := l.recallService.Cancel(r.Context(), chi.URLParam(r, "id"), identity.Actor); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Recall withdrawn", nil)
}

// QuoteEncashment implements LeaveHandler.
func (l *LeaveHandlerImpl) QuoteEncashment(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Missing identity claims")
		return
	}

	fiscalYear, err := l.fiscalYearParam(r, identity.CompanyID)
	if err != nil {
		response.BadRequest(w, "Invalid fiscal_year", nil)
		return
	}

	quote, err := l.encashmentService.Quote(r.Context(), leave.EncashmentQuoteRequest{
		EmployeeID:  identity.EmployeeID,
		LeaveTypeID: r.URL.Query().Get("leave_type_id"),
		FiscalYear:  fiscalYear,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, quote)
}
