package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kestrelhq/leave-backend-go/internal/domain/employee"
	"github.com/kestrelhq/leave-backend-go/internal/domain/leave"
	"github.com/kestrelhq/leave-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Business rule violations carry available/requested context for clients.
	var ruleErr *leave.BusinessRuleError
	if errors.As(err, &ruleErr) {
		UnprocessableEntity(w, "BUSINESS_RULE_VIOLATION", ruleErr.Rule, map[string]string{
			"available_days": fmt.Sprintf("%.1f", ruleErr.Available),
			"requested_days": fmt.Sprintf("%.1f", ruleErr.Requested),
		})
		return
	}

	switch {
	// Not found
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrApplicationNotFound):
		NotFound(w, "Leave application not found")
	case errors.Is(err, leave.ErrRecallNotFound):
		NotFound(w, "Leave recall not found")
	case errors.Is(err, leave.ErrSettingsNotFound):
		NotFound(w, "Leave settings not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Conflicts
	case errors.Is(err, leave.ErrDuplicateLeaveTypeCode):
		Conflict(w, "Leave type code already exists for this company")
	case errors.Is(err, leave.ErrOverlappingApplication):
		Conflict(w, "An application already covers part of this date range")
	case errors.Is(err, leave.ErrAlreadyProcessed):
		Conflict(w, "Leave application already processed")
	case errors.Is(err, leave.ErrRecallAlreadyPending):
		Conflict(w, "A pending recall already exists for this application")
	case errors.Is(err, leave.ErrRecallAlreadyResolved):
		Conflict(w, "Recall already responded to")
	case errors.Is(err, leave.ErrStoreConflict):
		Conflict(w, "The record changed concurrently, please retry")

	// Authorization
	case errors.Is(err, leave.ErrNotAuthorizedApprover):
		Forbidden(w, "You are not authorized to act on this approval stage")
	case errors.Is(err, leave.ErrNotApplicationOwner):
		Forbidden(w, "Only the application owner may perform this action")
	case errors.Is(err, leave.ErrNotRecallInitiator):
		Forbidden(w, "Only the recall initiator may withdraw it")

	// Business rules without computed context
	case errors.Is(err, leave.ErrInsufficientBalance),
		errors.Is(err, leave.ErrGenderNotApplicable),
		errors.Is(err, leave.ErrAttachmentRequired),
		errors.Is(err, leave.ErrUnpaidLimitExceeded),
		errors.Is(err, leave.ErrUnpaidSpanTooLong),
		errors.Is(err, leave.ErrLeaveNotInProgress),
		errors.Is(err, leave.ErrRecallDateOutOfRange),
		errors.Is(err, leave.ErrAdjustBelowUsed),
		errors.Is(err, leave.ErrLeaveAlreadyStarted),
		errors.Is(err, leave.ErrNotEncashable),
		errors.Is(err, leave.ErrNoSalaryOnRecord):
		UnprocessableEntity(w, "BUSINESS_RULE_VIOLATION", err.Error(), nil)

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
