package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	adjustmentdomain "github.com/ksheermitra/backend/internal/adjustment/domain"
	billingdomain "github.com/ksheermitra/backend/internal/billing/domain"
	customerdomain "github.com/ksheermitra/backend/internal/customer/domain"
	invoicedomain "github.com/ksheermitra/backend/internal/invoice/domain"
	orderdomain "github.com/ksheermitra/backend/internal/order/domain"
	productdomain "github.com/ksheermitra/backend/internal/product/domain"
	"github.com/ksheermitra/backend/internal/scheduler"
	subscriptiondomain "github.com/ksheermitra/backend/internal/subscription/domain"
	"github.com/ksheermitra/backend/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, invoicedomain.ErrNothingToBill):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "nothing_to_bill",
			Message: "nothing to bill for this month",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds error_type and error_code into request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status == http.StatusBadRequest && len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal_error"
	}
	return payload.Type, err.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationErrors = []error{
	ErrInvalidRequest,
	billingdomain.ErrInvalidCustomerID,
	billingdomain.ErrInvalidMonth,
	customerdomain.ErrInvalidName,
	customerdomain.ErrInvalidPhone,
	customerdomain.ErrInvalidEmail,
	customerdomain.ErrInvalidID,
	productdomain.ErrInvalidName,
	productdomain.ErrInvalidUnitPrice,
	productdomain.ErrInvalidUnit,
	productdomain.ErrInvalidID,
	subscriptiondomain.ErrInvalidID,
	subscriptiondomain.ErrInvalidCustomerID,
	subscriptiondomain.ErrInvalidProduct,
	subscriptiondomain.ErrInvalidQuantity,
	subscriptiondomain.ErrInvalidComposition,
	subscriptiondomain.ErrInvalidSchedule,
	subscriptiondomain.ErrInvalidDaysOfWeek,
	subscriptiondomain.ErrInvalidStartDate,
	subscriptiondomain.ErrInvalidEndDate,
	adjustmentdomain.ErrInvalidID,
	adjustmentdomain.ErrInvalidSubscriptionID,
	adjustmentdomain.ErrInvalidDate,
	adjustmentdomain.ErrInvalidQuantity,
	adjustmentdomain.ErrInvalidMonth,
	orderdomain.ErrInvalidID,
	orderdomain.ErrInvalidCustomerID,
	orderdomain.ErrInvalidProduct,
	orderdomain.ErrInvalidQuantity,
	orderdomain.ErrInvalidOrderDate,
	orderdomain.ErrInvalidMonth,
	orderdomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidID,
	invoicedomain.ErrInvalidCustomerID,
	invoicedomain.ErrInvalidMonth,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, billingdomain.ErrCustomerNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrCustomerNotFound),
		errors.Is(err, adjustmentdomain.ErrNotFound),
		errors.Is(err, adjustmentdomain.ErrSubscriptionNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrCustomerNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrDocumentMissing),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, scheduler.ErrLockHeld),
		db.IsDuplicateKeyErr(err):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, billingdomain.ErrCustomerNotFound),
		errors.Is(err, subscriptiondomain.ErrCustomerNotFound),
		errors.Is(err, orderdomain.ErrCustomerNotFound):
		return "customer not found"
	case errors.Is(err, adjustmentdomain.ErrSubscriptionNotFound):
		return "subscription not found"
	case errors.Is(err, invoicedomain.ErrDocumentMissing):
		return "invoice document not found"
	default:
		return "not found"
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return "order status cannot change from its current value"
	case errors.Is(err, scheduler.ErrLockHeld):
		return "a run for this month is already in progress"
	default:
		return "conflict"
	}
}

func validationErrorCode(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "invalid_request"
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "invalid_month":
		return "month must be formatted as YYYY-MM"
	default:
		return "invalid " + strings.ReplaceAll(validationErrorField(code), "_", " ")
	}
}
