package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/bus"
	adminapp "rentora/internal/app/handlers/admin"
	propertyapp "rentora/internal/app/handlers/properties"
	handlersupport "rentora/internal/app/handlers/support"
	"rentora/internal/app/middleware"
	authsvc "rentora/internal/app/services/auth"
	domainauth "rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	domainproperty "rentora/internal/domain/property"
	"rentora/internal/domain/shared/daterange"
	"rentora/internal/domain/shared/money"
	domainuser "rentora/internal/domain/user"
	"rentora/internal/infra/validation"
)

var (
	errOwnerOnly = fmt.Errorf("%w: owner role required", middleware.ErrForbidden)
	errAdminOnly = fmt.Errorf("%w: admin role required", middleware.ErrForbidden)
)

type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: typed booking errors wrap more than one sentinel.
var errorMappings = []errorMapping{
	{middleware.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{authsvc.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domainauth.ErrSessionNotFound, http.StatusUnauthorized, "unauthenticated"},
	{middleware.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domainproperty.ErrNotOwned, http.StatusForbidden, "not_owner"},
	{domainbooking.ErrUnauthorizedTransition, http.StatusForbidden, "transition_not_permitted"},
	{handlersupport.ErrNotVisible, http.StatusForbidden, "forbidden"},
	{adminapp.ErrSelfDelete, http.StatusForbidden, "self_delete"},
	{authsvc.ErrRoleNotAllowed, http.StatusForbidden, "role_not_allowed"},
	{domainbooking.ErrNotFound, http.StatusNotFound, "booking_not_found"},
	{domainproperty.ErrNotFound, http.StatusNotFound, "property_not_found"},
	{domainuser.ErrNotFound, http.StatusNotFound, "user_not_found"},
	{domainbooking.ErrDateConflict, http.StatusConflict, "date_conflict"},
	{domainbooking.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domainbooking.ErrStaleSnapshot, http.StatusConflict, "concurrent_update"},
	{domainproperty.ErrHasActiveStays, http.StatusConflict, "property_has_active_bookings"},
	{domainuser.ErrEmailAlreadyUsed, http.StatusConflict, "email_already_used"},
	{domainbooking.ErrPropertyUnavailable, http.StatusUnprocessableEntity, "property_unavailable"},
	{domainbooking.ErrStartInPast, http.StatusUnprocessableEntity, "start_in_past"},
	{domainbooking.ErrMinimumStay, http.StatusUnprocessableEntity, "minimum_stay"},
	{domainbooking.ErrCompletionTooEarly, http.StatusUnprocessableEntity, "completion_too_early"},
	{daterange.ErrInvalidRange, http.StatusUnprocessableEntity, "invalid_range"},
	{daterange.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
	{domainbooking.ErrUnknownStatus, http.StatusBadRequest, "unknown_status"},
	{validation.ErrInvalid, http.StatusBadRequest, "validation_failed"},
	{authsvc.ErrPasswordTooShort, http.StatusBadRequest, "password_too_short"},
	{domainuser.ErrEmailRequired, http.StatusBadRequest, "email_required"},
	{domainuser.ErrNameRequired, http.StatusBadRequest, "name_required"},
	{domainuser.ErrInvalidRole, http.StatusBadRequest, "invalid_role"},
	{domainproperty.ErrTitleRequired, http.StatusBadRequest, "title_required"},
	{domainproperty.ErrAddressRequired, http.StatusBadRequest, "city_required"},
	{domainproperty.ErrRentInvalid, http.StatusBadRequest, "rent_invalid"},
	{domainproperty.ErrRoomsInvalid, http.StatusBadRequest, "rooms_invalid"},
	{domainproperty.ErrAreaInvalid, http.StatusBadRequest, "area_invalid"},
	{money.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency"},
	{propertyapp.ErrPhotoRequired, http.StatusBadRequest, "photo_required"},
	{propertyapp.ErrPhotosUnavailable, http.StatusServiceUnavailable, "photos_unavailable"},
	{bus.ErrHandlerNotFound, http.StatusServiceUnavailable, "unavailable"},
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeError is the single place where errors become HTTP responses.
// Server errors are logged and their text is not exposed.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	body := errorBody{Error: code, Message: err.Error(), Details: errorDetails(err)}
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "status", status, "error", err)
		}
		if status == http.StatusInternalServerError {
			body.Message = "internal error"
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func writeBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: message})
}

func errorDetails(err error) map[string]any {
	var (
		validationErr *validation.Error
		conflict      *domainbooking.DateConflictError
		minStay       *domainbooking.MinimumStayError
		transition    *domainbooking.InvalidTransitionError
		unauthorized  *domainbooking.UnauthorizedTransitionError
		tooEarly      *domainbooking.CompletionTooEarlyError
	)
	switch {
	case errors.As(err, &validationErr):
		details := make(map[string]any, len(validationErr.Fields))
		for field, rule := range validationErr.Details() {
			details[field] = rule
		}
		return details
	case errors.As(err, &conflict):
		return map[string]any{
			"property_id":            string(conflict.PropertyID),
			"conflicting_booking_id": string(conflict.ConflictingBookingID),
			"conflicting_start_date": conflict.Conflicting.Start.Format(daterange.ISODate),
			"conflicting_end_date":   conflict.Conflicting.End.Format(daterange.ISODate),
		}
	case errors.As(err, &minStay):
		return map[string]any{
			"requested_days": minStay.RequestedDays,
			"minimum_days":   minStay.MinimumDays,
		}
	case errors.As(err, &transition):
		return map[string]any{
			"booking_id": string(transition.BookingID),
			"from":       string(transition.From),
			"to":         string(transition.To),
		}
	case errors.As(err, &unauthorized):
		return map[string]any{
			"booking_id": string(unauthorized.BookingID),
			"from":       string(unauthorized.From),
			"to":         string(unauthorized.To),
		}
	case errors.As(err, &tooEarly):
		return map[string]any{
			"booking_id": string(tooEarly.BookingID),
			"end_date":   tooEarly.EndsOn.End.Format(daterange.ISODate),
		}
	}
	return nil
}
