package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	bookingapp "rentora/internal/app/handlers/booking"
	domainbooking "rentora/internal/domain/booking"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHTTP interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	Get(c *gin.Context)
	Transition(c *gin.Context)
	Cancel(c *gin.Context)
}

type BookingHandler struct {
	Commands bus.Bus
	Queries  bus.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	Message    string `json:"message"`
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "property_id, start_date and end_date are required")
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		Actor:           actor,
		PropertyID:      strings.TrimSpace(req.PropertyID),
		StartDate:       strings.TrimSpace(req.StartDate),
		EndDate:         strings.TrimSpace(req.EndDate),
		Message:         req.Message,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := bus.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListMine returns the renter's own bookings, newest first.
func (h BookingHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.ListRenterBookingsQuery{Actor: actor, Status: strings.TrimSpace(c.Query("status"))}
	result, err := bus.Dispatch[bookingapp.ListRenterBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	query := bookingapp.GetBookingQuery{Actor: actor, BookingID: strings.TrimSpace(c.Param("id"))}
	result, err := bus.Dispatch[bookingapp.GetBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Transition takes any lifecycle edge; approve and reject come through here.
func (h BookingHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, "status is required")
		return
	}
	h.transition(c, strings.ToUpper(strings.TrimSpace(req.Status)))
}

func (h BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, string(domainbooking.StatusCancelled))
}

func (h BookingHandler) transition(c *gin.Context, target string) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	cmd := bookingapp.TransitionBookingCommand{
		Actor:        actor,
		BookingID:    strings.TrimSpace(c.Param("id")),
		TargetStatus: target,
	}
	result, err := bus.Dispatch[bookingapp.TransitionBookingCommand, *dto.BookingActionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
