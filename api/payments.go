package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/payment"
	"github.com/gin-gonic/gin"
)

const (
	actionReserve = "reserve"
	actionPay     = "pay"
)

type PaymentHandler struct {
	bookings booking.BookingUseCase
	payments payment.PaymentUseCase
}

type paymentRequest struct {
	ActionType string `json:"action_type" form:"action_type"`
	payment.PaymentInput
}

func NewPaymentHandler(bookings booking.BookingUseCase, payments payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{bookings: bookings, payments: payments}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/payment/:booking_id", h.submit)
}

// submit either renews the hold on a booking or settles it, depending on
// action_type.
func (h *PaymentHandler) submit(c *gin.Context) {
	bookingID, err := paramID(c, "booking_id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.ActionType)) {
	case actionReserve:
		result, err := h.bookings.RenewHold(c.Request.Context(), actorFrom(c), bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	case actionPay:
		result, err := h.payments.Settle(c.Request.Context(), actorFrom(c), bookingID, req.PaymentInput)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	default:
		respondError(c, domain.NewValidation("action_type", "must be reserve or pay"))
	}
}
