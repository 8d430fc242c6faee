package api

import (
	"fmt"
	"net/http"

	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/tickets"
	"github.com/gin-gonic/gin"
)

type TicketsHandler struct {
	tickets  tickets.TicketsUseCase
	bookings booking.BookingUseCase
}

func NewTicketsHandler(tickets tickets.TicketsUseCase, bookings booking.BookingUseCase) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, bookings: bookings}
}

func (h *TicketsHandler) Register(router *gin.RouterGroup) {
	router.GET("/tickets/upcoming", h.upcoming)
	router.GET("/tickets/past", h.past)
	router.GET("/tickets/:id", h.detail)
	router.GET("/tickets/:id/pdf", h.pdf)
	router.POST("/tickets/cancel/:id", h.cancel)
	router.GET("/customer/dashboard", h.dashboard)
}

func (h *TicketsHandler) upcoming(c *gin.Context) {
	list, err := h.tickets.Upcoming(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": list})
}

func (h *TicketsHandler) past(c *gin.Context) {
	list, err := h.tickets.Past(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": list})
}

func (h *TicketsHandler) detail(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	detail, err := h.tickets.Detail(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *TicketsHandler) pdf(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	body, name, err := h.tickets.TicketPDF(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", body)
}

func (h *TicketsHandler) cancel(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.bookings.Cancel(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TicketsHandler) dashboard(c *gin.Context) {
	dashboard, err := h.tickets.Dashboard(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
