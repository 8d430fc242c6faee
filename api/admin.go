package api

import (
	"net/http"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/catalog"
	"github.com/Domenick1991/busbooking/internal/service/feedback"
	"github.com/Domenick1991/busbooking/internal/service/payment"
	"github.com/Domenick1991/busbooking/internal/service/users"
	"github.com/gin-gonic/gin"
)

// AdminHandler serves the back-office screens. Every route expects an
// admin actor; the services check it again.
type AdminHandler struct {
	catalog  catalog.CatalogUseCase
	bookings booking.BookingUseCase
	payments payment.PaymentUseCase
	users    users.UsersUseCase
	feedback feedback.FeedbackUseCase
}

type refundStatusRequest struct {
	Status domain.RefundStatus `json:"status" binding:"required"`
}

func NewAdminHandler(
	catalog catalog.CatalogUseCase,
	bookings booking.BookingUseCase,
	payments payment.PaymentUseCase,
	users users.UsersUseCase,
	feedback feedback.FeedbackUseCase,
) *AdminHandler {
	return &AdminHandler{catalog: catalog, bookings: bookings, payments: payments, users: users, feedback: feedback}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/routes", h.listRoutes)
	router.GET("/routes/:id", h.getRoute)
	router.POST("/routes", h.createRoute)
	router.PUT("/routes/:id", h.updateRoute)
	router.DELETE("/routes/:id", h.deleteRoute)

	router.GET("/buses", h.listBuses)
	router.GET("/buses/:id", h.getBus)
	router.POST("/buses", h.createBus)
	router.PUT("/buses/:id", h.updateBus)
	router.DELETE("/buses/:id", h.deleteBus)

	for _, role := range []domain.Role{domain.RoleCustomer, domain.RoleAdmin} {
		path := "/" + string(role) + "s"
		router.GET(path, h.listUsers(role))
		router.POST(path, h.createUser(role))
		router.GET(path+"/:id", h.getUser)
		router.PUT(path+"/:id", h.updateUser)
		router.DELETE(path+"/:id", h.deleteUser(role))
	}

	router.GET("/bookings", h.listBookings)
	router.POST("/bookings", h.createBooking)
	router.PUT("/bookings/:id", h.updateBooking)
	router.DELETE("/bookings/:id", h.cancelBooking)

	router.GET("/payments", h.listPayments)
	router.GET("/complaints", h.listComplaints)
	router.GET("/refunds", h.listRefunds)
	router.PUT("/refunds/:id", h.setRefundStatus)
}

func (h *AdminHandler) listRoutes(c *gin.Context) {
	routes, err := h.catalog.ListRoutes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

func (h *AdminHandler) getRoute(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	route, err := h.catalog.GetRoute(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *AdminHandler) createRoute(c *gin.Context) {
	var req catalog.RouteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	route, err := h.catalog.CreateRoute(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

func (h *AdminHandler) updateRoute(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req catalog.RouteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	route, err := h.catalog.UpdateRoute(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *AdminHandler) deleteRoute(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.DeleteRoute(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listBuses(c *gin.Context) {
	buses, err := h.catalog.ListBuses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"buses": buses})
}

func (h *AdminHandler) getBus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	bus, err := h.catalog.GetBus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

func (h *AdminHandler) createBus(c *gin.Context) {
	var req catalog.BusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bus, err := h.catalog.CreateBus(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bus)
}

func (h *AdminHandler) updateBus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req catalog.BusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bus, err := h.catalog.UpdateBus(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bus)
}

func (h *AdminHandler) deleteBus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.DeleteBus(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listUsers(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.users.List(c.Request.Context(), actorFrom(c), role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"users": list})
	}
}

func (h *AdminHandler) createUser(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req users.RegisterInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		user, err := h.users.Create(c.Request.Context(), actorFrom(c), role, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func (h *AdminHandler) getUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	user, err := h.users.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) updateUser(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req users.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.users.Update(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) deleteUser(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramID(c, "id")
		if err != nil {
			respondError(c, err)
			return
		}
		if err := h.users.Delete(c.Request.Context(), actorFrom(c), role, id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *AdminHandler) listBookings(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// adminBookingRequest is a reservation made on behalf of a customer.
type adminBookingRequest struct {
	reserveRequest
	BusID int64 `json:"bus_id"`
}

func (h *AdminHandler) createBooking(c *gin.Context) {
	var req adminBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.UserID == 0 {
		respondError(c, domain.NewValidation("user_id", "is required"))
		return
	}
	date, err := requireDate(req.BookingDate)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.bookings.Reserve(c.Request.Context(), actorFrom(c), booking.ReserveInput{
		BusID:  req.BusID,
		Date:   date,
		Seats:  req.seats(),
		UserID: req.UserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *AdminHandler) updateBooking(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req adminBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	input := booking.UpdateInput{BusID: req.BusID, Seats: req.seats(), UserID: req.UserID}
	if req.BookingDate != "" {
		if input.Date, err = requireDate(req.BookingDate); err != nil {
			respondError(c, err)
			return
		}
	}
	b, err := h.bookings.Update(c.Request.Context(), actorFrom(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *AdminHandler) cancelBooking(c *gin.Context) {
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

func (h *AdminHandler) listPayments(c *gin.Context) {
	list, err := h.payments.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list})
}

func (h *AdminHandler) listComplaints(c *gin.Context) {
	list, err := h.feedback.ListComplaints(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": list})
}

func (h *AdminHandler) listRefunds(c *gin.Context) {
	list, err := h.feedback.ListRefunds(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": list})
}

func (h *AdminHandler) setRefundStatus(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req refundStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	refund, err := h.feedback.SetRefundStatus(c.Request.Context(), actorFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, refund)
}
