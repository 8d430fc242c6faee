package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	catalog  catalog.CatalogUseCase
	bookings booking.BookingUseCase
	loc      *time.Location
}

// reserveRequest takes seats either as the comma separated seat_number
// form value or as a JSON list.
type reserveRequest struct {
	BookingDate string   `json:"booking_date" form:"booking_date"`
	SeatNumber  string   `json:"seat_number" form:"seat_number"`
	Seats       []string `json:"seats" form:"seats"`
	UserID      int64    `json:"user_id" form:"user_id"`
}

func (r reserveRequest) seats() []string {
	if len(r.Seats) > 0 {
		return r.Seats
	}
	return domain.ParseSeats(r.SeatNumber)
}

func NewBookingHandler(catalog catalog.CatalogUseCase, bookings booking.BookingUseCase, loc *time.Location) *BookingHandler {
	return &BookingHandler{catalog: catalog, bookings: bookings, loc: loc}
}

// Register mounts the public search endpoints on public and the reservation
// endpoint on authed.
func (h *BookingHandler) Register(public, authed *gin.RouterGroup) {
	public.GET("/booking", h.search)
	public.GET("/booking/locations", h.locations)
	public.GET("/booking/availability/:bus_id", h.availability)
	authed.POST("/booking/confirm/:bus_id", h.reserve)
}

func (h *BookingHandler) search(c *gin.Context) {
	date, err := dateOrToday(c.Query("booking_date"), h.loc, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.catalog.Search(c.Request.Context(), c.Query("origin"), c.Query("destination"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_date": date.Format(time.DateOnly), "buses": results})
}

func (h *BookingHandler) locations(c *gin.Context) {
	locations, err := h.catalog.Locations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *BookingHandler) availability(c *gin.Context) {
	busID, err := paramID(c, "bus_id")
	if err != nil {
		respondError(c, err)
		return
	}
	date, err := dateOrToday(c.Query("booking_date"), h.loc, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	availability, err := h.bookings.Availability(c.Request.Context(), busID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (h *BookingHandler) reserve(c *gin.Context) {
	busID, err := paramID(c, "bus_id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req reserveRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := requireDate(req.BookingDate)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.bookings.Reserve(c.Request.Context(), actorFrom(c), booking.ReserveInput{
		BusID:  busID,
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
