package api

import (
	"net/http"
	"testing"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/Domenick1991/busbooking/internal/service/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAdmin_requiresAdminRole(t *testing.T) {
	h := newHarness(t)

	w := h.do("GET", "/admin/routes", "", "customer-token")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do("GET", "/admin/routes", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	h.catalog.AssertNotCalled(t, "ListRoutes", mock.Anything)
}

func TestAdmin_createRoute(t *testing.T) {
	h := newHarness(t)
	input := catalog.RouteInput{Origin: "Lahore", Destination: "Karachi", Duration: "20:00"}
	h.catalog.On("CreateRoute", mock.Anything, admin, input).
		Return(&domain.Route{ID: 1, Origin: "Lahore", Destination: "Karachi", Duration: "20:00"}, nil)

	w := h.do("POST", "/admin/routes", `{"origin":"Lahore","destination":"Karachi","duration":"20:00"}`, "admin-token")

	assert.Equal(t, http.StatusCreated, w.Code)
	h.assertExpectations(t)
}

func TestAdmin_deleteBus(t *testing.T) {
	h := newHarness(t)
	h.catalog.On("DeleteBus", mock.Anything, admin, int64(3)).Return(nil)

	w := h.do("DELETE", "/admin/buses/3", "", "admin-token")

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdmin_usersByRole(t *testing.T) {
	h := newHarness(t)
	h.users.On("List", mock.Anything, admin, domain.RoleCustomer).Return([]domain.User{{ID: 7}}, nil)
	h.users.On("Delete", mock.Anything, admin, domain.RoleAdmin, int64(5)).Return(nil)

	w := h.do("GET", "/admin/customers", "", "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do("DELETE", "/admin/admins/5", "", "admin-token")
	assert.Equal(t, http.StatusNoContent, w.Code)
	h.assertExpectations(t)
}

func TestAdmin_bookingOnBehalfOfCustomer(t *testing.T) {
	h := newHarness(t)
	input := booking.ReserveInput{BusID: 3, Date: tripDay, Seats: []string{"1", "2"}, UserID: 7}
	h.bookings.On("Reserve", mock.Anything, admin, input).Return(&booking.Result{
		Booking: &domain.Booking{ID: 11, UserID: 7},
	}, nil)

	w := h.do("POST", "/admin/bookings", `{"bus_id":3,"booking_date":"2026-05-03","seat_number":"1,2","user_id":7}`, "admin-token")
	assert.Equal(t, http.StatusCreated, w.Code)

	w = h.do("POST", "/admin/bookings", `{"bus_id":3,"booking_date":"2026-05-03","seat_number":"1,2"}`, "admin-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.assertExpectations(t)
}

func TestAdmin_updateBooking(t *testing.T) {
	h := newHarness(t)
	input := booking.UpdateInput{Seats: []string{"9"}}
	h.bookings.On("Update", mock.Anything, admin, int64(11), input).
		Return(nil, domain.ValidationError{Field: "seat_number", Conflicts: []string{"9"}})

	w := h.do("PUT", "/admin/bookings/11", `{"seat_number":"9"}`, "admin-token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"conflicts":["9"]`)
}

func TestAdmin_refundStatus(t *testing.T) {
	h := newHarness(t)
	h.feedback.On("SetRefundStatus", mock.Anything, admin, int64(4), domain.RefundStatusApproved).
		Return(&domain.RefundRequest{ID: 4, Status: domain.RefundStatusApproved}, nil)

	w := h.do("PUT", "/admin/refunds/4", `{"status":"Approved"}`, "admin-token")
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do("PUT", "/admin/refunds/4", `{}`, "admin-token")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_lists(t *testing.T) {
	h := newHarness(t)
	h.payments.On("List", mock.Anything, admin).Return([]domain.Payment{{ID: 4, BookingNumber: "BK-0000000B"}}, nil)
	h.feedback.On("ListComplaints", mock.Anything, admin).Return([]domain.Complaint{}, nil)
	h.feedback.On("ListRefunds", mock.Anything, admin).Return([]domain.RefundRequest{}, nil)
	h.bookings.On("List", mock.Anything, admin).Return([]domain.BookingDetails{}, nil)

	for _, path := range []string{"/admin/payments", "/admin/complaints", "/admin/refunds", "/admin/bookings"} {
		w := h.do("GET", path, "", "admin-token")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	h.assertExpectations(t)
}
