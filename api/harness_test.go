package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

var (
	customer = domain.Actor{UserID: 7, Role: domain.RoleCustomer}
	admin    = domain.Actor{UserID: 1, Role: domain.RoleAdmin}
)

type harness struct {
	router   *gin.Engine
	bookings *MockBookingUseCase
	catalog  *MockCatalogUseCase
	payments *MockPaymentUseCase
	tickets  *MockTicketsUseCase
	users    *MockUsersUseCase
	feedback *MockFeedbackUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := &MockTokenParser{}
	tokens.On("Parse", "customer-token").Return(customer, nil).Maybe()
	tokens.On("Parse", "admin-token").Return(admin, nil).Maybe()
	tokens.On("Parse", "stale-token").Return(domain.Actor{}, errors.New("invalid token")).Maybe()

	h := &harness{
		bookings: &MockBookingUseCase{},
		catalog:  &MockCatalogUseCase{},
		payments: &MockPaymentUseCase{},
		tickets:  &MockTicketsUseCase{},
		users:    &MockUsersUseCase{},
		feedback: &MockFeedbackUseCase{},
	}
	h.router = NewRouter(RouterConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tokens: tokens,
	}, Handlers{
		Bookings: NewBookingHandler(h.catalog, h.bookings, time.UTC),
		Payments: NewPaymentHandler(h.bookings, h.payments),
		Tickets:  NewTicketsHandler(h.tickets, h.bookings),
		Users:    NewUsersHandler(h.users),
		Feedback: NewFeedbackHandler(h.feedback),
		Admin:    NewAdminHandler(h.catalog, h.bookings, h.payments, h.users, h.feedback),
	})
	return h
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) assertExpectations(t *testing.T) {
	t.Helper()
	for _, m := range []interface{ AssertExpectations(mock.TestingT) bool }{
		h.bookings, h.catalog, h.payments, h.tickets, h.users, h.feedback,
	} {
		m.AssertExpectations(t)
	}
}
