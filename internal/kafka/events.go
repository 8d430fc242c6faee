package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
)

type retryPublisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error
}

// EventPublisher sends every booking event to the booking topic and, when
// configured, to the notifications topic.
type EventPublisher struct {
	producer           retryPublisher
	bookingTopic       string
	notificationsTopic string
	retries            int
}

func NewEventPublisher(producer retryPublisher, bookingTopic, notificationsTopic string, retries int) *EventPublisher {
	return &EventPublisher{
		producer:           producer,
		bookingTopic:       bookingTopic,
		notificationsTopic: notificationsTopic,
		retries:            retries,
	}
}

func (p *EventPublisher) PublishBooking(ctx context.Context, event BookingEvent) error {
	if p == nil || p.producer == nil {
		return nil
	}
	var errs []error
	for _, topic := range []string{p.bookingTopic, p.notificationsTopic} {
		if topic == "" {
			continue
		}
		if err := p.producer.PublishWithRetry(ctx, topic, event.BookingNumber, event, p.retries); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewBookingEvent builds the payload for b. bus and user are optional and
// fill in the price, departure and recipient when present.
func NewBookingEvent(eventType string, b domain.Booking, bus *domain.Bus, user *domain.User) BookingEvent {
	event := BookingEvent{
		Type:          eventType,
		BookingNumber: b.BookingNumber,
		BookingID:     b.ID,
		BusID:         b.BusID,
		Seats:         b.SeatList(),
		BookingDate:   b.BookingDate.Format(time.DateOnly),
		Status:        string(b.Status),
		ReservedUntil: b.ReservedUntil,
	}
	if bus != nil {
		event.TotalCents = domain.TotalPriceCents(b.SeatCount(), bus.PriceCents)
		event.Departure = bus.Departure.String()
	}
	if user != nil {
		event.Email = user.Email
		event.Name = user.Name
	}
	return event
}
