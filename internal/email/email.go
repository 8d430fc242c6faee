package email

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/config"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/kafka"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender delivers booking notifications over SMTP. With no host configured
// messages are only logged.
type Sender struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
	send   sendFunc
}

func NewSender(cfg config.SMTPConfig, logger *slog.Logger) *Sender {
	return &Sender{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := Render(event)
	if !ok {
		s.logger.DebugContext(ctx, "no template for event", "type", event.Type)
		return nil
	}
	if msg.To == "" {
		s.logger.WarnContext(ctx, "event has no recipient", "type", event.Type, "booking_number", event.BookingNumber)
		return nil
	}
	if s.cfg.Host == "" {
		s.logger.InfoContext(ctx, "smtp disabled, notification dropped", "to", msg.To, "subject", msg.Subject)
		return nil
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(addr, auth, s.cfg.From, []string{msg.To}, s.compose(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	s.logger.InfoContext(ctx, "notification sent", "to", msg.To, "type", event.Type, "booking_number", event.BookingNumber)
	return nil
}

func (s *Sender) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// Render builds the subject and body for event. It reports false for
// event types that have no notification.
func Render(event kafka.BookingEvent) (Message, bool) {
	name := event.Name
	if name == "" {
		name = "Customer"
	}
	seats := strings.Join(event.Seats, ", ")

	var subject, intro string
	switch event.Type {
	case kafka.EventBookingReserved:
		subject = fmt.Sprintf("Seats reserved: %s", event.BookingNumber)
		intro = "your seats are on hold."
		if event.ReservedUntil != nil {
			intro = fmt.Sprintf("your seats are on hold until %s. Complete the payment before then to keep them.",
				event.ReservedUntil.Format(time.RFC1123))
		}
	case kafka.EventBookingConfirmed:
		subject = fmt.Sprintf("Booking confirmed: %s", event.BookingNumber)
		intro = "your payment was received and your booking is confirmed."
	case kafka.EventBookingCancelled:
		subject = fmt.Sprintf("Booking cancelled: %s", event.BookingNumber)
		intro = "your booking has been cancelled."
	case kafka.EventBookingExpired:
		subject = fmt.Sprintf("Reservation expired: %s", event.BookingNumber)
		intro = "your reservation expired before payment and the seats were released."
	default:
		return Message{}, false
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n%s\n\n", name, capitalize(intro))
	fmt.Fprintf(&body, "Booking number: %s\n", event.BookingNumber)
	fmt.Fprintf(&body, "Travel date: %s\n", event.BookingDate)
	if event.Departure != "" {
		fmt.Fprintf(&body, "Departure: %s\n", event.Departure)
	}
	fmt.Fprintf(&body, "Seats: %s\n", seats)
	if event.TotalCents > 0 {
		fmt.Fprintf(&body, "Total: %s\n", domain.FormatCents(event.TotalCents))
	}
	body.WriteString("\nThank you for travelling with us.\n")

	return Message{To: event.Email, Subject: subject, Body: body.String()}, true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
