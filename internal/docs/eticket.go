package docs

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/phpdave11/gofpdf"
)

// Ticket is everything printed on an e-ticket.
type Ticket struct {
	Booking     domain.BookingDetails
	Status      domain.BookingStatus
	TotalCents  int64
	Payment     *domain.Payment
	GeneratedAt time.Time
}

// ETicket renders t as a one page PDF and returns it with a file name.
func ETicket(t Ticket) ([]byte, string, error) {
	b := t.Booking
	origin, destination, duration := "-", "-", "-"
	if b.Bus.Route != nil {
		origin = b.Bus.Route.Origin
		destination = b.Bus.Route.Destination
		duration = safe(b.Bus.Route.Duration, "-")
	}
	arrival := "-"
	if at, ok := b.Bus.ArrivalTime(); ok {
		arrival = at.String()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+b.BookingNumber, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking number : %s", b.BookingNumber),
		fmt.Sprintf("Status         : %s", t.Status),
		fmt.Sprintf("Passenger      : %s", safe(b.UserName, "-")),
		fmt.Sprintf("Route          : %s -> %s", origin, destination),
		fmt.Sprintf("Travel date    : %s", b.BookingDate.Format(time.DateOnly)),
		fmt.Sprintf("Departure      : %s", b.Bus.Departure),
		fmt.Sprintf("Arrival        : %s", arrival),
		fmt.Sprintf("Duration       : %s", duration),
		fmt.Sprintf("Bus            : %s (%s)", safe(b.Bus.BusNumber, "-"), b.Bus.Type),
		fmt.Sprintf("Seats          : %s", strings.Join(b.SeatList(), ", ")),
		fmt.Sprintf("Seat count     : %d", b.SeatCount()),
		fmt.Sprintf("Total          : %s", domain.FormatCents(t.TotalCents)),
	}
	if t.Payment != nil {
		lines = append(lines, fmt.Sprintf("Paid by        : %s", t.Payment.Method))
		if t.Payment.PaidAt != nil {
			lines = append(lines, fmt.Sprintf("Paid at        : %s", t.Payment.PaidAt.Format("2006-01-02 15:04")))
		}
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	note := "Please present this ticket at boarding. Arrive 15 minutes before departure."
	if t.Status != domain.BookingStatusConfirmed {
		note = "This booking is not confirmed. The ticket is valid only after payment."
	}
	pdf.MultiCell(0, 6, note, "", "", false)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Cell(0, 6, "Generated "+t.GeneratedAt.Format("2006-01-02 15:04"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), fmt.Sprintf("ETICKET_%s.pdf", b.BookingNumber), nil
}

func safe(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
