package domain

import "time"

type ComplaintType string

const (
	ComplaintTypeComplaint  ComplaintType = "complaint"
	ComplaintTypeSuggestion ComplaintType = "suggestion"
	ComplaintTypeOther      ComplaintType = "other"
)

func (t ComplaintType) Valid() bool {
	switch t {
	case ComplaintTypeComplaint, ComplaintTypeSuggestion, ComplaintTypeOther:
		return true
	}
	return false
}

type Complaint struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	Type      ComplaintType `json:"suggestion_type"`
	Title     string        `json:"title"`
	FirstName string        `json:"first_name"`
	Email     string        `json:"email"`
	Mobile    string        `json:"mobile_number"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

type RefundStatus string

const (
	RefundStatusPending  RefundStatus = "Pending"
	RefundStatusApproved RefundStatus = "Approved"
	RefundStatusRejected RefundStatus = "Rejected"
)

func (s RefundStatus) Valid() bool {
	switch s {
	case RefundStatusPending, RefundStatusApproved, RefundStatusRejected:
		return true
	}
	return false
}

type RefundRequest struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	BookingID       int64        `json:"booking_id"`
	BookingNumber   string       `json:"booking_number,omitempty"`
	RefundAs        string       `json:"refund_as"`
	AdditionalNotes string       `json:"additional_notes,omitempty"`
	Status          RefundStatus `json:"status"`
	SubmittedAt     time.Time    `json:"submitted_at"`
	UpdatedBy       *int64       `json:"updated_by,omitempty"`
}
