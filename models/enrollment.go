package models

import (
	"encoding/json"
	"time"
)

// Enrollment status constants
const (
	EnrollmentStatusPending = "PENDING"
	EnrollmentStatusPaid    = "PAID"
)

// Enrollment links a user, a course and a payment lifecycle. Status is
// written only by the order endpoint (PENDING) and the webhook handler
// (PAID); it never reverts from PAID.
type Enrollment struct {
	ID              string `json:"enrollment_id"`
	UserID          string `json:"user_id"`
	CourseID        string `json:"course_id"`
	Amount          int64  `json:"amount"` // minor currency units
	Currency        string `json:"currency"`
	CustomerEmail   string `json:"customer_email"`
	CustomerContact string `json:"customer_contact,omitempty"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty"`
	PaymentMethod     string `json:"payment_method,omitempty"`
	PaymentSignature  string `json:"-"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookEvent is one received provider notification, kept append-only
// on the enrollment for audit. Events are deduplicated by ID.
type WebhookEvent struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}
