package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"eduplatform/config"
	"eduplatform/errors"
	"eduplatform/logger"
	"eduplatform/models"
	"eduplatform/store"
)

// OrderAPI is the slice of the Razorpay client used for order
// creation. *razorpay.Client.Order satisfies it.
type OrderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// PaymentService creates provider orders and verifies payment
// signatures. Webhook handling lives in webhook.go on the same service.
type PaymentService struct {
	orders        OrderAPI
	enrollments   store.EnrollmentStore
	events        *Events
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewPaymentService(cfg config.Config, orders OrderAPI, enrollments store.EnrollmentStore, events *Events) *PaymentService {
	return &PaymentService{
		orders:        orders,
		enrollments:   enrollments,
		events:        events,
		keyID:         cfg.RazorpayKeyID,
		keySecret:     cfg.RazorpayKeySecret,
		webhookSecret: cfg.RazorpayWebhookSecret,
	}
}

// CreateOrderRequest is the payment initiation request body.
type CreateOrderRequest struct {
	UserID          string                 `json:"userId"`
	CourseID        string                 `json:"courseId"`
	Amount          int64                  `json:"amount"` // minor currency units
	Currency        string                 `json:"currency"`
	CustomerEmail   string                 `json:"customerEmail"`
	CustomerContact string                 `json:"customerContact"`
	Notes           map[string]interface{} `json:"notes"`
}

// CreateOrderResponse is returned to the client for checkout.
type CreateOrderResponse struct {
	OrderID      string `json:"orderId"`
	Key          string `json:"key"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	EnrollmentID string `json:"enrollmentId"`
}

// CreateOrder creates a Razorpay order tagged with the enrollment
// identity and persists a PENDING enrollment.
func (s *PaymentService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	if req.UserID == "" || req.CourseID == "" || req.Amount <= 0 || req.CustomerEmail == "" {
		return nil, errors.E(errors.Invalid, "userId, courseId, amount and customerEmail are required")
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	enrollmentID := uuid.New().String()

	notes := map[string]interface{}{
		"enrollment_id": enrollmentID,
		"user_id":       req.UserID,
		"course_id":     req.CourseID,
	}
	for k, v := range req.Notes {
		if _, reserved := notes[k]; !reserved {
			notes[k] = v
		}
	}

	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": currency,
		"receipt":  "rcpt_" + enrollmentID,
		"notes":    notes,
	}

	resp, err := s.orders.Create(data, nil)
	if err != nil {
		logger.Error("Error creating razorpay order: %v", err)
		return nil, errors.E(errors.Unavailable, "error creating razorpay order", err)
	}
	orderID, ok := resp["id"].(string)
	if !ok || orderID == "" {
		return nil, errors.E(errors.Unavailable, "razorpay order response missing id")
	}

	enrollment := &models.Enrollment{
		ID:              enrollmentID,
		UserID:          req.UserID,
		CourseID:        req.CourseID,
		Amount:          req.Amount,
		Currency:        currency,
		CustomerEmail:   req.CustomerEmail,
		CustomerContact: req.CustomerContact,
		RazorpayOrderID: orderID,
		Status:          models.EnrollmentStatusPending,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		logger.Error("Error saving enrollment %s: %v", enrollmentID, err)
		return nil, err
	}

	logger.Info("Created order %s for enrollment %s (amount %d %s)", orderID, enrollmentID, req.Amount, currency)
	s.events.PaymentInitiated(enrollment)

	return &CreateOrderResponse{
		OrderID:      orderID,
		Key:          s.keyID,
		Amount:       req.Amount,
		Currency:     currency,
		EnrollmentID: enrollmentID,
	}, nil
}

// VerifySignature checks the legacy client-side confirmation signature
// over "orderId|paymentId". It never mutates state and is not
// authoritative; only the webhook unlocks paid content.
func (s *PaymentService) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(s.keySecret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
