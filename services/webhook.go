package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eduplatform/errors"
	"eduplatform/logger"
	"eduplatform/models"
)

// noteMap tolerates Razorpay's habit of sending notes as an empty
// array when no notes were set.
type noteMap map[string]string

func (n *noteMap) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, "[") {
		*n = nil
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			m[k] = s
		}
	}
	*n = m
	return nil
}

// webhookPayload is the subset of the Razorpay webhook body we act on,
// decoded once at the boundary.
type webhookPayload struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment struct {
			Entity struct {
				ID      string  `json:"id"`
				OrderID string  `json:"order_id"`
				Method  string  `json:"method"`
				Notes   noteMap `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyWebhookSignature checks the raw body against the
// x-razorpay-signature header using constant-time comparison. An
// optional "sha256=" prefix on the header is stripped.
func (s *PaymentService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.webhookSecret == "" || signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	h := hmac.New(sha256.New, []byte(s.webhookSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HandleWebhook verifies and applies one webhook delivery. It is safe
// to re-invoke with the same body: the PAID transition overwrites
// identical values and the audit append deduplicates by event id.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !s.VerifyWebhookSignature(body, signature) {
		return errors.E(errors.Unauthorized, "missing or invalid webhook signature")
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return errors.E(errors.Invalid, "invalid webhook payload", err)
	}

	logger.Info("Webhook received: %s", payload.Event)

	switch payload.Event {
	case "payment.captured":
		return s.handlePaymentCaptured(ctx, payload, body, signature)
	case "payment.failed":
		s.handlePaymentFailed(ctx, payload, body)
		return nil
	default:
		// Acknowledge everything else without side effects.
		return nil
	}
}

func (s *PaymentService) handlePaymentCaptured(ctx context.Context, payload webhookPayload, body []byte, signature string) error {
	entity := payload.Payload.Payment.Entity
	if entity.ID == "" || entity.OrderID == "" {
		return errors.E(errors.Invalid, "webhook payment entity missing id or order_id")
	}

	enrollment, err := s.resolveEnrollment(ctx, entity.Notes["enrollment_id"], entity.OrderID)
	if err != nil {
		return err
	}

	ev := models.WebhookEvent{
		ID:         webhookEventID(payload, entity.ID),
		Event:      payload.Event,
		ReceivedAt: time.Now().UTC(),
		Payload:    json.RawMessage(body),
	}
	if err := s.enrollments.AppendWebhookEvent(ctx, enrollment.ID, ev); err != nil {
		return err
	}

	if err := s.enrollments.MarkPaid(ctx, enrollment.ID, entity.ID, entity.Method, signature); err != nil {
		return err
	}

	if enrollment.Status != models.EnrollmentStatusPaid {
		logger.Info("Enrollment %s marked PAID (payment %s)", enrollment.ID, entity.ID)
		s.events.EnrollmentPaid(enrollment, entity.ID)
	} else {
		logger.Info("Duplicate capture for enrollment %s acknowledged", enrollment.ID)
	}
	return nil
}

// handlePaymentFailed records the failure for audit. Status stays
// PENDING so the user can retry; it never reverts from PAID.
func (s *PaymentService) handlePaymentFailed(ctx context.Context, payload webhookPayload, body []byte) {
	entity := payload.Payload.Payment.Entity
	enrollment, err := s.resolveEnrollment(ctx, entity.Notes["enrollment_id"], entity.OrderID)
	if err != nil {
		logger.Warn("payment.failed for unknown enrollment (order %s): %v", entity.OrderID, err)
		return
	}

	ev := models.WebhookEvent{
		ID:         webhookEventID(payload, entity.ID),
		Event:      payload.Event,
		ReceivedAt: time.Now().UTC(),
		Payload:    json.RawMessage(body),
	}
	if err := s.enrollments.AppendWebhookEvent(ctx, enrollment.ID, ev); err != nil {
		logger.Error("Error recording payment.failed for enrollment %s: %v", enrollment.ID, err)
	}
}

// resolveEnrollment finds the target by the enrollment id embedded in
// payment notes, falling back to the stored provider order id.
func (s *PaymentService) resolveEnrollment(ctx context.Context, enrollmentID, orderID string) (*models.Enrollment, error) {
	if enrollmentID != "" {
		if e, err := s.enrollments.GetByID(ctx, enrollmentID); err == nil {
			return e, nil
		} else if !errors.IsKind(err, errors.NotFound) {
			return nil, err
		}
	}
	if orderID != "" {
		if e, err := s.enrollments.GetByOrderID(ctx, orderID); err == nil {
			return e, nil
		} else if !errors.IsKind(err, errors.NotFound) {
			return nil, err
		}
	}
	return nil, errors.E(errors.NotFound,
		fmt.Sprintf("no enrollment for id %q or order %q", enrollmentID, orderID))
}

// webhookEventID keys audit entries. Test deliveries sometimes lack a
// top-level event id.
func webhookEventID(payload webhookPayload, paymentID string) string {
	if payload.ID != "" {
		return payload.ID
	}
	return fmt.Sprintf("%s_%s_%d", payload.Event, paymentID, payload.CreatedAt)
}
