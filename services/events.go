package services

import (
	"time"

	"eduplatform/logger"
	"eduplatform/models"
	"eduplatform/services/kafka"
)

const (
	paymentsTopic = "payments"
	meetingsTopic = "meetings"
)

// Events publishes enrollment and meeting lifecycle events. All
// publishing is best-effort and runs off the request path.
type Events struct {
	producer *kafka.Producer
}

func NewEvents(producer *kafka.Producer) *Events {
	return &Events{producer: producer}
}

// PaymentInitiated records a new pending enrollment with a created
// provider order.
func (e *Events) PaymentInitiated(enr *models.Enrollment) {
	e.publish(paymentsTopic, "enrollment-"+enr.ID, map[string]interface{}{
		"event":         "payment.initiated",
		"enrollment_id": enr.ID,
		"user_id":       enr.UserID,
		"course_id":     enr.CourseID,
		"order_id":      enr.RazorpayOrderID,
		"amount":        enr.Amount,
		"currency":      enr.Currency,
		"status":        enr.Status,
		"ts":            time.Now().UTC().Format(time.RFC3339),
	})
}

// EnrollmentPaid records a captured payment.
func (e *Events) EnrollmentPaid(enr *models.Enrollment, paymentID string) {
	e.publish(paymentsTopic, "enrollment-"+enr.ID, map[string]interface{}{
		"event":         "enrollment.paid",
		"enrollment_id": enr.ID,
		"user_id":       enr.UserID,
		"course_id":     enr.CourseID,
		"order_id":      enr.RazorpayOrderID,
		"payment_id":    paymentID,
		"status":        models.EnrollmentStatusPaid,
		"ts":            time.Now().UTC().Format(time.RFC3339),
	})
}

// MeetingRotated records a meeting link being created or replaced on a
// course or batch document.
func (e *Events) MeetingRotated(collection, docID string, link models.MeetingLink) {
	e.publish(meetingsTopic, collection+"-"+docID, map[string]interface{}{
		"event":      "meeting.rotated",
		"collection": collection,
		"doc_id":     docID,
		"meeting_id": link.ZoomMeetingID,
		"join_url":   link.ZoomLink,
		"ts":         time.Now().UTC().Format(time.RFC3339),
	})
}

func (e *Events) publish(topic, key string, value interface{}) {
	if e == nil || e.producer == nil {
		return
	}
	go func() {
		if err := e.producer.Publish(topic, key, value); err != nil {
			logger.Warn("Failed to publish %s event: %v", topic, err)
		}
	}()
}
