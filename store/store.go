package store

import (
	"context"
	"time"

	"eduplatform/models"
)

// EnrollmentStore persists enrollments. The webhook handler is the only
// writer of PAID status; MarkPaid and AppendWebhookEvent must be safe to
// re-invoke with the same arguments.
type EnrollmentStore interface {
	Create(ctx context.Context, e *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Enrollment, error)
	List(ctx context.Context, userID, courseID string) ([]models.Enrollment, error)
	MarkPaid(ctx context.Context, id, paymentID, method, signature string) error
	// AppendWebhookEvent appends ev to the enrollment's audit list
	// unless an event with the same ID is already present.
	AppendWebhookEvent(ctx context.Context, id string, ev models.WebhookEvent) error
}

// CourseStore persists courses, batches and batch messages.
type CourseStore interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	SetCourseMeeting(ctx context.Context, id string, link models.MeetingLink) error

	ListBatches(ctx context.Context) ([]models.Batch, error)
	GetBatch(ctx context.Context, id string) (*models.Batch, error)
	SetBatchMeeting(ctx context.Context, id string, link models.MeetingLink) error
	SetBatchMessageID(ctx context.Context, batchID, messageID string) error

	GetBatchMessage(ctx context.Context, id string) (*models.BatchMessage, error)
	CreateBatchMessage(ctx context.Context, m *models.BatchMessage) error
	UpdateBatchMessage(ctx context.Context, id, text string, sentAt time.Time) error
}
