package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eduplatform/errors"
	"eduplatform/models"
)

// fakeEnrollmentStore is an in-memory store.EnrollmentStore.
type fakeEnrollmentStore struct {
	mu         sync.Mutex
	byID       map[string]*models.Enrollment
	events     map[string][]models.WebhookEvent
	failCreate bool
}

func newFakeEnrollmentStore() *fakeEnrollmentStore {
	return &fakeEnrollmentStore{
		byID:   make(map[string]*models.Enrollment),
		events: make(map[string][]models.WebhookEvent),
	}
}

func (f *fakeEnrollmentStore) Create(_ context.Context, e *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.E(errors.Unavailable, "store down")
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEnrollmentStore) GetByID(_ context.Context, id string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, errors.E(errors.NotFound, "enrollment not found")
}

func (f *fakeEnrollmentStore) GetByOrderID(_ context.Context, orderID string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.RazorpayOrderID == orderID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, errors.E(errors.NotFound, "enrollment not found")
}

func (f *fakeEnrollmentStore) List(_ context.Context, userID, courseID string) ([]models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Enrollment
	for _, e := range f.byID {
		if userID != "" && e.UserID != userID {
			continue
		}
		if courseID != "" && e.CourseID != courseID {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEnrollmentStore) MarkPaid(_ context.Context, id, paymentID, method, signature string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return errors.E(errors.NotFound, "enrollment not found")
	}
	e.Status = models.EnrollmentStatusPaid
	e.RazorpayPaymentID = paymentID
	e.PaymentMethod = method
	e.PaymentSignature = signature
	e.UpdatedAt = time.Now()
	return nil
}

func (f *fakeEnrollmentStore) AppendWebhookEvent(_ context.Context, id string, ev models.WebhookEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return errors.E(errors.NotFound, "enrollment not found")
	}
	for _, existing := range f.events[id] {
		if existing.ID == ev.ID {
			return nil
		}
	}
	f.events[id] = append(f.events[id], ev)
	return nil
}

// fakeOrderAPI records the last order creation request.
type fakeOrderAPI struct {
	lastData map[string]interface{}
	resp     map[string]interface{}
	err      error
}

func (f *fakeOrderAPI) Create(data map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.lastData = data
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// fakeMeetingAPI is an in-memory MeetingAPI. Meeting ids are handed out
// sequentially; ids added to expired are reported NotFound.
type fakeMeetingAPI struct {
	mu        sync.Mutex
	nextID    int
	created   []string
	expired   map[string]bool
	createErr error
	getErr    error
}

func newFakeMeetingAPI() *fakeMeetingAPI {
	return &fakeMeetingAPI{nextID: 100, expired: make(map[string]bool)}
}

func (f *fakeMeetingAPI) CreateMeeting(_ context.Context, topic string) (*Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	f.created = append(f.created, id)
	return &Meeting{
		ID:       id,
		Topic:    topic,
		JoinURL:  "https://zoom.example.test/j/" + id,
		StartURL: "https://zoom.example.test/s/" + id,
	}, nil
}

func (f *fakeMeetingAPI) GetMeeting(_ context.Context, id string) (*Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.expired[id] {
		return nil, errors.E(errors.NotFound, "meeting does not exist")
	}
	return &Meeting{ID: id, JoinURL: "https://zoom.example.test/j/" + id}, nil
}

// fakeCourseStore is an in-memory store.CourseStore.
type fakeCourseStore struct {
	mu       sync.Mutex
	courses  map[string]*models.Course
	batches  map[string]*models.Batch
	messages map[string]*models.BatchMessage
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{
		courses:  make(map[string]*models.Course),
		batches:  make(map[string]*models.Batch),
		messages: make(map[string]*models.BatchMessage),
	}
}

func (f *fakeCourseStore) ListCourses(_ context.Context) ([]models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Course
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCourseStore) GetCourse(_ context.Context, id string) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, errors.E(errors.NotFound, "course not found")
}

func (f *fakeCourseStore) SetCourseMeeting(_ context.Context, id string, link models.MeetingLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return errors.E(errors.NotFound, "course not found")
	}
	c.MeetingLink = link
	return nil
}

func (f *fakeCourseStore) ListBatches(_ context.Context) ([]models.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Batch
	for _, b := range f.batches {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeCourseStore) GetBatch(_ context.Context, id string) (*models.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.batches[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, errors.E(errors.NotFound, "batch not found")
}

func (f *fakeCourseStore) SetBatchMeeting(_ context.Context, id string, link models.MeetingLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return errors.E(errors.NotFound, "batch not found")
	}
	b.MeetingLink = link
	return nil
}

func (f *fakeCourseStore) SetBatchMessageID(_ context.Context, batchID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[batchID]
	if !ok {
		return errors.E(errors.NotFound, "batch not found")
	}
	b.ZoomMessageID = messageID
	return nil
}

func (f *fakeCourseStore) GetBatchMessage(_ context.Context, id string) (*models.BatchMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, errors.E(errors.NotFound, "batch message not found")
}

func (f *fakeCourseStore) CreateBatchMessage(_ context.Context, m *models.BatchMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeCourseStore) UpdateBatchMessage(_ context.Context, id, text string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return errors.E(errors.NotFound, "batch message not found")
	}
	m.Text = text
	m.SentAt = sentAt
	return nil
}
