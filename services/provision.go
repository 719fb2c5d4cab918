package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eduplatform/config"
	"eduplatform/errors"
	"eduplatform/logger"
	"eduplatform/models"
	"eduplatform/queue"
	"eduplatform/store"
)

// pinnedAnchor is the far-past timestamp pinned announcements are
// anchored to so ascending sorts keep them first.
var pinnedAnchor = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const pinnedMessagePrefix = "Join Zoom: "

// Provisioner keeps every course and batch bound to a valid meeting
// link and keeps each batch's pinned announcement in sync with it. All
// provider calls go through the rate-limited queue.
type Provisioner struct {
	courses    store.CourseStore
	meetings   MeetingAPI
	queue      *queue.Queue
	events     *Events
	staticLink string
	sweepEvery time.Duration

	changes <-chan store.DocChange

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewProvisioner(cfg config.Config, courses store.CourseStore, meetings MeetingAPI, q *queue.Queue, events *Events, changes <-chan store.DocChange) *Provisioner {
	return &Provisioner{
		courses:    courses,
		meetings:   meetings,
		queue:      q,
		events:     events,
		staticLink: cfg.ZoomStaticLink,
		sweepEvery: cfg.SweepInterval,
		changes:    changes,
	}
}

// Start runs the backfill once, then the change subscription and the
// periodic sweep until Stop is called.
func (p *Provisioner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Sweep(ctx)

		ticker := time.NewTicker(p.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Sweep(ctx)
			}
		}
	}()

	if p.changes != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.watch(ctx)
		}()
	}
}

// Stop cancels the background work and waits for it to finish.
func (p *Provisioner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Provisioner) watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-p.changes:
			if !ok {
				return
			}
			if err := p.evaluateDoc(ctx, change); err != nil {
				logger.Error("Error evaluating %s/%s: %v", change.Collection, change.ID, err)
			}
		}
	}
}

func (p *Provisioner) evaluateDoc(ctx context.Context, change store.DocChange) error {
	switch change.Collection {
	case "courses":
		course, err := p.courses.GetCourse(ctx, change.ID)
		if err != nil {
			return err
		}
		return p.EnsureCourse(ctx, course)
	case "batches":
		batch, err := p.courses.GetBatch(ctx, change.ID)
		if err != nil {
			return err
		}
		return p.EnsureBatch(ctx, batch)
	default:
		logger.Warn("Change for unknown collection %q ignored", change.Collection)
		return nil
	}
}

// Sweep re-validates every course and batch, sequentially per
// collection. Per-document failures are logged and never abort the
// sweep.
func (p *Provisioner) Sweep(ctx context.Context) {
	courses, err := p.courses.ListCourses(ctx)
	if err != nil {
		logger.Error("Sweep: error listing courses: %v", err)
	}
	for i := range courses {
		if ctx.Err() != nil {
			return
		}
		if err := p.EnsureCourse(ctx, &courses[i]); err != nil {
			logger.Error("Sweep: course %s: %v", courses[i].ID, err)
		}
	}

	batches, err := p.courses.ListBatches(ctx)
	if err != nil {
		logger.Error("Sweep: error listing batches: %v", err)
	}
	for i := range batches {
		if ctx.Err() != nil {
			return
		}
		if err := p.EnsureBatch(ctx, &batches[i]); err != nil {
			logger.Error("Sweep: batch %s: %v", batches[i].ID, err)
		}
	}
}

// EnsureCourse makes sure the course has a valid meeting link.
func (p *Provisioner) EnsureCourse(ctx context.Context, course *models.Course) error {
	link, rotated, err := p.ensureLink(ctx, course.Name, course.MeetingLink)
	if err != nil {
		return err
	}
	if rotated {
		if err := p.courses.SetCourseMeeting(ctx, course.ID, link); err != nil {
			return err
		}
		course.MeetingLink = link
		logger.Info("Course %s bound to meeting %s", course.ID, link.ZoomMeetingID)
		p.events.MeetingRotated("courses", course.ID, link)
	}
	return nil
}

// EnsureBatch makes sure the batch has a valid meeting link and a
// pinned announcement mirroring it.
func (p *Provisioner) EnsureBatch(ctx context.Context, batch *models.Batch) error {
	link, rotated, err := p.ensureLink(ctx, batch.Name, batch.MeetingLink)
	if err != nil {
		return err
	}
	if rotated {
		if err := p.courses.SetBatchMeeting(ctx, batch.ID, link); err != nil {
			return err
		}
		batch.MeetingLink = link
		logger.Info("Batch %s bound to meeting %s", batch.ID, link.ZoomMeetingID)
		p.events.MeetingRotated("batches", batch.ID, link)
	}
	return p.ensurePinnedAnnouncement(ctx, batch)
}

// ensureLink evaluates the current binding and returns the link to use
// plus whether it changed. States are derived, not stored: no link →
// create; static or placeholder → replace; provider says the meeting
// is gone → rotate; otherwise keep.
func (p *Provisioner) ensureLink(ctx context.Context, topic string, current models.MeetingLink) (models.MeetingLink, bool, error) {
	if !p.needsLink(ctx, current) {
		return current, false, nil
	}

	var meeting *Meeting
	err := p.queue.Do(ctx, func(ctx context.Context) error {
		m, err := p.meetings.CreateMeeting(ctx, topic)
		if err != nil {
			return err
		}
		meeting = m
		return nil
	})
	if err != nil {
		// Fall back to the static link rather than leaving the
		// document without any link. The static sentinel is replaced
		// on the next evaluation once the provider is reachable.
		if p.staticLink != "" {
			if current.ZoomLink == p.staticLink && current.IsStatic() {
				return current, false, nil
			}
			logger.Warn("Meeting creation failed, using static fallback: %v", err)
			return models.MeetingLink{
				ZoomLink:      p.staticLink,
				ZoomMeetingID: models.StaticMeetingID,
			}, true, nil
		}
		return current, false, err
	}

	return models.MeetingLink{
		ZoomLink:      meeting.JoinURL,
		ZoomMeetingID: meeting.ID,
		ZoomStartURL:  meeting.StartURL,
	}, true, nil
}

func (p *Provisioner) needsLink(ctx context.Context, current models.MeetingLink) bool {
	if current.ZoomLink == "" || current.IsStatic() {
		return true
	}
	if isPlaceholderLink(current.ZoomLink) {
		return true
	}
	return !p.validMeeting(ctx, current.ZoomMeetingID)
}

// validMeeting checks the meeting at the provider. Provider "not
// found" means invalid; any other error counts as valid to avoid
// rotation storms on transient failures.
func (p *Provisioner) validMeeting(ctx context.Context, meetingID string) bool {
	if meetingID == "" || meetingID == models.StaticMeetingID {
		return false
	}
	err := p.queue.Do(ctx, func(ctx context.Context) error {
		_, err := p.meetings.GetMeeting(ctx, meetingID)
		return err
	})
	if err == nil {
		return true
	}
	if errors.IsKind(err, errors.NotFound) {
		return false
	}
	logger.Warn("Meeting %s validity check inconclusive, keeping link: %v", meetingID, err)
	return true
}

func isPlaceholderLink(link string) bool {
	lower := strings.ToLower(link)
	return strings.Contains(lower, "example.com") ||
		strings.Contains(lower, "your-zoom-link") ||
		strings.Contains(lower, "todo")
}

// ensurePinnedAnnouncement creates or repairs the single pinned message
// whose text mirrors the batch's join link.
func (p *Provisioner) ensurePinnedAnnouncement(ctx context.Context, batch *models.Batch) error {
	if batch.ZoomLink == "" {
		return nil
	}
	want := pinnedMessagePrefix + batch.ZoomLink

	if batch.ZoomMessageID == "" {
		msg := &models.BatchMessage{
			ID:      uuid.New().String(),
			BatchID: batch.ID,
			Text:    want,
			Pinned:  true,
			SentAt:  pinnedAnchor,
		}
		if err := p.courses.CreateBatchMessage(ctx, msg); err != nil {
			return err
		}
		if err := p.courses.SetBatchMessageID(ctx, batch.ID, msg.ID); err != nil {
			return err
		}
		batch.ZoomMessageID = msg.ID
		logger.Info("Pinned announcement %s created for batch %s", msg.ID, batch.ID)
		return nil
	}

	msg, err := p.courses.GetBatchMessage(ctx, batch.ZoomMessageID)
	if err != nil {
		if errors.IsKind(err, errors.NotFound) {
			// Recorded message is gone; recreate on the next pass.
			return p.courses.SetBatchMessageID(ctx, batch.ID, "")
		}
		return err
	}

	if msg.Text != want || !msg.SentAt.Equal(pinnedAnchor) {
		if err := p.courses.UpdateBatchMessage(ctx, msg.ID, want, pinnedAnchor); err != nil {
			return err
		}
		logger.Info("Pinned announcement %s updated for batch %s", msg.ID, batch.ID)
	}
	return nil
}
