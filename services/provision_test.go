package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform/config"
	"eduplatform/errors"
	"eduplatform/models"
	"eduplatform/queue"
)

func testProvisioner(courses *fakeCourseStore, meetings *fakeMeetingAPI, staticLink string) *Provisioner {
	cfg := config.Config{
		ZoomStaticLink: staticLink,
		SweepInterval:  time.Hour,
	}
	q := queue.New(queue.Options{
		BaseDelay:  time.Millisecond,
		MaxJitter:  time.Millisecond,
		RetryBase:  time.Millisecond,
		MaxRetries: 2,
	})
	return NewProvisioner(cfg, courses, meetings, q, nil, nil)
}

func TestEnsureCourseCreatesMissingLink(t *testing.T) {
	courses := newFakeCourseStore()
	courses.courses["c1"] = &models.Course{ID: "c1", Name: "Advanced Go"}
	meetings := newFakeMeetingAPI()
	p := testProvisioner(courses, meetings, "")

	course, _ := courses.GetCourse(context.Background(), "c1")
	require.NoError(t, p.EnsureCourse(context.Background(), course))

	saved, _ := courses.GetCourse(context.Background(), "c1")
	assert.NotEmpty(t, saved.ZoomLink)
	assert.NotEmpty(t, saved.ZoomMeetingID)
	assert.Contains(t, saved.ZoomLink, saved.ZoomMeetingID)
}

func TestEnsureCourseRotatesExpiredMeeting(t *testing.T) {
	courses := newFakeCourseStore()
	courses.courses["c1"] = &models.Course{
		ID:   "c1",
		Name: "Advanced Go",
		MeetingLink: models.MeetingLink{
			ZoomLink:      "https://zoom.example.test/j/900",
			ZoomMeetingID: "900",
		},
	}
	meetings := newFakeMeetingAPI()
	meetings.expired["900"] = true
	p := testProvisioner(courses, meetings, "")

	course, _ := courses.GetCourse(context.Background(), "c1")
	require.NoError(t, p.EnsureCourse(context.Background(), course))

	saved, _ := courses.GetCourse(context.Background(), "c1")
	assert.NotEqual(t, "900", saved.ZoomMeetingID)
	assert.NotEmpty(t, saved.ZoomMeetingID)
}

func TestEnsureCourseKeepsValidMeeting(t *testing.T) {
	courses := newFakeCourseStore()
	courses.courses["c1"] = &models.Course{
		ID:   "c1",
		Name: "Advanced Go",
		MeetingLink: models.MeetingLink{
			ZoomLink:      "https://zoom.example.test/j/900",
			ZoomMeetingID: "900",
		},
	}
	meetings := newFakeMeetingAPI()
	p := testProvisioner(courses, meetings, "")

	course, _ := courses.GetCourse(context.Background(), "c1")
	require.NoError(t, p.EnsureCourse(context.Background(), course))

	saved, _ := courses.GetCourse(context.Background(), "c1")
	assert.Equal(t, "900", saved.ZoomMeetingID)
	assert.Empty(t, meetings.created)
}

func TestEnsureCourseFailsOpenOnTransientValidityError(t *testing.T) {
	courses := newFakeCourseStore()
	courses.courses["c1"] = &models.Course{
		ID:   "c1",
		Name: "Advanced Go",
		MeetingLink: models.MeetingLink{
			ZoomLink:      "https://zoom.example.test/j/900",
			ZoomMeetingID: "900",
		},
	}
	meetings := newFakeMeetingAPI()
	meetings.getErr = errors.E(errors.Unavailable, "zoom is down")
	p := testProvisioner(courses, meetings, "")

	course, _ := courses.GetCourse(context.Background(), "c1")
	require.NoError(t, p.EnsureCourse(context.Background(), course))

	// Transient provider errors must not trigger rotation.
	saved, _ := courses.GetCourse(context.Background(), "c1")
	assert.Equal(t, "900", saved.ZoomMeetingID)
}

func TestEnsureCourseStaticFallbackThenReplacement(t *testing.T) {
	courses := newFakeCourseStore()
	courses.courses["c1"] = &models.Course{ID: "c1", Name: "Advanced Go"}
	meetings := newFakeMeetingAPI()
	meetings.createErr = errors.E(errors.Unavailable, "credentials not configured")
	p := testProvisioner(courses, meetings, "https://zoom.example.test/j/static-room")

	course, _ := courses.GetCourse(context.Background(), "c1")
	require.NoError(t, p.EnsureCourse(context.Background(), course))

	saved, _ := courses.GetCourse(context.Background(), "c1")
	assert.Equal(t, "https://zoom.example.test/j/static-room", saved.ZoomLink)
	assert.Equal(t, models.StaticMeetingID, saved.ZoomMeetingID)

	// Provider comes back: the sentinel is replaced with a real meeting.
	meetings.createErr = nil
	require.NoError(t, p.EnsureCourse(context.Background(), saved))

	saved, _ = courses.GetCourse(context.Background(), "c1")
	assert.NotEqual(t, models.StaticMeetingID, saved.ZoomMeetingID)
	assert.NotEmpty(t, saved.ZoomMeetingID)
}

func TestEnsureBatchCreatesPinnedAnnouncement(t *testing.T) {
	courses := newFakeCourseStore()
	courses.batches["b1"] = &models.Batch{ID: "b1", Name: "Batch Jan 2026"}
	meetings := newFakeMeetingAPI()
	p := testProvisioner(courses, meetings, "")

	batch, _ := courses.GetBatch(context.Background(), "b1")
	require.NoError(t, p.EnsureBatch(context.Background(), batch))

	saved, _ := courses.GetBatch(context.Background(), "b1")
	require.NotEmpty(t, saved.ZoomMessageID)

	msg, err := courses.GetBatchMessage(context.Background(), saved.ZoomMessageID)
	require.NoError(t, err)
	assert.Equal(t, "Join Zoom: "+saved.ZoomLink, msg.Text)
	assert.True(t, msg.Pinned)
	assert.True(t, msg.SentAt.Equal(pinnedAnchor), "announcement must sort first in ascending order")
}

func TestEnsureBatchUpdatesPinnedAnnouncementInPlace(t *testing.T) {
	courses := newFakeCourseStore()
	courses.batches["b1"] = &models.Batch{ID: "b1", Name: "Batch Jan 2026"}
	meetings := newFakeMeetingAPI()
	p := testProvisioner(courses, meetings, "")

	batch, _ := courses.GetBatch(context.Background(), "b1")
	require.NoError(t, p.EnsureBatch(context.Background(), batch))
	first, _ := courses.GetBatch(context.Background(), "b1")

	// Expire the meeting so the next evaluation rotates the link.
	// EnsureBatch updates the passed batch in place, so capture the
	// original meeting id before the second call.
	firstID := first.ZoomMeetingID
	meetings.expired[first.ZoomMeetingID] = true
	require.NoError(t, p.EnsureBatch(context.Background(), first))

	second, _ := courses.GetBatch(context.Background(), "b1")
	assert.NotEqual(t, firstID, second.ZoomMeetingID)
	assert.Equal(t, first.ZoomMessageID, second.ZoomMessageID, "no second pinned message")
	require.Len(t, courses.messages, 1)

	msg, _ := courses.GetBatchMessage(context.Background(), second.ZoomMessageID)
	assert.Equal(t, "Join Zoom: "+second.ZoomLink, msg.Text)
}

func TestEnsureBatchRepairsDriftedAnnouncement(t *testing.T) {
	courses := newFakeCourseStore()
	courses.batches["b1"] = &models.Batch{ID: "b1", Name: "Batch Jan 2026"}
	meetings := newFakeMeetingAPI()
	p := testProvisioner(courses, meetings, "")

	batch, _ := courses.GetBatch(context.Background(), "b1")
	require.NoError(t, p.EnsureBatch(context.Background(), batch))
	saved, _ := courses.GetBatch(context.Background(), "b1")

	// Drift the message off its anchor and text.
	require.NoError(t, courses.UpdateBatchMessage(context.Background(), saved.ZoomMessageID, "edited", time.Now()))

	require.NoError(t, p.EnsureBatch(context.Background(), saved))
	msg, _ := courses.GetBatchMessage(context.Background(), saved.ZoomMessageID)
	assert.Equal(t, "Join Zoom: "+saved.ZoomLink, msg.Text)
	assert.True(t, msg.SentAt.Equal(pinnedAnchor))
}

func TestSweepContinuesPastFailingDocuments(t *testing.T) {
	courses := newFakeCourseStore()
	courses.courses["c1"] = &models.Course{ID: "c1", Name: "Broken"}
	courses.courses["c2"] = &models.Course{ID: "c2", Name: "Fine"}
	courses.batches["b1"] = &models.Batch{ID: "b1", Name: "Batch"}
	meetings := newFakeMeetingAPI()
	// No static fallback: creation failures surface as errors.
	meetings.createErr = errors.E(errors.Unavailable, "down")
	p := testProvisioner(courses, meetings, "")

	p.Sweep(context.Background())

	// Provider recovers; a later sweep provisions everything.
	meetings.createErr = nil
	p.Sweep(context.Background())

	c1, _ := courses.GetCourse(context.Background(), "c1")
	c2, _ := courses.GetCourse(context.Background(), "c2")
	b1, _ := courses.GetBatch(context.Background(), "b1")
	assert.NotEmpty(t, c1.ZoomMeetingID)
	assert.NotEmpty(t, c2.ZoomMeetingID)
	assert.NotEmpty(t, b1.ZoomMeetingID)
}

func TestStartStopIsDeterministic(t *testing.T) {
	p := testProvisioner(newFakeCourseStore(), newFakeMeetingAPI(), "")
	p.Start()
	p.Stop()
}
