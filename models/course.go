package models

import "time"

// StaticMeetingID marks a fallback link that was set while the meeting
// provider was unreachable. It is always treated as needing replacement
// on the next evaluation.
const StaticMeetingID = "static"

// MeetingLink binds a course or batch to its Zoom meeting.
type MeetingLink struct {
	ZoomLink      string `json:"zoom_link"`
	ZoomMeetingID string `json:"zoom_meeting_id"`
	ZoomStartURL  string `json:"zoom_start_url,omitempty"`
}

// IsStatic reports whether the link is the static fallback.
func (m MeetingLink) IsStatic() bool {
	return m.ZoomMeetingID == StaticMeetingID
}

// Course is a bookable course document.
type Course struct {
	ID   string `json:"course_id"`
	Name string `json:"name"`
	MeetingLink
}

// Batch is a scheduled cohort of a course with its own meeting and a
// pinned announcement message mirroring the join link.
type Batch struct {
	ID   string `json:"batch_id"`
	Name string `json:"name"`
	MeetingLink
	ZoomMessageID string `json:"zoom_message_id,omitempty"`
}

// BatchMessage is one message in a batch's message stream. Pinned
// announcements are anchored far in the past so ascending sorts keep
// them first.
type BatchMessage struct {
	ID      string    `json:"message_id"`
	BatchID string    `json:"batch_id"`
	Text    string    `json:"text"`
	Pinned  bool      `json:"pinned"`
	SentAt  time.Time `json:"sent_at"`
}
