package store

import (
	"context"
	"database/sql"
	"time"

	"eduplatform/errors"
	"eduplatform/models"
)

// PostgresCourses implements CourseStore on Postgres.
type PostgresCourses struct {
	db *sql.DB
}

func NewPostgresCourses(db *sql.DB) *PostgresCourses {
	return &PostgresCourses{db: db}
}

func (s *PostgresCourses) ListCourses(ctx context.Context) ([]models.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, zoom_link, zoom_meeting_id, zoom_start_url FROM courses ORDER BY id`)
	if err != nil {
		return nil, errors.E(errors.Unavailable, "error listing courses", err)
	}
	defer rows.Close()

	var out []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.ZoomLink, &c.ZoomMeetingID, &c.ZoomStartURL); err != nil {
			return nil, errors.E(errors.Unavailable, "error reading course", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresCourses) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var c models.Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, zoom_link, zoom_meeting_id, zoom_start_url FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.ZoomLink, &c.ZoomMeetingID, &c.ZoomStartURL)
	if err == sql.ErrNoRows {
		return nil, errors.E(errors.NotFound, "course not found: "+id)
	}
	if err != nil {
		return nil, errors.E(errors.Unavailable, "error reading course", err)
	}
	return &c, nil
}

func (s *PostgresCourses) SetCourseMeeting(ctx context.Context, id string, link models.MeetingLink) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE courses SET zoom_link = $2, zoom_meeting_id = $3, zoom_start_url = $4, updated_at = now()
		 WHERE id = $1`,
		id, link.ZoomLink, link.ZoomMeetingID, link.ZoomStartURL)
	if err != nil {
		return errors.E(errors.Unavailable, "error updating course meeting", err)
	}
	return nil
}

func (s *PostgresCourses) ListBatches(ctx context.Context) ([]models.Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, zoom_link, zoom_meeting_id, zoom_start_url, zoom_message_id FROM batches ORDER BY id`)
	if err != nil {
		return nil, errors.E(errors.Unavailable, "error listing batches", err)
	}
	defer rows.Close()

	var out []models.Batch
	for rows.Next() {
		var b models.Batch
		if err := rows.Scan(&b.ID, &b.Name, &b.ZoomLink, &b.ZoomMeetingID, &b.ZoomStartURL, &b.ZoomMessageID); err != nil {
			return nil, errors.E(errors.Unavailable, "error reading batch", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresCourses) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	var b models.Batch
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, zoom_link, zoom_meeting_id, zoom_start_url, zoom_message_id FROM batches WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.ZoomLink, &b.ZoomMeetingID, &b.ZoomStartURL, &b.ZoomMessageID)
	if err == sql.ErrNoRows {
		return nil, errors.E(errors.NotFound, "batch not found: "+id)
	}
	if err != nil {
		return nil, errors.E(errors.Unavailable, "error reading batch", err)
	}
	return &b, nil
}

func (s *PostgresCourses) SetBatchMeeting(ctx context.Context, id string, link models.MeetingLink) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE batches SET zoom_link = $2, zoom_meeting_id = $3, zoom_start_url = $4, updated_at = now()
		 WHERE id = $1`,
		id, link.ZoomLink, link.ZoomMeetingID, link.ZoomStartURL)
	if err != nil {
		return errors.E(errors.Unavailable, "error updating batch meeting", err)
	}
	return nil
}

func (s *PostgresCourses) SetBatchMessageID(ctx context.Context, batchID, messageID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE batches SET zoom_message_id = $2, updated_at = now() WHERE id = $1`,
		batchID, messageID)
	if err != nil {
		return errors.E(errors.Unavailable, "error updating batch message id", err)
	}
	return nil
}

func (s *PostgresCourses) GetBatchMessage(ctx context.Context, id string) (*models.BatchMessage, error) {
	var m models.BatchMessage
	err := s.db.QueryRowContext(ctx,
		`SELECT id, batch_id, text, pinned, sent_at FROM batch_messages WHERE id = $1`, id).
		Scan(&m.ID, &m.BatchID, &m.Text, &m.Pinned, &m.SentAt)
	if err == sql.ErrNoRows {
		return nil, errors.E(errors.NotFound, "batch message not found: "+id)
	}
	if err != nil {
		return nil, errors.E(errors.Unavailable, "error reading batch message", err)
	}
	return &m, nil
}

func (s *PostgresCourses) CreateBatchMessage(ctx context.Context, m *models.BatchMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_messages (id, batch_id, text, pinned, sent_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.BatchID, m.Text, m.Pinned, m.SentAt)
	if err != nil {
		return errors.E(errors.Unavailable, "error saving batch message", err)
	}
	return nil
}

func (s *PostgresCourses) UpdateBatchMessage(ctx context.Context, id, text string, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE batch_messages SET text = $2, sent_at = $3 WHERE id = $1`,
		id, text, sentAt)
	if err != nil {
		return errors.E(errors.Unavailable, "error updating batch message", err)
	}
	return nil
}
