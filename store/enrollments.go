package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"eduplatform/errors"
	"eduplatform/models"
)

// PostgresEnrollments implements EnrollmentStore on Postgres. The
// append-only webhook audit list lives in a JSONB column.
type PostgresEnrollments struct {
	db *sql.DB
}

func NewPostgresEnrollments(db *sql.DB) *PostgresEnrollments {
	return &PostgresEnrollments{db: db}
}

const enrollmentColumns = `id, user_id, course_id, amount, currency, customer_email, customer_contact,
	razorpay_order_id, razorpay_payment_id, payment_method, payment_signature, status, created_at, updated_at`

func (s *PostgresEnrollments) Create(ctx context.Context, e *models.Enrollment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrollments (id, user_id, course_id, amount, currency, customer_email, customer_contact,
			razorpay_order_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.UserID, e.CourseID, e.Amount, e.Currency, e.CustomerEmail, e.CustomerContact,
		e.RazorpayOrderID, e.Status)
	if err != nil {
		return errors.E(errors.Unavailable, "error saving enrollment", err)
	}
	return nil
}

func (s *PostgresEnrollments) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id)
	return scanEnrollment(row)
}

func (s *PostgresEnrollments) GetByOrderID(ctx context.Context, orderID string) (*models.Enrollment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE razorpay_order_id = $1`, orderID)
	return scanEnrollment(row)
}

func (s *PostgresEnrollments) List(ctx context.Context, userID, courseID string) ([]models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE 1=1`
	args := []interface{}{}
	if userID != "" {
		args = append(args, userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if courseID != "" {
		args = append(args, courseID)
		query += fmt.Sprintf(" AND course_id = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.E(errors.Unavailable, "error listing enrollments", err)
	}
	defer rows.Close()

	var out []models.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// MarkPaid sets the paid fields. Re-applying the same capture overwrites
// identical values, so webhook redelivery is harmless.
func (s *PostgresEnrollments) MarkPaid(ctx context.Context, id, paymentID, method, signature string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrollments
		 SET status = $2, razorpay_payment_id = $3, payment_method = $4, payment_signature = $5,
			 updated_at = now()
		 WHERE id = $1`,
		id, models.EnrollmentStatusPaid, paymentID, method, signature)
	if err != nil {
		return errors.E(errors.Unavailable, "error updating enrollment", err)
	}
	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return errors.E(errors.NotFound, "enrollment not found: "+id)
	}
	return nil
}

// AppendWebhookEvent appends ev to raw_webhook_events unless an event
// with the same id is already recorded (set-union semantics).
func (s *PostgresEnrollments) AppendWebhookEvent(ctx context.Context, id string, ev models.WebhookEvent) error {
	evJSON, err := json.Marshal(ev)
	if err != nil {
		return errors.E(errors.Internal, "error marshaling webhook event", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE enrollments
		 SET raw_webhook_events = raw_webhook_events || $2::jsonb, updated_at = now()
		 WHERE id = $1
		   AND NOT raw_webhook_events @> jsonb_build_array(jsonb_build_object('id', $3::text))`,
		id, string(evJSON), ev.ID)
	if err != nil {
		return errors.E(errors.Unavailable, "error appending webhook event", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var e models.Enrollment
	err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Amount, &e.Currency, &e.CustomerEmail,
		&e.CustomerContact, &e.RazorpayOrderID, &e.RazorpayPaymentID, &e.PaymentMethod,
		&e.PaymentSignature, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.E(errors.NotFound, "enrollment not found")
	}
	if err != nil {
		return nil, errors.E(errors.Unavailable, "error reading enrollment", err)
	}
	return &e, nil
}
