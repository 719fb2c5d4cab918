package http

import (
	"net/http"

	"eduplatform/http/handlers"
	"eduplatform/http/middleware"
)

// SetupRoutes registers all HTTP routes on mux with CORS applied.
func SetupRoutes(mux *http.ServeMux, allowedOrigin string,
	payments *handlers.PaymentHandler,
	enrollments *handlers.EnrollmentHandler,
	health *handlers.HealthHandler) {

	cors := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.EnableCORS(allowedOrigin, h)
	}

	// Payment APIs
	mux.HandleFunc("/api/payment/order", cors(payments.CreateOrder))
	mux.HandleFunc("/api/payment/verify", cors(payments.Verify))
	// The webhook is provider-to-server; no CORS wrapper.
	mux.HandleFunc("/api/payment/webhook", payments.Webhook)

	// Enrollment APIs
	mux.HandleFunc("/api/enrollments", cors(enrollments.List))
	mux.HandleFunc("/api/enrollments/export", cors(enrollments.Export))
	mux.HandleFunc("/api/enrollments/receipt", cors(enrollments.Receipt))

	mux.HandleFunc("/api/health", cors(health.Health))
}
