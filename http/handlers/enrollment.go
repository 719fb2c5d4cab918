package handlers

import (
	"net/http"

	"eduplatform/http/response"
	"eduplatform/models"
	"eduplatform/services"
	"eduplatform/store"
)

// EnrollmentHandler exposes enrollment lookup, report export and
// receipt download.
type EnrollmentHandler struct {
	enrollments store.EnrollmentStore
	courses     store.CourseStore
}

func NewEnrollmentHandler(enrollments store.EnrollmentStore, courses store.CourseStore) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, courses: courses}
}

// List handles GET /api/enrollments?user_id=&course_id=.
func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	courseID := r.URL.Query().Get("course_id")

	enrollments, err := h.enrollments.List(r.Context(), userID, courseID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}

	response.SendJSON(w, http.StatusOK, map[string]interface{}{"enrollments": enrollments})
}

// Export handles GET /api/enrollments/export, streaming an Excel
// report of all enrollments.
func (h *EnrollmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	enrollments, err := h.enrollments.List(r.Context(), "", "")
	if err != nil {
		response.FromError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="enrollments.xlsx"`)
	if err := services.WriteEnrollmentReport(w, enrollments); err != nil {
		// Headers are already out; nothing more to send.
		return
	}
}

// Receipt handles GET /api/enrollments/receipt?enrollment_id=,
// returning a PDF receipt for a paid enrollment.
func (h *EnrollmentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := r.URL.Query().Get("enrollment_id")
	if id == "" {
		response.Error(w, http.StatusBadRequest, "enrollment_id is required")
		return
	}

	enrollment, err := h.enrollments.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if enrollment.Status != models.EnrollmentStatusPaid {
		response.Error(w, http.StatusBadRequest, "Receipt is only available for paid enrollments")
		return
	}

	courseName := enrollment.CourseID
	if course, err := h.courses.GetCourse(r.Context(), enrollment.CourseID); err == nil {
		courseName = course.Name
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="receipt_`+enrollment.ID+`.pdf"`)
	if err := services.WriteReceipt(w, enrollment, courseName); err != nil {
		return
	}
}
