package services

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"eduplatform/models"
)

var enrollmentReportHeaders = []string{
	"Enrollment ID", "User ID", "Course ID", "Amount", "Currency",
	"Customer Email", "Order ID", "Payment ID", "Status", "Created At",
}

// WriteEnrollmentReport writes an Excel workbook listing the given
// enrollments to w. Amounts are reported in major currency units.
func WriteEnrollmentReport(w io.Writer, enrollments []models.Enrollment) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Enrollments"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range enrollmentReportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, e := range enrollments {
		values := []interface{}{
			e.ID,
			e.UserID,
			e.CourseID,
			float64(e.Amount) / 100,
			e.Currency,
			e.CustomerEmail,
			e.RazorpayOrderID,
			e.RazorpayPaymentID,
			e.Status,
			e.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
