package services

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"eduplatform/models"
)

// WriteReceipt writes a payment receipt PDF for a paid enrollment to w.
func WriteReceipt(w io.Writer, e *models.Enrollment, courseName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(40, 10, fmt.Sprintf("Receipt for enrollment %s", e.ID))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Course: %s", courseName))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Billed to: %s", e.CustomerEmail))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Amount: %.2f %s", float64(e.Amount)/100, e.Currency))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Order ID: %s", e.RazorpayOrderID))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Payment ID: %s", e.RazorpayPaymentID))
	pdf.Ln(10)
	pdf.Cell(40, 10, fmt.Sprintf("Date: %s", e.UpdatedAt.Format("January 2, 2006")))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error generating receipt PDF: %w", err)
	}
	return nil
}
