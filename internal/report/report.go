// Package report renders the administrator booking report as PDF or XLSX.
package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/turf-booking/internal/model"
)

// Attachment names and content types served by the admin endpoints.
const (
	PDFFilename    = "booking_report.pdf"
	ExcelFilename  = "booking_report.xlsx"
	PDFContentType = "application/pdf"
	// ExcelContentType is the OOXML spreadsheet MIME type.
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const (
	pdfTitle   = "Turf Booking Report"
	excelSheet = "Bookings Report"
)

type column struct {
	title string
	width float64 // mm in the PDF
}

var pdfColumns = []column{
	{"User", 40},
	{"Turf Name", 50},
	{"Booking Time", 50},
	{"Status", 20},
	{"Amount Paid", 30},
}

var excelHeader = []interface{}{"Username", "Turf Name", "Booking Time", "Status", "Amount Paid (Rs)"}

// WritePDF writes rows as an A4 table with a title header and a page
// number footer on every page.
func WritePDF(w io.Writer, rows []model.ReportRow) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, pdfTitle, "", 1, "C", false, 0, "")
		pdf.Ln(2)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 10)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 10, c.title, "1", 0, "", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, r := range rows {
		cells := []string{
			tr(r.Username),
			tr(r.TurfName),
			r.BookingTime.UTC().Format(model.SlotLayout),
			r.Status,
			"Rs." + r.AmountPaid.StringFixed(2),
		}
		for i, c := range pdfColumns {
			pdf.CellFormat(c.width, 10, cells[i], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: render pdf: %w", err)
	}
	return nil
}

// WriteExcel writes rows to a single-sheet workbook with a bold header
// row.  Amounts are stored as numbers.
func WriteExcel(w io.Writer, rows []model.ReportRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(excelSheet, "A1", &excelHeader); err != nil {
		return fmt.Errorf("report: header row: %w", err)
	}
	if bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(excelSheet, "A1", "E1", bold)
	}
	_ = f.SetColWidth(excelSheet, "A", "E", 20)

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("report: cell name: %w", err)
		}
		amount, _ := r.AmountPaid.Round(2).Float64()
		values := []interface{}{
			r.Username,
			r.TurfName,
			r.BookingTime.UTC().Format(model.SlotLayout),
			r.Status,
			amount,
		}
		if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
			return fmt.Errorf("report: row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: write xlsx: %w", err)
	}
	return nil
}
