package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"Date", "Status", "Clock In", "Clock Out", "Hours Worked", "Working From"}

func exportRow(d DayRow, loc *time.Location) []string {
	status := d.Status
	if d.IsLate {
		status += " (Late)"
	}
	return []string{
		d.Date.Format("2006-01-02"),
		status,
		clockText(d.ClockIn, loc),
		clockText(d.ClockOut, loc),
		strconv.FormatFloat(d.HoursWorked, 'f', 2, 64),
		d.WorkingFrom,
	}
}

func clockText(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04")
}

func (p Policy) WriteCSV(w io.Writer, report MonthReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, d := range report.Days {
		if err := cw.Write(exportRow(d, p.location())); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (p Policy) WriteXLSX(w io.Writer, report MonthReport, employeeName string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(sheet); err == nil {
		f.SetActiveSheet(idx)
	}

	title := fmt.Sprintf("%s - %s", employeeName, report.Month)
	titleCell, _ := excelize.CoordinatesToCellName(1, 1)
	_ = f.SetCellValue(sheet, titleCell, title)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	lateStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#9C5700"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
	})

	for i, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	loc := p.location()
	for r, d := range report.Days {
		rowNum := r + 4
		values := exportRow(d, loc)
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, rowNum)
			if c == 4 {
				_ = f.SetCellValue(sheet, cell, d.HoursWorked)
				continue
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
		if d.IsLate {
			first, _ := excelize.CoordinatesToCellName(1, rowNum)
			last, _ := excelize.CoordinatesToCellName(len(exportHeader), rowNum)
			_ = f.SetCellStyle(sheet, first, last, lateStyle)
		}
	}

	summaryRow := len(report.Days) + 5
	summary := [][2]any{
		{"Working days", report.Summary.TotalDays},
		{"Present", report.Summary.PresentDays},
		{"Absent", report.Summary.AbsentDays},
		{"Late arrivals", report.Summary.LateArrivals},
		{"Total hours", report.Summary.TotalHours},
		{"Attendance %", report.Summary.AttendancePercent},
	}
	for i, kv := range summary {
		label, _ := excelize.CoordinatesToCellName(1, summaryRow+i)
		value, _ := excelize.CoordinatesToCellName(2, summaryRow+i)
		_ = f.SetCellValue(sheet, label, kv[0])
		_ = f.SetCellValue(sheet, value, kv[1])
	}

	lastCol, _ := excelize.ColumnNumberToName(len(exportHeader))
	_ = f.SetColWidth(sheet, "A", lastCol, 16)

	_, err := f.WriteTo(w)
	return err
}

func (p Policy) WritePDF(w io.Writer, report MonthReport, employeeName string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Attendance Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", employeeName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Month: %s", report.Month))
	pdf.Ln(10)

	widths := []float64{28, 36, 24, 24, 30, 38}
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range exportHeader {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	loc := p.location()
	for _, d := range report.Days {
		for i, v := range exportRow(d, loc) {
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	s := report.Summary
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Present %d of %d working days (%.2f%%)", s.PresentDays, s.TotalDays, s.AttendancePercent))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Late arrivals: %d", s.LateArrivals))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Total hours: %.2f", s.TotalHours))

	return pdf.Output(w)
}
