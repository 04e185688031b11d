package export

import (
	"fmt"
	"time"

	"expertdesk/internal/models"
	"expertdesk/internal/slotengine"

	"github.com/xuri/excelize/v2"
)

var reportColumns = []string{"תאריך", "שעה", "תלמיד", "שכבה", "נושא", "סטטוס", "אסמכתא"}

// MonthReport builds an .xlsx workbook listing an expert's bookings for one
// month. The caller owns the returned file and must Close it.
func MonthReport(expert *models.Expert, bookings []models.ExpertBooking, year int, month time.Month, formatter slotengine.DateFormatter) (*excelize.File, error) {
	file := excelize.NewFile()

	sheet := sheetName(formatter.MonthYear(year, month))
	file.SetSheetName("Sheet1", sheet)

	row := 1
	if err := setRow(file, sheet, row, []any{expert.Name + " / " + expert.Subject}); err != nil {
		file.Close()
		return nil, err
	}
	row++

	if err := setRow(file, sheet, row, toAny(reportColumns)); err != nil {
		file.Close()
		return nil, err
	}
	if style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, row)
		endCell, _ := excelize.CoordinatesToCellName(len(reportColumns), row)
		_ = file.SetCellStyle(sheet, startCell, endCell, style)
	}
	row++

	for _, b := range bookings {
		values := []any{
			formatter.FormatDate(b.Date),
			b.StartTime + "-" + b.EndTime,
			b.StudentName,
			b.StudentGrade,
			b.Topic,
			b.Status,
			b.Ref,
		}
		if err := setRow(file, sheet, row, values); err != nil {
			file.Close()
			return nil, err
		}
		row++
	}

	return file, nil
}

func setRow(file *excelize.File, sheet string, row int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// sheetName truncates to the 31-char Excel sheet name limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
