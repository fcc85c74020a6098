package recurring

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportWorkbook renders detected series and any missed payments as an XLSX
// workbook with one sheet per section.
func ExportWorkbook(series []Series, missed []MissedPayment) (*excelize.File, error) {
	f := excelize.NewFile()

	const seriesSheet = "Recurring Series"
	if err := f.SetSheetName("Sheet1", seriesSheet); err != nil {
		return nil, fmt.Errorf("rename series sheet: %w", err)
	}

	seriesHeaders := []string{
		"Merchant", "Type", "Frequency", "Average Amount", "Amount Variation",
		"Confidence", "Next Due", "Last Observed", "Occurrences", "Reason",
	}
	if err := writeHeader(f, seriesSheet, seriesHeaders); err != nil {
		return nil, err
	}
	for i, s := range series {
		row := i + 2
		cells := []interface{}{
			s.MerchantKey,
			string(s.MerchantType),
			string(s.Frequency),
			s.AverageAmount.StringFixed(2),
			fmt.Sprintf("%.1f%%", s.AmountVariation*100),
			fmt.Sprintf("%.2f", s.Confidence),
			formatDate(s.NextDueDate),
			formatDate(s.LastObserved),
			s.Occurrences,
			s.DetectionReason,
		}
		if err := writeRow(f, seriesSheet, row, cells); err != nil {
			return nil, err
		}
	}

	const missedSheet = "Missed Payments"
	if _, err := f.NewSheet(missedSheet); err != nil {
		return nil, fmt.Errorf("create missed sheet: %w", err)
	}
	missedHeaders := []string{"Merchant", "Expected Amount", "Due Date", "Days Past Due", "Urgency"}
	if err := writeHeader(f, missedSheet, missedHeaders); err != nil {
		return nil, err
	}
	for i, m := range missed {
		row := i + 2
		cells := []interface{}{
			m.Series.MerchantKey,
			m.Series.AverageAmount.StringFixed(2),
			formatDate(m.Series.NextDueDate),
			m.DaysPastDue,
			strings.ToUpper(string(m.Urgency)),
		}
		if err := writeRow(f, missedSheet, row, cells); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell for %s: %w", sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %q on %s: %w", h, sheet, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	for i, v := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name row %d on %s: %w", row, sheet, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write cell %s on %s: %w", cell, sheet, err)
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
