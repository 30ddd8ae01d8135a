// Package export renders reset snapshots as spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"presusimple/internal/models"
)

// Supported formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const sheetName = "Reset"

var header = []string{"Section", "Category", "Budgeted", "Spent", "Remaining"}

// ContentType returns the MIME type for format, or "" when unsupported.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	}
	return ""
}

// Filename names the download for a snapshot.
func Filename(s *models.ResetSnapshot, format string) string {
	return fmt.Sprintf("reset_%04d-%02d.%s", s.Year, s.Month, format)
}

// Write renders s in format to w.
func Write(w io.Writer, s *models.ResetSnapshot, format string) error {
	switch format {
	case FormatXLSX:
		return writeXLSX(w, s)
	case FormatCSV:
		return writeCSV(w, s)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func writeCSV(w io.Writer, s *models.ResetSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, c := range s.Categories {
		if err := cw.Write([]string{
			c.Section,
			c.Name,
			c.Budgeted.StringFixed(2),
			c.Spent.StringFixed(2),
			c.Budgeted.Sub(c.Spent).StringFixed(2),
		}); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{
		"Total",
		strconv.Itoa(s.ExpenseCount) + " entries",
		s.TotalBudgeted.StringFixed(2),
		s.TotalSpent.StringFixed(2),
		s.TotalAvailable.StringFixed(2),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, s *models.ResetSnapshot) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	moneyFormat := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		CustomNumFmt: &moneyFormat,
	})
	if err != nil {
		return err
	}

	_ = f.SetColWidth(sheetName, "A", "B", 24)
	_ = f.SetColWidth(sheetName, "C", "E", 14)

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, c := range s.Categories {
		budgeted, _ := c.Budgeted.Float64()
		spent, _ := c.Spent.Float64()
		values := []interface{}{c.Section, c.Name, budgeted, spent}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
		if err := f.SetCellFormula(sheetName, fmt.Sprintf("E%d", row), fmt.Sprintf("C%d-D%d", row, row)); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, fmt.Sprintf("C%d", row), fmt.Sprintf("E%d", row), moneyStyle); err != nil {
			return err
		}
		row++
	}

	totalBudgeted, _ := s.TotalBudgeted.Float64()
	totalSpent, _ := s.TotalSpent.Float64()
	totalAvailable, _ := s.TotalAvailable.Float64()
	totals := []interface{}{"Total", fmt.Sprintf("%d entries", s.ExpenseCount), totalBudgeted, totalSpent, totalAvailable}
	for i, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), totalStyle); err != nil {
		return err
	}

	return f.Write(w)
}
