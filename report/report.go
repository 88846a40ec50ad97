// Package report renders the container payout report, one row per worker
// line, as CSV or as an Excel workbook.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"precisionpulse/models"

	"github.com/xuri/excelize/v2"
)

var Header = []string{
	"Work Date",
	"Building",
	"Shift",
	"Container",
	"Pieces",
	"SKUs",
	"Palletized",
	"Container Pay",
	"Worker",
	"Minutes",
	"Percent",
	"Payout",
}

// Rows flattens containers into report rows. A container without worker
// lines still gets one row so its pay shows up.
func Rows(containers []models.Container) [][]string {
	rows := make([][]string, 0, len(containers))
	for i := range containers {
		c := &containers[i]
		base := []string{
			c.WorkDate,
			string(c.Building),
			string(c.Shift),
			c.ContainerNumber,
			strconv.Itoa(c.PiecesTotal),
			strconv.Itoa(c.SkusTotal),
			yesNo(c.Palletized),
			c.PayTotal.StringFixed(2),
		}
		lines := c.WorkerLines()
		if len(lines) == 0 {
			rows = append(rows, append(base, "", "", "", ""))
			continue
		}
		for _, w := range lines {
			row := append([]string{}, base...)
			rows = append(rows, append(row,
				w.Name,
				strconv.Itoa(w.MinutesWorked),
				w.PercentContribution.StringFixed(2),
				w.Payout.StringFixed(2),
			))
		}
	}
	return rows
}

func WriteCSV(w io.Writer, containers []models.Container) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	if err := writer.WriteAll(Rows(containers)); err != nil {
		return err
	}
	return writer.Error()
}

// numericColumns are written as numbers so the workbook sums them.
var numericColumns = map[int]bool{4: true, 5: true, 7: true, 9: true, 10: true, 11: true}

func XLSX(containers []models.Container) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Container Payouts"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "A", "L", 14); err != nil {
		return nil, err
	}

	for r, row := range Rows(containers) {
		for c, value := range row {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			var v any = value
			if numericColumns[c] {
				if n, err := strconv.ParseFloat(value, 64); err == nil {
					v = n
				}
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
