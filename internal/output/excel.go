package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/franz/suno-archive/internal/song"
)

const sheetName = "Songs"

// maxCellLength is Excel's per-cell character limit.
const maxCellLength = 32767

// WriteExcel writes the CSV columns to a single styled sheet.
func WriteExcel(path string, records []song.Record) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), sheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(CSVHeader))
	for i, h := range CSVHeader {
		header[i] = h
	}
	if err := file.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	style, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(CSVHeader))
	if err != nil {
		return err
	}
	if err := file.SetCellStyle(sheetName, "A1", lastCol+"1", style); err != nil {
		return err
	}

	for i, r := range records {
		cells := Row(i+1, r)
		row := make([]interface{}, len(cells))
		for j, v := range cells {
			if len(v) > maxCellLength {
				v = v[:maxCellLength]
			}
			row[j] = v
		}
		row[0] = i + 1
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := file.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := file.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(records)+1), nil); err != nil {
		return err
	}

	return file.SaveAs(path)
}
