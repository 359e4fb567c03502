package http

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/lassnet/powerdash/internal/domain/energy"
)

const (
	formatXLSX = "xlsx"
	formatCSV  = "csv"

	exportTimeLayout = "2006-01-02 15:04:05"
)

func exportHeader(table energy.WideTable) []string {
	return append([]string{"datetime"}, table.Columns...)
}

// encodeXLSX renders the table on a single sheet named after the feed.
// Missing cells are left blank.
func encodeXLSX(sheet string, table energy.WideTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheet)

	for i, name := range exportHeader(table) {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}
	for r, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, row.Timestamp.Format(exportTimeLayout)); err != nil {
			return nil, err
		}
		for c, col := range table.Columns {
			v, ok := row.Values[col]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+2, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCSV(table energy.WideTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader(table)); err != nil {
		return nil, err
	}
	for _, row := range table.Rows {
		record := make([]string, 0, len(table.Columns)+1)
		record = append(record, row.Timestamp.Format(exportTimeLayout))
		for _, col := range table.Columns {
			if v, ok := row.Values[col]; ok {
				record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
