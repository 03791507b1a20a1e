package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteTrialBalanceExcel renders the trial balance rows to an XLSX workbook.
// Header rows are written without amounts indentation; account rows are
// indented one level.
func WriteTrialBalanceExcel(w io.Writer, rows []*TrialBalanceRow) error {

	f := excelize.NewFile()
	sheetName := "TrialBalance"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", "Code")
	f.SetCellValue(sheetName, "B1", "Name")
	f.SetCellValue(sheetName, "C1", "Debit")
	f.SetCellValue(sheetName, "D1", "Credit")

	for i, row := range rows {
		rowNo := i + 2
		name := row.Name
		if !row.IsSubgroup {
			name = strings.Repeat("    ", row.Level) + name
		}
		f.SetCellValue(sheetName, "A"+fmt.Sprint(rowNo), row.Code)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(rowNo), name)
		f.SetCellValue(sheetName, "C"+fmt.Sprint(rowNo), row.Debit.InexactFloat64())
		f.SetCellValue(sheetName, "D"+fmt.Sprint(rowNo), row.Credit.InexactFloat64())
	}

	return f.Write(w)
}
