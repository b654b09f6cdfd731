package extract

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the raw cell values of the first sheet. Dates come back as
// serial day numbers.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}
