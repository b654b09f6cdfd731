package pivot

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

var monthSuffix = regexp.MustCompile(`_(\d{4}-\d{2})$`)

// CollapseHistory folds every order / unfulfilled-order bucket column up to and
// including cutoff into one historical column per family. The new columns sit
// right after the key columns; later months are left as they are.
func CollapseHistory(table *entities.Table, keyCount int, cutoff string, labels Labels) *entities.Table {
	if cutoff == "" {
		return table
	}
	labels = labels.WithDefaults()

	var orderCols, pendingCols []int
	consumed := make(map[int]bool)

	for pos := keyCount; pos < len(table.Columns); pos++ {
		col := table.Columns[pos]
		loc := monthSuffix.FindStringSubmatchIndex(col)
		if loc == nil {
			continue
		}
		month := col[loc[2]:loc[3]]
		if month > cutoff {
			continue
		}
		base := col[:loc[0]]
		switch {
		case strings.Contains(base, labels.UnfulfilledMarker):
			pendingCols = append(pendingCols, pos)
		case strings.Contains(base, labels.OrderMarker):
			orderCols = append(orderCols, pos)
		default:
			continue
		}
		consumed[pos] = true
	}

	if len(consumed) == 0 {
		return table
	}

	columns := append([]string{}, table.Columns[:keyCount]...)
	if len(orderCols) > 0 {
		columns = append(columns, labels.HistoricalOrder)
	}
	if len(pendingCols) > 0 {
		columns = append(columns, labels.HistoricalUnfulfilled)
	}
	var kept []int
	for pos := keyCount; pos < len(table.Columns); pos++ {
		if !consumed[pos] {
			kept = append(kept, pos)
			columns = append(columns, table.Columns[pos])
		}
	}

	out := entities.NewTable(table.Name, UniqueColumnNames(columns))
	for _, row := range table.Rows {
		cells := append([]entities.Cell{}, row[:keyCount]...)
		if len(orderCols) > 0 {
			cells = append(cells, entities.Number(sumCells(row, orderCols)))
		}
		if len(pendingCols) > 0 {
			cells = append(cells, entities.Number(sumCells(row, pendingCols)))
		}
		for _, pos := range kept {
			cells = append(cells, row[pos])
		}
		out.AppendRow(cells)
	}
	return out
}

func sumCells(row []entities.Cell, positions []int) decimal.Decimal {
	total := decimal.Zero
	for _, pos := range positions {
		total = total.Add(row[pos].DecimalOrZero())
	}
	return total
}
