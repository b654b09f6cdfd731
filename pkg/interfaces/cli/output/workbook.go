package output

import (
	"fmt"
	"math"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vsinha/opsreport/pkg/application/dto"
	"github.com/vsinha/opsreport/pkg/application/services/pivot"
	"github.com/vsinha/opsreport/pkg/application/services/summary"
	"github.com/vsinha/opsreport/pkg/domain/entities"
	"github.com/vsinha/opsreport/pkg/domain/services"
)

// Row fills
const (
	UnmatchedFill = "FF9999"
	MappedFill    = "FFE699"
)

const (
	defaultSheet  = "Sheet1"
	maxColWidth   = 50.0
	maxSheetRunes = 31
)

// WorkbookWriter writes report sheets into one xlsx workbook
type WorkbookWriter struct {
	logger *zap.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *zap.Logger) *WorkbookWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkbookWriter{logger: logger}
}

type workbookStyles struct {
	band      int
	unmatched int
	mapped    int
}

// Write saves every sheet of the result to path in result order. Rows whose
// key found no anchor are filled red, remapped rows yellow. The summary
// carries a merged band row above its header.
func (w *WorkbookWriter) Write(result *dto.ReportResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	names := sheetNames(result.Sheets)
	keepDefault := false
	for i, sheet := range result.Sheets {
		if names[i] == defaultSheet {
			keepDefault = true
		}
		if _, err := f.NewSheet(names[i]); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", names[i], err)
		}
		if err := w.writeSheet(f, names[i], sheet, styles); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", names[i], err)
		}
	}
	if len(result.Sheets) > 0 && !keepDefault {
		f.DeleteSheet(defaultSheet)
		f.SetActiveSheet(0)
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Workbook written",
		zap.String("path", path),
		zap.Int("sheets", len(result.Sheets)))
	return nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error

	s.band, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return s, err
	}
	s.unmatched, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{UnmatchedFill}, Pattern: 1},
	})
	if err != nil {
		return s, err
	}
	s.mapped, err = f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{MappedFill}, Pattern: 1},
	})
	return s, err
}

func (w *WorkbookWriter) writeSheet(f *excelize.File, name string, sheet dto.Sheet, styles workbookStyles) error {
	table := sheet.Table
	if table == nil || len(table.Columns) == 0 {
		return nil
	}

	headerRow := 1
	if sheet.Kind == dto.SummarySheet {
		headerRow = 2
		if err := writeBands(f, name, table, sheet.Bands, styles.band); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := setRow(f, name, headerRow, header); err != nil {
		return err
	}
	for i, row := range table.Rows {
		values := make([]interface{}, len(row))
		for j, cell := range row {
			values[j] = cell.Value()
		}
		if err := setRow(f, name, headerRow+1+i, values); err != nil {
			return err
		}
	}

	if err := w.highlight(f, name, sheet, headerRow, styles); err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(table.Columns))
	if err != nil {
		return err
	}
	ref := fmt.Sprintf("A%d:%s%d", headerRow, last, headerRow+table.Len())
	if err := f.AutoFilter(name, ref, nil); err != nil {
		return fmt.Errorf("autofilter %s: %w", ref, err)
	}

	return setColumnWidths(f, name, table)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// writeBands writes each band label over its columns on row 1
func writeBands(f *excelize.File, sheet string, table *entities.Table, bands []summary.Band, style int) error {
	for _, band := range bands {
		first, last := -1, -1
		for _, col := range band.Columns {
			pos := table.ColumnIndex(col)
			if pos < 0 {
				continue
			}
			if first < 0 || pos < first {
				first = pos
			}
			if pos > last {
				last = pos
			}
		}
		if first < 0 {
			continue
		}
		start, err := excelize.CoordinatesToCellName(first+1, 1)
		if err != nil {
			return err
		}
		end, err := excelize.CoordinatesToCellName(last+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, start, band.Label); err != nil {
			return err
		}
		if last > first {
			if err := f.MergeCell(sheet, start, end); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(sheet, start, end, style); err != nil {
			return err
		}
	}
	return nil
}

// highlight fills rows whose key is unmatched or was remapped
func (w *WorkbookWriter) highlight(f *excelize.File, name string, sheet dto.Sheet, headerRow int, styles workbookStyles) error {
	if sheet.KeyFields.IsZero() || (sheet.Unmatched.Len() == 0 && sheet.Mapped.Len() == 0) {
		return nil
	}
	resolver, err := services.NewKeyResolver(sheet.Table, sheet.KeyFields)
	if err != nil {
		w.logger.Warn("Rows not highlighted, key columns missing",
			zap.String("sheet", name),
			zap.Error(err))
		return nil
	}

	marked := 0
	for i, row := range sheet.Table.Rows {
		key := resolver.Key(row)
		var style int
		switch {
		case sheet.Unmatched.Contains(key):
			style = styles.unmatched
		case sheet.Mapped.Contains(key):
			style = styles.mapped
		default:
			continue
		}
		r := headerRow + 1 + i
		start, _ := excelize.CoordinatesToCellName(1, r)
		end, _ := excelize.CoordinatesToCellName(len(sheet.Table.Columns), r)
		if err := f.SetCellStyle(name, start, end, style); err != nil {
			return err
		}
		marked++
	}
	w.logger.Debug("Rows highlighted", zap.String("sheet", name), zap.Int("rows", marked))
	return nil
}

// setColumnWidths sizes each column to its widest value, capped
func setColumnWidths(f *excelize.File, sheet string, table *entities.Table) error {
	for pos, col := range table.Columns {
		widest := runewidth.StringWidth(col)
		for _, row := range table.Rows {
			if n := runewidth.StringWidth(row[pos].String()); n > widest {
				widest = n
			}
		}
		name, err := excelize.ColumnNumberToName(pos + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, ColumnWidth(widest)); err != nil {
			return err
		}
	}
	return nil
}

// ColumnWidth converts a display width to an Excel column width
func ColumnWidth(displayWidth int) float64 {
	return math.Min(float64(displayWidth)*1.2+7, maxColWidth)
}

// sheetNames truncates names to the Excel limit and disambiguates repeats
func sheetNames(sheets []dto.Sheet) []string {
	names := make([]string, len(sheets))
	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = s.Source
		}
		if r := []rune(name); len(r) > maxSheetRunes {
			name = string(r[:maxSheetRunes])
		}
		names[i] = name
	}
	return pivot.UniqueColumnNames(names)
}
