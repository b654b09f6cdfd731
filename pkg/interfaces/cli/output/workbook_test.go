package output

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vsinha/opsreport/pkg/application/dto"
	"github.com/vsinha/opsreport/pkg/application/services/summary"
	"github.com/vsinha/opsreport/pkg/domain/entities"
)

var (
	keyA = entities.CompositeKey{Wafer: "W1", Spec: "S1", Part: "P1"}
	keyB = entities.CompositeKey{Wafer: "W2", Spec: "S2", Part: "P2"}
	keyC = entities.CompositeKey{Wafer: "W3", Spec: "S3", Part: "P3"}
)

func keyTable(name string, extra []string, rows ...[]entities.Cell) *entities.Table {
	table := entities.NewTable(name, append([]string{"晶圆品名", "规格", "品名"}, extra...))
	for _, r := range rows {
		table.AppendRow(r)
	}
	return table
}

func keyRow(k entities.CompositeKey, values ...int64) []entities.Cell {
	row := []entities.Cell{entities.Text(k.Wafer), entities.Text(k.Spec), entities.Text(k.Part)}
	for _, v := range values {
		row = append(row, entities.Int(v))
	}
	return row
}

func sampleResult() *dto.ReportResult {
	fields := entities.IdentityColumns
	pivotTable := keyTable("unfulfilled_orders", []string{"未交订单数量_2025-03"},
		keyRow(keyA, 5), keyRow(keyB, 3), keyRow(keyC, 1))
	summaryTable := keyTable("汇总", []string{"InvWaf", "InvPart", summary.TotalUnfulfilledColumn},
		keyRow(keyA, 1, 2, 5), keyRow(keyB, 0, 0, 3))

	return &dto.ReportResult{
		RunID: "0123456789abcdef",
		Sheets: []dto.Sheet{
			{
				Name: "赛卓-未交订单", Source: entities.SourceUnfulfilledOrders, Kind: dto.PivotSheet,
				Table: pivotTable, KeyFields: fields,
				Unmatched: entities.NewKeySet(keyC),
				Mapped:    entities.NewKeySet(keyB),
			},
			{
				Name: "汇总", Source: entities.SourceUnfulfilledOrders, Kind: dto.SummarySheet,
				Table: summaryTable, KeyFields: fields,
				Bands: []summary.Band{
					{Label: summary.BandSafety, Columns: []string{"InvWaf", "InvPart"}},
					{Label: summary.BandUnfulfilled, Columns: []string{summary.TotalUnfulfilledColumn}},
				},
			},
		},
		Sources: []dto.SourceStatus{
			{Source: entities.SourceUnfulfilledOrders, Status: dto.StatusLoaded, Rows: 3},
			{Source: entities.SourceCPWIP, Status: dto.StatusFailed, Error: "corrupt workbook"},
		},
		Mapped: map[string]*entities.KeySet{entities.SourceUnfulfilledOrders: entities.NewKeySet(keyB)},
	}
}

func TestWorkbookWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	require.NoError(t, NewWorkbookWriter(nil).Write(sampleResult(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"赛卓-未交订单", "汇总"}, f.GetSheetList())

	rows, err := f.GetRows("赛卓-未交订单")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"晶圆品名", "规格", "品名", "未交订单数量_2025-03"}, rows[0])
	assert.Equal(t, []string{"W1", "S1", "P1", "5"}, rows[1])

	plain, err := f.GetCellStyle("赛卓-未交订单", "A2")
	require.NoError(t, err)
	mapped, err := f.GetCellStyle("赛卓-未交订单", "D3")
	require.NoError(t, err)
	unmatched, err := f.GetCellStyle("赛卓-未交订单", "A4")
	require.NoError(t, err)
	assert.NotEqual(t, plain, mapped)
	assert.NotEqual(t, plain, unmatched)
	assert.NotEqual(t, mapped, unmatched)
}

func TestWorkbookWriter_SummaryBands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewWorkbookWriter(nil).Write(sampleResult(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("汇总")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"晶圆品名", "规格", "品名", "InvWaf", "InvPart", summary.TotalUnfulfilledColumn}, rows[1])

	label, err := f.GetCellValue("汇总", "D1")
	require.NoError(t, err)
	assert.Equal(t, summary.BandSafety, label)
	label, err = f.GetCellValue("汇总", "F1")
	require.NoError(t, err)
	assert.Equal(t, summary.BandUnfulfilled, label)

	merged, err := f.GetMergeCells("汇总")
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, "D1", merged[0].GetStartAxis())
	assert.Equal(t, "E1", merged[0].GetEndAxis())
}

func TestColumnWidth(t *testing.T) {
	assert.InDelta(t, 19.0, ColumnWidth(10), 1e-9)
	assert.InDelta(t, 50.0, ColumnWidth(100), 1e-9)
}

func TestSheetNames(t *testing.T) {
	names := sheetNames([]dto.Sheet{
		{Name: "a"},
		{Name: "a"},
		{Source: "forecast"},
		{Name: "abcdefghijklmnopqrstuvwxyz0123456789"},
	})
	assert.Equal(t, []string{"a", "a.1", "forecast", "abcdefghijklmnopqrstuvwxyz01234"}, names)
}

func TestGenerate_JSON(t *testing.T) {
	var out bytes.Buffer
	err := Generate(sampleResult(), Config{Format: "json", Stdout: &out}, nil)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "0123456789abcdef", decoded["run_id"])
	assert.Len(t, decoded["sheets"], 2)
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	err := Generate(sampleResult(), Config{Format: "csv", Path: "x.csv", Stdout: &bytes.Buffer{}}, nil)
	require.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var out bytes.Buffer
	PrintReport(&out, sampleResult(), Config{Path: "report.xlsx"})

	text := out.String()
	assert.Contains(t, text, "01234567")
	assert.Contains(t, text, entities.SourceUnfulfilledOrders)
	assert.Contains(t, text, "✗ cp_wip: corrupt workbook")
	assert.Contains(t, text, "✓ 2 sheets written to report.xlsx")
}

func TestRenderTable_AlignsWideRunes(t *testing.T) {
	table := renderTable([]string{"名称", "n"}, [][]string{{"赛卓", "1"}, {"ab", "22"}})
	lines := bytes.Split([]byte(table), []byte("\n"))
	assert.Equal(t, "名称  n ", string(lines[0]))
	assert.Equal(t, "赛卓  1 ", string(lines[2]))
	assert.Equal(t, "ab    22", string(lines[3]))
}
