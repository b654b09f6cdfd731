package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestLoader_CSV_UTF8WithBOM(t *testing.T) {
	dir := t.TempDir()
	content := "\xEF\xBB\xBF晶圆品名, 规格 ,品名,未交订单数量\nW1,S1,00123,5\n,,,\nW2,S2,P2,\n"
	path := writeFile(t, dir, "orders.csv", []byte(content))

	table, err := NewLoader(Options{}, nil).Load(entities.SourceUnfulfilledOrders, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"晶圆品名", "规格", "品名", "未交订单数量"}, table.Columns)
	require.Equal(t, 2, table.Len(), "blank rows are dropped")
	assert.Equal(t, "00123", table.Cell(0, "品名").String())
	assert.True(t, table.Cell(0, "未交订单数量").IsNumber())
	assert.True(t, table.Cell(1, "未交订单数量").IsEmpty())
}

func TestLoader_CSV_GBK(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("仓库名称,数量\n成品仓,3\n")
	require.NoError(t, err)

	for _, encoding := range []string{EncodingAuto, EncodingGBK} {
		t.Run(encoding, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "stock.csv", []byte(encoded))

			table, err := NewLoader(Options{Encoding: encoding}, nil).Load("finished_inventory", path)
			require.NoError(t, err)
			assert.Equal(t, []string{"仓库名称", "数量"}, table.Columns)
			assert.Equal(t, "成品仓", table.Cell(0, "仓库名称").String())
		})
	}
}

func TestLoader_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"晶圆品名", "", "预交货日", "未交订单数量"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"W1", "x", 45689, 12.5}))
	path := filepath.Join(t.TempDir(), "赛卓-未交订单.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewLoader(Options{}, nil).Load(entities.SourceUnfulfilledOrders, path)
	require.NoError(t, err)

	assert.Equal(t, []string{"晶圆品名", "Unnamed: 1", "预交货日", "未交订单数量"}, table.Columns)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, "45689", table.Cell(0, "预交货日").String())
	d, ok := table.Cell(0, "未交订单数量").Decimal()
	require.True(t, ok)
	assert.Equal(t, "12.5", d.String())
}

func TestLoader_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", []byte("x"))

	_, err := NewLoader(Options{}, nil).Load("notes", path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(Options{}, nil).Load("orders", filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "赛卓-未交订单.xlsx", nil)
	writeFile(t, dir, "forecast.csv", nil)
	writeFile(t, dir, "~$赛卓-未交订单.xlsx", nil)
	writeFile(t, dir, "readme.md", nil)
	writeFile(t, dir, "misc.xlsx", nil)
	writeFile(t, dir, "weijiaodindan.csv", nil)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0755))

	aliases := map[string][]string{
		entities.SourceUnfulfilledOrders: {"赛卓-未交订单.xlsx", "weijiaodindan.xlsx"},
		entities.SourceForecast:          {"赛卓-预测.xlsx"},
	}

	d, err := Discover(dir, aliases)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		entities.SourceUnfulfilledOrders: filepath.Join(dir, "weijiaodindan.csv"),
		entities.SourceForecast:          filepath.Join(dir, "forecast.csv"),
	}, d.Sources)
	assert.Equal(t, []string{filepath.Join(dir, "misc.xlsx")}, d.Unconfigured)
	assert.Equal(t, []string{filepath.Join(dir, "赛卓-未交订单.xlsx")}, d.Duplicates)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"), nil)
	assert.Error(t, err)
}
