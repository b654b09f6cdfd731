package pivot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

func wideTable(columns []string, values ...int64) *entities.Table {
	table := entities.NewTable("unfulfilled_orders", columns)
	row := []entities.Cell{entities.Text("W1"), entities.Text("S1"), entities.Text("P1")}
	for _, v := range values {
		row = append(row, entities.Int(v))
	}
	table.AppendRow(row)
	return table
}

func TestCollapseHistory_BothFamilies(t *testing.T) {
	table := wideTable([]string{
		"晶圆品名", "规格", "品名",
		"订单数量_2024-12", "订单数量_2025-01", "订单数量_2025-03",
		"未交订单数量_2024-12", "未交订单数量_2025-01", "未交订单数量_2025-03", "未交订单数量_未知日期",
	}, 1, 2, 4, 8, 16, 32, 64)

	out := CollapseHistory(table, 3, "2025-01", DefaultLabels())

	expected := []string{
		"晶圆品名", "规格", "品名",
		"历史订单数量", "历史未交订单数量",
		"订单数量_2025-03", "未交订单数量_2025-03", "未交订单数量_未知日期",
	}
	if diff := cmp.Diff(expected, out.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	assertDecimal(t, "3", out.Cell(0, "历史订单数量"))
	assertDecimal(t, "24", out.Cell(0, "历史未交订单数量"))
	assertDecimal(t, "4", out.Cell(0, "订单数量_2025-03"))
	assertDecimal(t, "64", out.Cell(0, "未交订单数量_未知日期"))

	// row totals are conserved
	before, after := table.Rows[0], out.Rows[0]
	sum := func(cells []entities.Cell) string {
		total := sumCells(cells, rangeOf(3, len(cells)))
		return total.String()
	}
	assert.Equal(t, sum(before), sum(after))
}

func TestCollapseHistory_OnlyUnfulfilledFamily(t *testing.T) {
	table := wideTable([]string{"晶圆品名", "规格", "品名", "未交订单数量_2025-01", "未交订单数量_2025-02"}, 10, 20)

	out := CollapseHistory(table, 3, "2025-06", DefaultLabels())
	assert.Equal(t, []string{"晶圆品名", "规格", "品名", "历史未交订单数量"}, out.Columns)
	assertDecimal(t, "30", out.Cell(0, "历史未交订单数量"))
}

func TestCollapseHistory_NoOp(t *testing.T) {
	table := wideTable([]string{"晶圆品名", "规格", "品名", "未交订单数量_2025-03"}, 5)

	t.Run("empty_cutoff", func(t *testing.T) {
		assert.Same(t, table, CollapseHistory(table, 3, "", DefaultLabels()))
	})
	t.Run("nothing_before_cutoff", func(t *testing.T) {
		assert.Same(t, table, CollapseHistory(table, 3, "2025-02", DefaultLabels()))
	})
	t.Run("unrelated_measure", func(t *testing.T) {
		other := wideTable([]string{"晶圆品名", "规格", "品名", "未交_2024-01"}, 7)
		out := CollapseHistory(other, 3, "2025-02", DefaultLabels())
		require.Same(t, other, out)
	})
}

func TestCollapseHistory_KeyColumnsUntouched(t *testing.T) {
	// a key column that happens to look like a month column is not folded
	table := entities.NewTable("t", []string{"订单数量_2024-01", "未交订单数量_2024-01"})
	table.AppendRow([]entities.Cell{entities.Text("K"), entities.Int(3)})

	out := CollapseHistory(table, 1, "2025-01", DefaultLabels())
	assert.Equal(t, []string{"订单数量_2024-01", "历史未交订单数量"}, out.Columns)
	assert.Equal(t, "K", out.Rows[0][0].String())
}

func TestCollapseHistory_CustomLabels(t *testing.T) {
	labels := Labels{OrderMarker: "ordered", UnfulfilledMarker: "open", HistoricalOrder: "ordered_hist", HistoricalUnfulfilled: "open_hist"}
	table := wideTable([]string{"w", "s", "p", "ordered_2025-01", "open_2025-01", "open_2025-05"}, 1, 2, 3)

	out := CollapseHistory(table, 3, "2025-01", labels)
	assert.Equal(t, []string{"w", "s", "p", "ordered_hist", "open_hist", "open_2025-05"}, out.Columns)
}

func rangeOf(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
