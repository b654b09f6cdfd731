package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromoteHeader_NamesBlanksAndDuplicates(t *testing.T) {
	table := NewTable("forecast", []string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 2", "Unnamed: 3", "Unnamed: 4"})
	table.AppendRow([]Cell{Text("品名"), Text(" "), Text("2025-01"), Text("2025-01"), Cell{}})
	table.AppendRow([]Cell{Text("P1"), Text("x"), Int(3), Int(4), Int(5)})

	out := table.PromoteHeader()

	assert.Equal(t, []string{"品名", "Unnamed: 1", "2025-01", "2025-01.1", "Unnamed: 4"}, out.Columns)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "4", out.Cell(0, "2025-01.1").String())
	assert.Equal(t, "3", out.Cell(0, "2025-01").String())
}

func TestPromoteHeader_Empty(t *testing.T) {
	table := NewTable("forecast", []string{"a", "b"})

	out := table.PromoteHeader()

	assert.Equal(t, []string{"a", "b"}, out.Columns)
	assert.Equal(t, 0, out.Len())
}

func TestUniqueNames(t *testing.T) {
	got := UniqueNames([]string{"a", "a", "a.1", "b", "a"})
	assert.Equal(t, []string{"a", "a.1", "a.1.1", "b", "a.2"}, got)
}

func TestHasNumbers(t *testing.T) {
	table := NewTable("t", []string{"qty", "note"})
	table.AppendRow([]Cell{Int(1), Text("x")})
	table.AppendRow([]Cell{Text("N/A"), Cell{}})

	assert.True(t, table.HasNumbers(0))
	assert.False(t, table.IsNumericColumn(0))
	assert.False(t, table.HasNumbers(1))
}
