package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"nil_value", nil, ""},
		{"empty_string", "", ""},
		{"whitespace_only", "  \t ", ""},
		{"fullwidth_space_only", "　　", ""},
		{"surrounding_spaces", "  W1  ", "W1"},
		{"inner_fullwidth_space", "SOT　23", "SOT 23"},
		{"ascii_quotes", `"P1"`, "P1"},
		{"single_quotes", "'P1'", "P1"},
		{"cjk_quotes", "“P1”", "P1"},
		{"mixed_quotes_and_spaces", ` ' "S1" ' `, "S1"},
		{"fullwidth_quotes", "＂S1＂", "S1"},
		{"inner_quote_kept", `O'Neil`, "O'Neil"},
		{"integer_value", 123, "123"},
		{"float_value", 12.5, "12.5"},
		{"numeric_cell_keeps_text", entities.ParseCell("00123"), "00123"},
		{"number_cell", entities.Number(decimal.NewFromInt(42)), "42"},
		{"empty_cell", entities.Empty(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%v) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []interface{}{
		nil,
		"",
		"   ",
		"　 “W1” 　",
		`'"'"P1"'"'`,
		"A　　B",
		" ＇x＇ ",
		3.0,
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %v: %q then %q", input, once, twice)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	key := NormalizeKey(" W1 ", "\"S1\"", nil)
	expected := entities.CompositeKey{Wafer: "W1", Spec: "S1", Part: ""}
	if key != expected {
		t.Errorf("Expected %v, got %v", expected, key)
	}
}

func TestKeyResolver(t *testing.T) {
	table := entities.NewTable("orders", []string{"qty", "晶圆品名", "规格", "品名"})
	table.AppendRow([]entities.Cell{entities.Int(1), entities.Text("W1 "), entities.Text("S1"), entities.Text("P1")})
	table.AppendRow([]entities.Cell{entities.Int(2), entities.Text("W1"), entities.Text("'S1'"), entities.Text("P1")})
	table.AppendRow([]entities.Cell{entities.Int(3), entities.Text("W2"), entities.Text("S2"), entities.Empty()})

	resolver, err := NewKeyResolver(table, entities.FieldMap{Wafer: "晶圆品名", Spec: "规格", Part: "品名"})
	if err != nil {
		t.Fatalf("Failed to create resolver: %v", err)
	}

	keys := resolver.Keys(table)
	if keys.Len() != 2 {
		t.Fatalf("Expected 2 distinct keys, got %d", keys.Len())
	}
	if !keys.Contains(entities.CompositeKey{Wafer: "W1", Spec: "S1", Part: "P1"}) {
		t.Errorf("Expected normalized key W1/S1/P1 in %v", keys.Keys())
	}
	if !keys.Contains(entities.CompositeKey{Wafer: "W2", Spec: "S2"}) {
		t.Errorf("Expected key with empty part in %v", keys.Keys())
	}

	_, err = NewKeyResolver(table, entities.FieldMap{Wafer: "WaferID", Spec: "规格", Part: "品名"})
	if err == nil {
		t.Error("Expected error for missing key column")
	}
}
