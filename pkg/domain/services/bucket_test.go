package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

func TestBucketResolver_Label(t *testing.T) {
	resolver := NewBucketResolver("2006-01", "")

	tests := []struct {
		name     string
		cell     entities.Cell
		expected string
	}{
		{"serial_first_of_year", entities.Int(45658), "2025-01"},
		{"serial_first_of_february", entities.Int(45689), "2025-02"},
		{"serial_with_time_fraction", entities.Number(decimal.RequireFromString("45688.75")), "2025-01"},
		{"serial_epoch", entities.Int(0), "1899-12"},
		{"serial_as_text", entities.ParseCell("45717"), "2025-03"},
		{"iso_date", entities.Text("2025-03-15"), "2025-03"},
		{"slash_date", entities.Text("2025/3/5"), "2025-03"},
		{"datetime_text", entities.Text("2025-04-01 08:30:00"), "2025-04"},
		{"compact_date", entities.ParseCell("20250115"), "2025-01"},
		{"chinese_date", entities.Text("2025年6月1日"), "2025-06"},
		{"garbage", entities.Text("TBD"), UnknownBucket},
		{"empty", entities.Empty(), UnknownBucket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.Label(tt.cell)
			if result != tt.expected {
				t.Errorf("Label(%q) = %q, want %q", tt.cell.String(), result, tt.expected)
			}
		})
	}
}

func TestBucketResolver_CustomUnknown(t *testing.T) {
	resolver := NewBucketResolver("", "unknown date")
	if got := resolver.Label(entities.Text("n/a")); got != "unknown date" {
		t.Errorf("Expected custom sentinel, got %q", got)
	}
	if got := resolver.Label(entities.Text("2025-07-09")); got != "2025-07" {
		t.Errorf("Expected default month layout, got %q", got)
	}
}
