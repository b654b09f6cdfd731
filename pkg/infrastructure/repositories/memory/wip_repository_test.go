package memory

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/opsreport/pkg/domain/entities"
)

var wipFields = entities.FieldMap{Wafer: "晶圆型号", Spec: "产品规格", Part: "产品品名"}

func TestWIPRepository_Quantity(t *testing.T) {
	table := entities.NewTable("finished_products", []string{"工作中心", "晶圆型号", "产品规格", "产品品名", "未交_2025-01", "未交_2025-02"})
	table.AppendRow([]entities.Cell{entities.Text("WC1"), entities.Text("W1"), entities.Text("S1"), entities.Text("P1"), entities.Int(3), entities.Int(4)})
	table.AppendRow([]entities.Cell{entities.Text("WC2"), entities.Text("W1 "), entities.Text("S1"), entities.Text("P1"), entities.Int(5), entities.Empty()})
	table.AppendRow([]entities.Cell{entities.Text("WC1"), entities.Text("W2"), entities.Text("S2"), entities.Text("P2"), entities.Int(1), entities.Int(1)})

	repo := NewWIPRepository()
	if err := repo.LoadWIP(table, wipFields); err != nil {
		t.Fatalf("Failed to load WIP: %v", err)
	}

	qty, ok := repo.Quantity(entities.CompositeKey{Wafer: "W1", Spec: "S1", Part: "P1"})
	if !ok {
		t.Fatalf("Expected W1/S1/P1 to be indexed")
	}
	if !qty.Equal(decimal.NewFromInt(12)) {
		t.Errorf("Expected 12, got %s", qty)
	}

	if _, ok := repo.Quantity(entities.CompositeKey{Wafer: "W9", Spec: "S9", Part: "P9"}); ok {
		t.Errorf("Expected unknown key to be absent")
	}

	if repo.Keys().Len() != 2 {
		t.Errorf("Expected 2 keys, got %d", repo.Keys().Len())
	}
}

func TestWIPRepository_MissingKeyColumn(t *testing.T) {
	table := entities.NewTable("finished_products", []string{"晶圆型号", "产品规格"})

	err := NewWIPRepository().LoadWIP(table, wipFields)
	if !errors.Is(err, entities.ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn, got %v", err)
	}
}
