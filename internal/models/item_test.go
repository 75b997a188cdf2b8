package models

import (
	"testing"
)

func TestNormalizeItemType(t *testing.T) {
	tests := []struct {
		in   string
		want ItemType
	}{
		{"HOME", ItemTypeHome},
		{"Mesa", ItemTypeHome},
		{"mesa", ItemTypeHome},
		{"HANDHELD", ItemTypeHandheld},
		{"Portátil", ItemTypeHandheld},
		{"portatil", ItemTypeHandheld},
		{"GAME", ItemTypeGame},
		{"Jogo", ItemTypeGame},
		{"ACCESSORY", ItemTypeAccessory},
		{"Acessório", ItemTypeAccessory},
		{"acessorio", ItemTypeAccessory},
		{"", ItemTypeOther},
		{"Outro", ItemTypeOther},
		{"garbage", ItemTypeOther},
	}

	for _, tt := range tests {
		if got := NormalizeItemType(tt.in); got != tt.want {
			t.Errorf("NormalizeItemType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConditionLabel(t *testing.T) {
	tests := []struct {
		condition Condition
		want      string
	}{
		{ConditionNew, "Novo/Lacrado"},
		{ConditionCIB, "Completo na Caixa"},
		{ConditionLoose, "Item Solto"},
		{ConditionBroken, "Para Peças/Quebrado"},
		{Condition("WEIRD"), "WEIRD"},
	}

	for _, tt := range tests {
		if got := tt.condition.Label(); got != tt.want {
			t.Errorf("Condition(%s).Label() = %q, want %q", tt.condition, got, tt.want)
		}
	}
}

func TestConditionValid(t *testing.T) {
	for _, c := range AllConditions() {
		if !c.Valid() {
			t.Errorf("Condition(%s).Valid() = false, want true", c)
		}
	}
	if Condition("MINT").Valid() {
		t.Error("Condition(MINT).Valid() = true, want false")
	}
}

func TestCollectionTotalValue(t *testing.T) {
	col := Collection{
		Items: []Item{
			{Valuation: &Valuation{AveragePrice: 150}},
			{Valuation: nil},
			{Valuation: &Valuation{AveragePrice: 49.5}},
		},
	}
	if got := col.TotalValue(); got != 199.5 {
		t.Errorf("TotalValue() = %f, want 199.5", got)
	}
}
