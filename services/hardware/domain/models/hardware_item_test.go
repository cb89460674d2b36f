package models

import "testing"

func TestHardwareItem_ItemsLeft(t *testing.T) {
	item := &HardwareItem{TotalStock: 5, ReservedStock: 2, TakenStock: 1}
	if got := item.ItemsLeft(); got != 2 {
		t.Fatalf("expected 2 items left, got %d", got)
	}
	if !item.HasStock() {
		t.Fatal("expected HasStock with 2 left")
	}

	item.ReservedStock = 4
	if item.HasStock() {
		t.Fatal("expected no stock when reserved+taken == total")
	}
}

func TestHardwareItem_CanDelete(t *testing.T) {
	tests := []struct {
		name     string
		reserved int
		taken    int
		want     bool
	}{
		{"untouched", 0, 0, true},
		{"reserved units", 1, 0, false},
		{"taken units", 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &HardwareItem{TotalStock: 3, ReservedStock: tt.reserved, TakenStock: tt.taken}
			if got := item.CanDelete(); got != tt.want {
				t.Fatalf("CanDelete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHardwareItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    HardwareItem
		wantErr bool
	}{
		{"empty", HardwareItem{}, false},
		{"fully allocated", HardwareItem{TotalStock: 4, ReservedStock: 2, TakenStock: 2}, false},
		{"negative total", HardwareItem{TotalStock: -1}, true},
		{"negative reserved", HardwareItem{TotalStock: 1, ReservedStock: -1}, true},
		{"negative taken", HardwareItem{TotalStock: 1, TakenStock: -1}, true},
		{"over allocated", HardwareItem{TotalStock: 3, ReservedStock: 2, TakenStock: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
