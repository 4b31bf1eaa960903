package imports

import (
	"testing"
)

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  int64
	}{
		{"no items", nil, 0},
		{"single line", []Item{{Quantity: 10, Price: 5000}}, 50000},
		{"multiple lines", []Item{{Quantity: 2, Price: 1200}, {Quantity: 3, Price: 800}}, 4800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subtotal(tt.items); got != tt.want {
				t.Errorf("Subtotal() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReceived(t *testing.T) {
	items := []Item{
		{ProductID: "p1", Quantity: 10, Price: 5000},
		{ProductID: "p2", Quantity: 4, Price: 1200},
	}

	movements := received(items)
	if len(movements) != 2 {
		t.Fatalf("received() returned %d movements, want 2", len(movements))
	}
	for i, item := range items {
		if movements[i].ProductID != item.ProductID {
			t.Errorf("movements[%d].ProductID = %s, want %s", i, movements[i].ProductID, item.ProductID)
		}
		if movements[i].Delta != item.Quantity {
			t.Errorf("movements[%d].Delta = %d, want %d", i, movements[i].Delta, item.Quantity)
		}
	}
}
