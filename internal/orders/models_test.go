package orders

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"confirmed", StatusConfirmed, false},
		{"shipped", StatusShipped, false},
		{"completed", StatusCompleted, false},
		{"cancelled", StatusCancelled, false},
		{"canceled", "", true},
		{"Pending", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Errorf("ParseStatus(%q) err = %v, want ErrInvalidStatus", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseInitialStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    Status
		wantErr bool
	}{
		{"pending", StatusPending, false},
		{"confirmed", StatusConfirmed, false},
		{"cancelled", "", true},
		{"shipped", "", true},
		{"completed", "", true},
		{"bogus", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseInitialStatus(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Errorf("ParseInitialStatus(%q) err = %v, want ErrInvalidStatus", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInitialStatus(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseInitialStatus(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		want  int64
	}{
		{"no items", nil, 0},
		{"single line", []Item{{Quantity: 3, Price: 150}}, 450},
		{"multiple lines", []Item{{Quantity: 2, Price: 100}, {Quantity: 1, Price: 999}}, 1199},
		{"free item", []Item{{Quantity: 5, Price: 0}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Subtotal(tt.items); got != tt.want {
				t.Errorf("Subtotal() = %d, want %d", got, tt.want)
			}
		})
	}
}
