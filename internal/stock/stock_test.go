package stock

import "testing"

func TestInvert(t *testing.T) {
	movements := []Movement{
		{ProductID: "p1", Delta: -3},
		{ProductID: "p2", Delta: 5},
		{ProductID: "p3", Delta: 0},
	}

	inverted := Invert(movements)
	if len(inverted) != len(movements) {
		t.Fatalf("Invert() returned %d movements, want %d", len(inverted), len(movements))
	}
	for i, m := range movements {
		if inverted[i].ProductID != m.ProductID {
			t.Errorf("inverted[%d].ProductID = %s, want %s", i, inverted[i].ProductID, m.ProductID)
		}
		if inverted[i].Delta != -m.Delta {
			t.Errorf("inverted[%d].Delta = %d, want %d", i, inverted[i].Delta, -m.Delta)
		}
	}
}

func TestInvertRoundTrip(t *testing.T) {
	movements := []Movement{{ProductID: "p1", Delta: 7}, {ProductID: "p2", Delta: -2}}

	back := Invert(Invert(movements))
	for i, m := range movements {
		if back[i] != m {
			t.Errorf("double invert changed movement %d: got %+v, want %+v", i, back[i], m)
		}
	}
}
