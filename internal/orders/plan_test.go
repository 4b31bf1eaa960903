package orders

import (
	"math/rand"
	"testing"

	"github.com/quanh29/e-sweety-cake-sub000/internal/stock"
)

func netDelta(movements []stock.Movement) map[string]int {
	net := map[string]int{}
	for _, m := range movements {
		net[m.ProductID] += m.Delta
	}
	return net
}

func TestPlanCreate(t *testing.T) {
	items := []Item{
		{ProductID: "p1", Quantity: 3, Price: 100},
		{ProductID: "p2", Quantity: 1, Price: 250},
	}

	net := netDelta(planCreate(items))
	if net["p1"] != -3 || net["p2"] != -1 {
		t.Errorf("planCreate net = %v, want p1:-3 p2:-1", net)
	}
}

func TestPlanReplace(t *testing.T) {
	oldItems := []Item{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 5}}
	newItems := []Item{{ProductID: "p1", Quantity: 4}, {ProductID: "p3", Quantity: 1}}

	tests := []struct {
		name    string
		current Status
		want    map[string]int
	}{
		{
			name:    "live order swaps line holdings",
			current: StatusPending,
			want:    map[string]int{"p1": -2, "p2": 5, "p3": -1},
		},
		{
			name:    "cancelled order holds no stock on either side",
			current: StatusCancelled,
			want:    map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := netDelta(planReplace(tt.current, oldItems, newItems))
			for id, delta := range tt.want {
				if net[id] != delta {
					t.Errorf("net[%s] = %d, want %d", id, net[id], delta)
				}
			}
			for id, delta := range net {
				if delta != 0 && tt.want[id] == 0 {
					t.Errorf("unexpected movement for %s: %d", id, delta)
				}
			}
		})
	}
}

func TestPlanStatusChange(t *testing.T) {
	items := []Item{{ProductID: "p1", Quantity: 2}}

	tests := []struct {
		name      string
		oldStatus Status
		newStatus Status
		wantP1    int
	}{
		{"cancel restores stock", StatusPending, StatusCancelled, 2},
		{"cancel from shipped restores stock", StatusShipped, StatusCancelled, 2},
		{"re-cancel is a no-op", StatusCancelled, StatusCancelled, 0},
		{"confirm does not touch stock", StatusPending, StatusConfirmed, 0},
		{"uncancel does not touch stock", StatusCancelled, StatusPending, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := netDelta(planStatusChange(tt.oldStatus, tt.newStatus, items))
			if net["p1"] != tt.wantP1 {
				t.Errorf("net[p1] = %d, want %d", net["p1"], tt.wantP1)
			}
		})
	}
}

func TestPlanDelete(t *testing.T) {
	items := []Item{{ProductID: "p1", Quantity: 3}}

	if net := netDelta(planDelete(StatusPending, items)); net["p1"] != 3 {
		t.Errorf("deleting a live order: net[p1] = %d, want 3", net["p1"])
	}
	if moves := planDelete(StatusCancelled, items); len(moves) != 0 {
		t.Errorf("deleting a cancelled order: got %d movements, want 0", len(moves))
	}
}

// TestCreatableStatusConservation checks that every status an order may be
// born with has a draining path back to the initial counters. Non-creatable
// initial states have none: an order born cancelled would consume stock that
// neither re-cancelling nor deleting restores, which is why creation rejects
// them.
func TestCreatableStatusConservation(t *testing.T) {
	items := []Item{{ProductID: "p1", Quantity: 3}}

	for _, initial := range []string{"pending", "confirmed"} {
		t.Run(initial, func(t *testing.T) {
			status, err := ParseInitialStatus(initial)
			if err != nil {
				t.Fatalf("ParseInitialStatus(%q): %v", initial, err)
			}

			counter := 10
			apply := func(movements []stock.Movement) {
				for _, m := range movements {
					counter += m.Delta
				}
			}

			apply(planCreate(items))
			apply(planStatusChange(status, StatusCancelled, items))
			apply(planDelete(StatusCancelled, items))

			if counter != 10 {
				t.Errorf("counter = %d after create/cancel/delete, want 10", counter)
			}
		})
	}

	if _, err := ParseInitialStatus("cancelled"); err == nil {
		t.Error("ParseInitialStatus accepted cancelled, which has no draining path")
	}
}

func TestSalesMarkerNeeded(t *testing.T) {
	tests := []struct {
		name      string
		oldStatus Status
		newStatus Status
		want      bool
	}{
		{"confirm from pending", StatusPending, StatusConfirmed, true},
		{"born confirmed", "", StatusConfirmed, true},
		{"re-confirm", StatusConfirmed, StatusConfirmed, false},
		{"born pending", "", StatusPending, false},
		{"cancel", StatusPending, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := salesMarkerNeeded(tt.oldStatus, tt.newStatus); got != tt.want {
				t.Errorf("salesMarkerNeeded(%q, %q) = %v, want %v", tt.oldStatus, tt.newStatus, got, tt.want)
			}
		})
	}
}

func TestSameVoucher(t *testing.T) {
	a, b, a2 := "SUMMER10", "WINTER20", "SUMMER10"

	tests := []struct {
		name    string
		oldCode *string
		newCode *string
		want    bool
	}{
		{"both nil", nil, nil, true},
		{"same code", &a, &a2, true},
		{"different code", &a, &b, false},
		{"code added", nil, &a, false},
		{"code removed", &a, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameVoucher(tt.oldCode, tt.newCode); got != tt.want {
				t.Errorf("sameVoucher() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampDiscount(t *testing.T) {
	tests := []struct {
		name     string
		discount int64
		subtotal int64
		want     int64
	}{
		{"within subtotal", 500, 1000, 500},
		{"exceeds new subtotal", 1500, 1000, 1000},
		{"equal", 1000, 1000, 1000},
		{"negative", -1, 1000, 0},
		{"zero subtotal", 500, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampDiscount(tt.discount, tt.subtotal); got != tt.want {
				t.Errorf("clampDiscount(%d, %d) = %d, want %d", tt.discount, tt.subtotal, got, tt.want)
			}
		})
	}
}

// TestStockConservation drives a random sequence of order mutations against
// an in-memory stock counter and checks that once every order is cancelled or
// deleted, the counter is back where it started.
func TestStockConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	productIDs := []string{"p1", "p2", "p3"}

	const initial = 1000
	counters := map[string]int{}
	for _, id := range productIDs {
		counters[id] = initial
	}
	apply := func(movements []stock.Movement) {
		for _, m := range movements {
			counters[m.ProductID] += m.Delta
		}
	}
	randomItems := func() []Item {
		items := make([]Item, 0, 3)
		for _, id := range productIDs {
			if rng.Intn(2) == 0 {
				items = append(items, Item{ProductID: id, Quantity: 1 + rng.Intn(5)})
			}
		}
		if len(items) == 0 {
			items = append(items, Item{ProductID: "p1", Quantity: 1})
		}
		return items
	}

	type liveOrder struct {
		status Status
		items  []Item
	}
	open := map[int]*liveOrder{}
	nextID := 0
	allStatuses := []Status{StatusPending, StatusConfirmed, StatusShipped, StatusCompleted, StatusCancelled}

	for step := 0; step < 500; step++ {
		switch rng.Intn(4) {
		case 0: // create
			o := &liveOrder{status: StatusPending, items: randomItems()}
			apply(planCreate(o.items))
			open[nextID] = o
			nextID++
		case 1: // replace lines
			for id, o := range open {
				newItems := randomItems()
				apply(planReplace(o.status, o.items, newItems))
				o.items = newItems
				_ = id
				break
			}
		case 2: // status change
			for _, o := range open {
				newStatus := allStatuses[rng.Intn(len(allStatuses))]
				apply(planStatusChange(o.status, newStatus, o.items))
				o.status = newStatus
				break
			}
		case 3: // delete
			for id, o := range open {
				apply(planDelete(o.status, o.items))
				delete(open, id)
				break
			}
		}
	}

	// Drain: cancel then delete everything still open.
	for id, o := range open {
		apply(planStatusChange(o.status, StatusCancelled, o.items))
		o.status = StatusCancelled
		apply(planDelete(o.status, o.items))
		delete(open, id)
	}

	for _, id := range productIDs {
		if counters[id] != initial {
			t.Errorf("counter[%s] = %d after draining all orders, want %d", id, counters[id], initial)
		}
	}
}
