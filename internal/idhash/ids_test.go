package idhash

import "testing"

func TestComputeTradeID_Deterministic(t *testing.T) {
	a := ComputeTradeID("mint123", "BUY", 1704067200000)
	b := ComputeTradeID("mint123", "BUY", 1704067200000)

	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex ID, got %d chars", len(a))
	}
}

func TestComputeTradeID_DistinctInputs(t *testing.T) {
	base := ComputeTradeID("mint123", "BUY", 1704067200000)

	cases := []struct {
		name      string
		address   string
		action    string
		timestamp int64
	}{
		{"different address", "mint456", "BUY", 1704067200000},
		{"different action", "mint123", "SELL", 1704067200000},
		{"different timestamp", "mint123", "BUY", 1704067200001},
	}

	for _, tc := range cases {
		got := ComputeTradeID(tc.address, tc.action, tc.timestamp)
		if got == base {
			t.Errorf("%s: expected distinct ID, got collision", tc.name)
		}
	}
}

func TestComputePositionID_Deterministic(t *testing.T) {
	a := ComputePositionID("mint123", 1704067200000)
	b := ComputePositionID("mint123", 1704067200000)

	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if ComputePositionID("mint123", 1704067200001) == a {
		t.Error("different entry times should produce different IDs")
	}
}
