package idhash

import "testing"

func TestComputeRunIDDeterministic(t *testing.T) {
	a := ComputeRunID("SOLUSDT", 5, 1000, 9000, 42)
	b := ComputeRunID("SOLUSDT", 5, 1000, 9000, 42)
	if a != b {
		t.Fatal("identical inputs produced different run ids")
	}
	if len(a) != 64 {
		t.Fatalf("run id length = %d, want 64", len(a))
	}

	if a == ComputeRunID("SOLUSDT", 5, 1000, 9000, 43) {
		t.Fatal("seed change did not change the run id")
	}
	if a == ComputeRunID("ETHUSDT", 5, 1000, 9000, 42) {
		t.Fatal("symbol change did not change the run id")
	}
}

func TestComputeTradeIDDeterministic(t *testing.T) {
	a := ComputeTradeID("run", "SOLUSDT", "SHORT_hh20_highest_low_risk70_tp0.44", 1000, 101.5)
	b := ComputeTradeID("run", "SOLUSDT", "SHORT_hh20_highest_low_risk70_tp0.44", 1000, 101.5)
	if a != b {
		t.Fatal("identical inputs produced different trade ids")
	}
	if len(a) != 64 {
		t.Fatalf("trade id length = %d, want 64", len(a))
	}

	if a == ComputeTradeID("run", "SOLUSDT", "SHORT_hh20_highest_low_risk70_tp0.44", 2000, 101.5) {
		t.Fatal("entry time change did not change the trade id")
	}
}
