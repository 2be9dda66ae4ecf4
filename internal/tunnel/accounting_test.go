package tunnel

import "testing"

func TestAccountingAccumulates(t *testing.T) {
	var a accounting
	a.addUplink(10)
	a.addUplink(5)
	a.addDownlink(3)
	a.addUplink(0)
	a.addUplink(-1)

	up, down := a.snapshot()
	if up != 15 {
		t.Errorf("uplink = %d, want 15", up)
	}
	if down != 3 {
		t.Errorf("downlink = %d, want 3", down)
	}
}

func TestAccountingMuxTotalsFold(t *testing.T) {
	var a accounting
	a.addUplink(1)
	a.addMuxTotals(100, 200)

	up, down := a.snapshot()
	if up != 101 {
		t.Errorf("uplink = %d, want 101", up)
	}
	if down != 200 {
		t.Errorf("downlink = %d, want 200", down)
	}
}
