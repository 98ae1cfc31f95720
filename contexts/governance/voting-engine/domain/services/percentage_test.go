package services

import "testing"

func TestMeetsPct(t *testing.T) {
	cases := []struct {
		name  string
		value uint64
		total uint64
		pct   uint64
		want  bool
	}{
		{"exactly at threshold", 600, 1_000, 500_000, true},
		{"below threshold", 499, 1_000, 500_000, false},
		{"at threshold boundary", 500, 1_000, 500_000, true},
		{"full value full pct", 1_000, 1_000, PctBase, true},
		{"zero pct with nonzero value", 1, 1_000, 0, true},
		{"zero value nonzero pct", 0, 1_000, 1, false},
		{"zero total never meets", 1_000, 0, 0, false},
		{"truncating division stays strict", 4_999, 10_000, 500_000, false},
	}
	for _, tc := range cases {
		if got := MeetsPct(tc.value, tc.total, tc.pct); got != tc.want {
			t.Fatalf("%s: MeetsPct(%d, %d, %d) = %v, want %v",
				tc.name, tc.value, tc.total, tc.pct, got, tc.want)
		}
	}
}

func TestMeetsPctWidensIntermediate(t *testing.T) {
	// value*PctBase overflows uint64 here; the widened product must still
	// compare correctly.
	const huge = uint64(1) << 60
	if !MeetsPct(huge, huge, PctBase) {
		t.Fatalf("expected full ratio of huge values to meet 100%%")
	}
	if MeetsPct(huge/2-1, huge, 500_000) {
		t.Fatalf("expected just under half of a huge total to miss 50%%")
	}
}

func TestMeetsSupportPct(t *testing.T) {
	cases := []struct {
		name          string
		weightedShare uint64
		stake         uint64
		pct           uint64
		want          bool
	}{
		// weighted-share units are declared share (of PctBase) times stake
		{"full support", 600 * PctBase, 600, PctBase, true},
		{"half support at half threshold", 300 * PctBase, 600, 500_000, true},
		{"just under half", 300*PctBase - 600, 600, 500_000, false},
		{"zero stake never supports", 0, 0, 0, false},
		{"zero share zero pct", 0, 600, 0, true},
	}
	for _, tc := range cases {
		if got := MeetsSupportPct(tc.weightedShare, tc.stake, tc.pct); got != tc.want {
			t.Fatalf("%s: MeetsSupportPct(%d, %d, %d) = %v, want %v",
				tc.name, tc.weightedShare, tc.stake, tc.pct, got, tc.want)
		}
	}
}
