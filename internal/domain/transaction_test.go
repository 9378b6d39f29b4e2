package domain

import "testing"

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to TxStatus
		want     bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusCompleted, false},
		{StatusCompleted, StatusCompleted, true}, // replayed callback
		{StatusFailed, StatusFailed, true},
		{TxStatus("bogus"), StatusCompleted, false},
	}

	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
