package meshview

import "testing"

func TestKeysHas(t *testing.T) {
	k := KeyForward | KeyBoost
	if !k.Has(KeyForward) || !k.Has(KeyBoost) {
		t.Errorf("%b should hold forward and boost", k)
	}
	if !k.Has(KeyForward | KeyBoost) {
		t.Error("Has should accept a combined mask")
	}
	if k.Has(KeyBack) || k.Has(KeyForward|KeyBack) {
		t.Errorf("%b should not hold back", k)
	}
}

func TestKeysAxis(t *testing.T) {
	tests := []struct {
		keys Keys
		want float32
	}{
		{0, 0},
		{KeyForward, 1},
		{KeyBack, -1},
		{KeyForward | KeyBack, 1},
		{KeyLeft, 0},
	}
	for _, tt := range tests {
		if got := tt.keys.axis(KeyForward, KeyBack); got != tt.want {
			t.Errorf("Keys(%b).axis = %v, want %v", tt.keys, got, tt.want)
		}
	}
}
