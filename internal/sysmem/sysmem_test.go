package sysmem

import "testing"

func TestBudgetBytes(t *testing.T) {
	cases := []struct {
		name          string
		available     int64
		fraction      float64
		reservedFloor int64
		want          int64
	}{
		{"typical", 10 << 30, 0.75, 2 << 30, int64(float64(8<<30) * 0.75)},
		{"below floor", 1 << 30, 0.75, 2 << 30, 0},
		{"unknown available", 0, 0.75, 2 << 30, 2 << 30},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := BudgetBytes(c.available, c.fraction, c.reservedFloor)
			if got != c.want {
				t.Errorf("BudgetBytes(%d, %v, %d) = %d, want %d", c.available, c.fraction, c.reservedFloor, got, c.want)
			}
		})
	}
}

func TestAvailableDoesNotPanic(t *testing.T) {
	_ = Available()
}
