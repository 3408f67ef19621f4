package service

import "testing"

func TestCycleSet_ResetBetweenCycles(t *testing.T) {
	s := NewCycleSet()

	// цикл N
	s.Add("BTC-USDT")
	if !s.Has("BTC-USDT") {
		t.Fatal("symbol added in this cycle must be present")
	}
	if s.Has("ETH-USDT") {
		t.Fatal("unrelated symbol must be absent")
	}

	// цикл N+1
	s.Reset()
	if s.Has("BTC-USDT") || s.Len() != 0 {
		t.Fatal("reset must clear the set")
	}
}
