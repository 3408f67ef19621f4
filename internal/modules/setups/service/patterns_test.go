package service

import (
	"testing"

	"setup_scanner/internal/models"
)

func TestIsStrongCandle(t *testing.T) {
	tests := []struct {
		name string
		c    models.Candle
		want bool
	}{
		{"marubozu", models.Candle{Open: 100, High: 110.5, Low: 99.5, Close: 110}, true},
		{"bearish strong", models.Candle{Open: 110, High: 111, Low: 99, Close: 100}, true},
		{"long upper wick", models.Candle{Open: 100, High: 110, Low: 99.5, Close: 102}, false},
		{"doji", models.Candle{Open: 100, High: 101, Low: 99, Close: 100}, false},
	}
	for _, tt := range tests {
		if got := IsStrongCandle(tt.c); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsHammer(t *testing.T) {
	tests := []struct {
		name string
		c    models.Candle
		want bool
	}{
		{"hammer", models.Candle{Open: 100, High: 101.1, Low: 97, Close: 101}, true},
		{"inverted", models.Candle{Open: 100, High: 104, Low: 99.9, Close: 101}, false},
		{"short lower wick", models.Candle{Open: 100, High: 101.1, Low: 98.5, Close: 101}, false},
		{"upper wick equals body", models.Candle{Open: 100, High: 102, Low: 97, Close: 101}, false},
	}
	for _, tt := range tests {
		if got := IsHammer(tt.c); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsBullishEngulfing(t *testing.T) {
	prev := models.Candle{Open: 102, High: 102.5, Low: 99.5, Close: 100}
	tests := []struct {
		name string
		prev models.Candle
		last models.Candle
		want bool
	}{
		{"engulfing", prev, models.Candle{Open: 99.8, High: 103, Low: 99.5, Close: 102.5}, true},
		{"close inside prev body", prev, models.Candle{Open: 99.8, High: 102, Low: 99.5, Close: 101.5}, false},
		{"open above prev close", prev, models.Candle{Open: 100.2, High: 103, Low: 100, Close: 102.5}, false},
		{"prev bullish", models.Candle{Open: 100, Close: 102}, models.Candle{Open: 99, Close: 103}, false},
		{"last bearish", prev, models.Candle{Open: 103, Close: 99}, false},
	}
	for _, tt := range tests {
		if got := IsBullishEngulfing(tt.prev, tt.last); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}
