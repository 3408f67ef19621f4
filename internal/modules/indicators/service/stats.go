package service

import "math"

// Mean — среднее без учёта NaN (как pandas .mean()). Пустой вход — NaN.
func Mean(xs []float64) float64 {
	var sum float64
	var n int
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// maskWarmup заменяет первые n значений на NaN: talib пишет туда нули.
func maskWarmup(xs []float64, n int) []float64 {
	if n > len(xs) {
		n = len(xs)
	}
	for i := 0; i < n; i++ {
		xs[i] = math.NaN()
	}
	return xs
}

// shiftedEMA считает EMA по хвосту xs начиная с from и возвращает
// колонку исходной длины с NaN в начале.
func shiftedEMA(xs []float64, from, period int, ema func([]float64, int) []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	if from >= len(xs) || len(xs)-from < period {
		return out
	}
	tail := ema(xs[from:], period)
	for i := period - 1; i < len(tail); i++ {
		out[from+i] = tail[i]
	}
	return out
}
