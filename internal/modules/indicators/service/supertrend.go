package service

// supertrendUp сводит Supertrend(period, mult) к флагу "тренд вверх" на
// каждой свече. atr — ATR(period) в формате talib (нули до индекса period).
// До появления ATR направление считается восходящим, как у pandas_ta.
func supertrendUp(high, low, closes, atr []float64, period int, mult float64) []bool {
	n := len(closes)
	up := make([]bool, n)
	if n == 0 {
		return up
	}
	for i := 0; i <= period && i < n; i++ {
		up[i] = true
	}
	if period >= n {
		return up
	}

	hl2 := (high[period] + low[period]) / 2
	upper := hl2 + mult*atr[period]
	lower := hl2 - mult*atr[period]

	for i := period + 1; i < n; i++ {
		mid := (high[i] + low[i]) / 2
		ub := mid + mult*atr[i]
		lb := mid - mult*atr[i]

		switch {
		case closes[i] > upper:
			up[i] = true
		case closes[i] < lower:
			up[i] = false
		default:
			up[i] = up[i-1]
			// полосы тянутся только в сторону тренда
			if up[i] && lb < lower {
				lb = lower
			}
			if !up[i] && ub > upper {
				ub = upper
			}
		}
		upper, lower = ub, lb
	}
	return up
}
