package service

import "setup_scanner/internal/models"

// IsStrongCandle — тело больше обеих теней.
func IsStrongCandle(c models.Candle) bool {
	body := c.Body()
	return body > c.UpperWick() && body > c.LowerWick()
}

// IsHammer — нижняя тень больше двух тел, верхняя меньше тела.
func IsHammer(c models.Candle) bool {
	body := c.Body()
	return c.LowerWick() > 2*body && c.UpperWick() < body
}

// IsBullishEngulfing — медвежья prev, бычья last, и тело last перекрывает тело prev.
func IsBullishEngulfing(prev, last models.Candle) bool {
	return prev.Bearish() && last.Bullish() &&
		last.Open < prev.Close && last.Close > prev.Open
}
