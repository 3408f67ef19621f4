package service

import (
	"fmt"
	"strings"
)

// okxBar приводит таймфрейм к виду OKX: "4h" -> "4H".
func okxBar(tf string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tf)) {
	case "1m", "3m", "5m", "15m", "30m":
		return strings.ToLower(strings.TrimSpace(tf)), nil

	case "60m", "1h":
		return "1H", nil
	case "2h":
		return "2H", nil
	case "4h":
		return "4H", nil
	case "6h":
		return "6H", nil
	case "12h":
		return "12H", nil

	case "1d":
		return "1D", nil
	case "1w":
		return "1W", nil
	}
	return "", fmt.Errorf("unsupported timeframe for OKX bar: %q", tf)
}
