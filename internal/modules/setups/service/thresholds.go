package service

import "setup_scanner/internal/modules/config"

// Thresholds — все числовые пороги правил в одном месте.
type Thresholds struct {
	RigorousRSIMax     float64
	RigorousADXMin     float64
	RigorousVolumeMult float64

	IntermediateRSIMax float64
	IntermediateADXMin float64

	LightADXMin  float64
	LightMinHits int

	ConfluenceRSIMax  float64
	ConfluenceADXMin  float64
	ConfluenceMinHits int

	BreakoutRSIMin   float64
	BreakoutLookback int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		RigorousRSIMax:     40,
		RigorousADXMin:     20,
		RigorousVolumeMult: 1.5,
		IntermediateRSIMax: 50,
		IntermediateADXMin: 15,
		LightADXMin:        15,
		LightMinHits:       2,
		ConfluenceRSIMax:   40,
		ConfluenceADXMin:   20,
		ConfluenceMinHits:  6,
		BreakoutRSIMin:     55,
		BreakoutLookback:   9,
	}
}

func ThresholdsFromConfig(c config.Setups) Thresholds {
	return Thresholds{
		RigorousRSIMax:     c.RigorousRSIMax,
		RigorousADXMin:     c.RigorousADXMin,
		RigorousVolumeMult: c.RigorousVolumeMult,
		IntermediateRSIMax: c.IntermediateRSIMax,
		IntermediateADXMin: c.IntermediateADXMin,
		LightADXMin:        c.LightADXMin,
		LightMinHits:       c.LightMinHits,
		ConfluenceRSIMax:   c.ConfluenceRSIMax,
		ConfluenceADXMin:   c.ConfluenceADXMin,
		ConfluenceMinHits:  c.ConfluenceMinHits,
		BreakoutRSIMin:     c.BreakoutRSIMin,
		BreakoutLookback:   c.BreakoutLookback,
	}
}
