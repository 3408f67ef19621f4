package models

// SetupID — номер сетапа 1..6.
type SetupID int

const (
	SetupRigorous       SetupID = 1
	SetupIntermediate   SetupID = 2
	SetupLight          SetupID = 3
	SetupReversal       SetupID = 4
	SetupHighConfluence SetupID = 5
	SetupBreakout       SetupID = 6
)

// Setup описывает сетап. Label входит в ключ подавления алертов,
// поэтому его смена обнуляет историю отправок.
type Setup struct {
	ID       SetupID `json:"id"`
	Label    string  `json:"label"`
	Priority string  `json:"priority"`
	Emoji    string  `json:"emoji"`
}

var Setups = map[SetupID]Setup{
	SetupRigorous: {
		ID: SetupRigorous, Emoji: "🎯",
		Label:    "SETUP 1 – Rigorous",
		Priority: "🟠 HIGH PRIORITY",
	},
	SetupIntermediate: {
		ID: SetupIntermediate, Emoji: "⚙️",
		Label:    "SETUP 2 – Intermediate",
		Priority: "🟡 MEDIUM-HIGH PRIORITY",
	},
	SetupLight: {
		ID: SetupLight, Emoji: "🔹",
		Label:    "SETUP 3 – Light",
		Priority: "🔵 MEDIUM PRIORITY",
	},
	SetupReversal: {
		ID: SetupReversal, Emoji: "🔁",
		Label:    "SETUP 4 – Technical Reversal",
		Priority: "🟣 REVERSAL OPPORTUNITY",
	},
	SetupHighConfluence: {
		ID: SetupHighConfluence, Emoji: "🔥",
		Label:    "SETUP 5 – High Confluence",
		Priority: "🟥 MAXIMUM PRIORITY",
	},
	SetupBreakout: {
		ID: SetupBreakout, Emoji: "🚀",
		Label:    "SETUP 6 – Breakout with Confluence",
		Priority: "🟩 HIGH CONTINUATION OPPORTUNITY",
	},
}

// Weakest — самый слабый тир, который гасится per-cycle набором.
func (id SetupID) Weakest() bool { return id == SetupLight }
