package model

// Button is one inline keyboard button. Data and URL are mutually exclusive.
type Button struct {
	Label string
	Data  string
	URL   string
}

// OutboundMessage is an immutable message value built by pure functions from
// Payment/Plan data. Never mutated after construction; rebuilding is cheap.
type OutboundMessage struct {
	Text    string
	Buttons [][]Button
}
