package session

// Event is something a map client did. Every event goes through Session.Handle.
type Event interface {
	eventName() string
}

// SlideEvent moves the day slider to Offset days relative to today.
type SlideEvent struct {
	Offset int `json:"offset" validate:"gte=-3650,lte=3650"`
}

// TickEvent advances auto-play by one step. Ticks sent by an auto-play run
// carry its run number and are dropped once a newer run has started.
type TickEvent struct {
	run int
}

// ClickEvent places a custom marker where the user clicked.
type ClickEvent struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (SlideEvent) eventName() string { return "slide" }
func (TickEvent) eventName() string  { return "tick" }
func (ClickEvent) eventName() string { return "click" }
