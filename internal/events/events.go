package events

import "encoding/json"

// Kind enumerates the event variants.
type Kind int

const (
	KindPlaying Kind = iota
	KindPaused
	KindPositionUpdate
	KindSeeked
)

func (k Kind) String() string {
	switch k {
	case KindPlaying:
		return "playing"
	case KindPaused:
		return "paused"
	case KindPositionUpdate:
		return "positionUpdate"
	case KindSeeked:
		return "seeked"
	default:
		return ""
	}
}

// Event is implemented only by the types in this package.
type Event interface {
	Kind() Kind
	Correlation() uint64
	sealed()
}

var (
	_ Event = Playing{}
	_ Event = Paused{}
	_ Event = PositionUpdate{}
	_ Event = Seeked{}
)

// Playing confirms that audio is running.
type Playing struct {
	RequestID uint64
}

// Paused confirms that audio stopped, either on request or at end of track.
type Paused struct {
	RequestID uint64
}

// PositionUpdate reports the playback clock in seconds.
type PositionUpdate struct {
	RequestID uint64
	Position  float64
	Duration  float64
}

// Seeked confirms a completed seek.
type Seeked struct {
	RequestID uint64
	Position  float64
}

func (Playing) Kind() Kind        { return KindPlaying }
func (Paused) Kind() Kind         { return KindPaused }
func (PositionUpdate) Kind() Kind { return KindPositionUpdate }
func (Seeked) Kind() Kind         { return KindSeeked }

func (e Playing) Correlation() uint64        { return e.RequestID }
func (e Paused) Correlation() uint64         { return e.RequestID }
func (e PositionUpdate) Correlation() uint64 { return e.RequestID }
func (e Seeked) Correlation() uint64         { return e.RequestID }

func (Playing) sealed()        {}
func (Paused) sealed()         {}
func (PositionUpdate) sealed() {}
func (Seeked) sealed()         {}

// envelope is the tagged wire form: {"kind":"positionUpdate","position":31,"duration":200}.
type envelope struct {
	Kind      string   `json:"kind"`
	Position  *float64 `json:"position,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
	RequestID uint64   `json:"request_id,omitempty"`
}

// Marshal encodes e in its tagged JSON form, one object per event in play traces.
func Marshal(e Event) ([]byte, error) {
	env := envelope{Kind: e.Kind().String(), RequestID: e.Correlation()}
	switch ev := e.(type) {
	case PositionUpdate:
		env.Position, env.Duration = &ev.Position, &ev.Duration
	case Seeked:
		env.Position = &ev.Position
	}
	return json.Marshal(env)
}
