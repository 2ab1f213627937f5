package session

import "github.com/okian/drawtree/internal/domain/mapper"

// Command is an input to Session.Handle. The set is closed.
type Command interface {
	command()
}

// StartGame begins (or restarts) a timed drawing attempt.
type StartGame struct{}

// DrawBegin starts the stroke at the event's first contact.
type DrawBegin struct {
	Event    mapper.Event
	Geometry mapper.Geometry
}

// DrawMove extends the stroke.
type DrawMove struct {
	Event    mapper.Event
	Geometry mapper.Geometry
}

// StopDraw ends the attempt and scores it.
type StopDraw struct{}

// TimerTick is a countdown update stamped with the epoch it was scheduled for.
type TimerTick struct {
	Epoch uint64
}

// DetectDevice reports the outcome of a device capability check.
type DetectDevice struct {
	Capable bool
}

// Orient reports the current drawing surface size.
type Orient struct {
	Width  float64
	Height float64
}

func (StartGame) command()    {}
func (DrawBegin) command()    {}
func (DrawMove) command()     {}
func (StopDraw) command()     {}
func (TimerTick) command()    {}
func (DetectDevice) command() {}
func (Orient) command()       {}
