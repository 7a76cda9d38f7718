// Package phrase captures live note input, detects the end of a phrase by
// silence, and replays the phrase transposed.
//
// Nothing in this package is safe for concurrent use. A Session, its
// Recorder and Player, and the schedule.Queue they share must all be driven
// from one goroutine.
package phrase

import (
	"fmt"
	"time"
)

// Kind is the classification of a raw channel message.
type Kind uint8

const (
	// Other is any status this package does not record.
	Other Kind = iota
	// NoteOn is a note-on with non-zero velocity.
	NoteOn
	// NoteOff is an explicit note-off or a note-on with zero velocity.
	NoteOff
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	default:
		return "Other"
	}
}

// Status bytes.
const (
	StatusNoteOff byte = 0x80
	StatusNoteOn  byte = 0x90
	statusEnd     byte = 0xA0 // first status after the note-on range
)

// MaxNote is the highest valid MIDI note number.
const MaxNote = 127

// Classify maps a raw status byte and velocity to a Kind.
//
//	0x90-0x9F, velocity > 0  NoteOn
//	0x80-0x9F otherwise      NoteOff
//	anything else            Other
func Classify(status, velocity byte) Kind {
	switch {
	case status >= StatusNoteOn && status < statusEnd && velocity > 0:
		return NoteOn
	case status >= StatusNoteOff && status < statusEnd:
		return NoteOff
	default:
		return Other
	}
}

// Event is one recorded note message.
type Event struct {
	Kind     Kind
	Status   byte // raw status as received, channel nibble included
	Note     byte
	Velocity byte
	At       time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("%s(ch=%d note=%d vel=%d)", e.Kind, e.Status&0x0F+1, e.Note, e.Velocity)
}
