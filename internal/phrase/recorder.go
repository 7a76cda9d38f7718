package phrase

import "time"

// Recorder accumulates the current phrase and tracks which notes are held.
type Recorder struct {
	events []Event
	held   map[byte]struct{}
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{held: make(map[byte]struct{})}
}

// Record classifies the message and appends it to the phrase. Messages that
// are neither NoteOn nor NoteOff are not recorded and Record reports false.
func (r *Recorder) Record(status, note, velocity byte, now time.Time) bool {
	kind := Classify(status, velocity)
	switch kind {
	case NoteOn:
		r.held[note] = struct{}{}
	case NoteOff:
		delete(r.held, note)
	default:
		return false
	}
	r.events = append(r.events, Event{
		Kind:     kind,
		Status:   status,
		Note:     note,
		Velocity: velocity,
		At:       now,
	})
	return true
}

// Len returns the number of events in the current phrase.
func (r *Recorder) Len() int {
	return len(r.events)
}

// Holding reports whether any note is currently held down.
func (r *Recorder) Holding() bool {
	return len(r.held) > 0
}

// Held returns the number of held notes.
func (r *Recorder) Held() int {
	return len(r.held)
}

// Take hands over the current phrase and starts a new empty one.
func (r *Recorder) Take() []Event {
	events := r.events
	r.events = nil
	return events
}

// Reset discards the phrase and forgets held notes.
func (r *Recorder) Reset() {
	r.events = nil
	clear(r.held)
}
