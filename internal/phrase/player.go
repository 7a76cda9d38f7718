package phrase

import (
	"slices"
	"time"

	"github.com/leandrodaf/continuator/internal/schedule"
	"github.com/leandrodaf/continuator/sdk/contracts"
)

// Sink receives outgoing short messages.
type Sink interface {
	Send(status, note, velocity byte) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(status, note, velocity byte) error

// Send calls f.
func (f SinkFunc) Send(status, note, velocity byte) error {
	return f(status, note, velocity)
}

// Player replays a phrase through a Sink, transposed, keeping the original
// spacing between events. While a replay is active it remembers which
// transposed notes it left sounding so Cancel can silence them.
type Player struct {
	queue     *schedule.Queue
	sink      Sink
	transpose int
	logger    contracts.Logger

	tasks    []*schedule.Task
	pending  int
	sounding map[byte]Kind
	active   bool
	started  time.Time

	replays       uint64
	completed     uint64
	interrupted   uint64
	compensations uint64
	sendFailures  uint64
}

// NewPlayer returns an idle player.
func NewPlayer(queue *schedule.Queue, sink Sink, transpose int, logger contracts.Logger) *Player {
	return &Player{
		queue:     queue,
		sink:      sink,
		transpose: transpose,
		logger:    logger,
		sounding:  make(map[byte]Kind),
	}
}

// Active reports whether a replay is in progress.
func (p *Player) Active() bool {
	return p.active
}

// Sounding returns the transposed notes the current replay has turned on and
// not yet turned off, in ascending order.
func (p *Player) Sounding() []byte {
	notes := make([]byte, 0, len(p.sounding))
	for note, kind := range p.sounding {
		if kind == NoteOn {
			notes = append(notes, note)
		}
	}
	slices.Sort(notes)
	return notes
}

// Start schedules every event of the phrase relative to the first one,
// starting now. An empty phrase is ignored and Start reports false. A replay
// already in progress is cancelled first.
func (p *Player) Start(events []Event) bool {
	if len(events) == 0 {
		return false
	}
	if p.active {
		p.Cancel()
	}

	base := events[0].At
	p.tasks = make([]*schedule.Task, 0, len(events))
	p.pending = len(events)
	p.active = true
	p.started = p.queue.Now()
	p.replays++

	for _, ev := range events {
		p.tasks = append(p.tasks, p.queue.AfterFunc(ev.At.Sub(base), func() {
			p.deliver(ev)
		}))
	}

	p.logger.Info("Replaying phrase",
		p.logger.Field().Int("events", len(events)),
		p.logger.Field().Duration("length", events[len(events)-1].At.Sub(base)),
		p.logger.Field().Int("transpose", p.transpose))
	return true
}

// Cancel discards every delivery that has not happened yet and sends a
// note-off for every transposed note the replay left sounding. It returns the
// number of compensating note-offs sent.
func (p *Player) Cancel() int {
	if !p.active {
		return 0
	}
	for _, task := range p.tasks {
		task.Stop()
	}

	notes := p.Sounding()
	for _, note := range notes {
		if err := p.sink.Send(StatusNoteOff, note, 0); err != nil {
			p.sendFailures++
			p.logger.Warn("Failed to send compensating note off",
				p.logger.Field().Uint8("note", note),
				p.logger.Field().Error("error", err))
		}
	}

	p.interrupted++
	p.compensations += uint64(len(notes))
	p.logger.Info("Replay interrupted",
		p.logger.Field().Int("skipped", p.pending),
		p.logger.Field().Int("compensated", len(notes)))
	p.reset()
	return len(notes)
}

func (p *Player) deliver(ev Event) {
	p.pending--

	note := int(ev.Note) + p.transpose
	if note < 0 || note > MaxNote {
		p.logger.Debug("Transposed note out of range; skipped",
			p.logger.Field().Uint8("note", ev.Note),
			p.logger.Field().Int("transposed", note))
	} else {
		n := byte(note)
		if err := p.sink.Send(ev.Status, n, ev.Velocity); err != nil {
			p.sendFailures++
			p.logger.Warn("Failed to send replayed event",
				p.logger.Field().String("event", ev.String()),
				p.logger.Field().Error("error", err))
		}
		switch ev.Kind {
		case NoteOn:
			p.sounding[n] = NoteOn
		case NoteOff:
			delete(p.sounding, n)
		}
	}

	if p.pending == 0 {
		p.completed++
		p.logger.Info("Replay finished",
			p.logger.Field().Duration("elapsed", p.queue.Now().Sub(p.started)))
		p.reset()
	}
}

func (p *Player) reset() {
	p.tasks = nil
	p.pending = 0
	p.active = false
	clear(p.sounding)
}
