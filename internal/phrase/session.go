package phrase

import (
	"time"

	"github.com/leandrodaf/continuator/internal/schedule"
	"github.com/leandrodaf/continuator/sdk/contracts"
)

// Defaults.
const (
	DefaultSilenceThreshold = time.Second
	DefaultTranspose        = 2
)

// State is the position of a Session in its capture/replay cycle.
type State int

const (
	Idle State = iota
	Recording
	Replaying
)

func (s State) String() string {
	switch s {
	case Recording:
		return "recording"
	case Replaying:
		return "replaying"
	default:
		return "idle"
	}
}

// Config tunes a Session. A zero SilenceThreshold takes the default;
// Transpose is applied as given, so callers wanting the default must set it.
type Config struct {
	SilenceThreshold time.Duration
	Transpose        int
}

// Stats counts what a Session has done since it was created.
type Stats struct {
	Messages      uint64 // incoming messages, recognised or not
	Ignored       uint64 // incoming messages that were neither NoteOn nor NoteOff
	Replays       uint64 // replays started
	Completed     uint64 // replays that delivered every event
	Interrupted   uint64 // replays cut short by new input or shutdown
	Compensations uint64 // note-offs sent to silence interrupted replays
	SendFailures  uint64 // sink errors
}

// Session ties a Recorder, a silence timer and a Player together:
//
//	Idle -> Recording -> Replaying -> Idle
//	                         |
//	                         +-> Recording (new input interrupts the replay)
type Session struct {
	queue     *schedule.Queue
	recorder  *Recorder
	player    *Player
	silence   *schedule.Task
	threshold time.Duration
	logger    contracts.Logger

	messages uint64
	ignored  uint64
}

// NewSession returns an idle session scheduling on queue and sending to sink.
func NewSession(queue *schedule.Queue, sink Sink, logger contracts.Logger, cfg Config) *Session {
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = DefaultSilenceThreshold
	}
	return &Session{
		queue:     queue,
		recorder:  NewRecorder(),
		player:    NewPlayer(queue, sink, cfg.Transpose, logger),
		threshold: cfg.SilenceThreshold,
		logger:    logger,
	}
}

// HandleMessage processes one incoming message received at now. An active
// replay is cancelled before the message is recorded, and the silence timer
// is re-armed for now plus the threshold.
func (s *Session) HandleMessage(status, note, velocity byte, now time.Time) {
	s.messages++
	s.silence.Stop()

	if s.player.Active() {
		s.player.Cancel()
		s.recorder.Reset()
	}

	if !s.recorder.Record(status, note, velocity, now) {
		s.ignored++
		s.logger.Debug("Ignoring non-note message",
			s.logger.Field().Uint8("status", status),
			s.logger.Field().Uint8("data1", note),
			s.logger.Field().Uint8("data2", velocity))
	}

	s.silence = s.queue.At(now.Add(s.threshold), s.silenceElapsed)
}

func (s *Session) silenceElapsed() {
	s.silence = nil
	s.tryStartReplay()
}

func (s *Session) tryStartReplay() {
	if s.recorder.Len() == 0 {
		return
	}
	if s.recorder.Holding() {
		s.logger.Debug("Silence with notes still held; keep recording",
			s.logger.Field().Int("held", s.recorder.Held()))
		return
	}
	s.logger.Info("Phrase captured", s.logger.Field().Int("events", s.recorder.Len()))
	s.player.Start(s.recorder.Take())
}

// Shutdown cancels the silence timer and any active replay, silencing the
// notes it left sounding. The session can keep being used afterwards.
func (s *Session) Shutdown() {
	s.silence.Stop()
	s.silence = nil
	if s.player.Active() {
		s.player.Cancel()
	}
	s.recorder.Reset()
}

// State reports where the session is in its cycle.
func (s *Session) State() State {
	switch {
	case s.player.Active():
		return Replaying
	case s.recorder.Len() > 0 || s.recorder.Holding():
		return Recording
	default:
		return Idle
	}
}

// PhraseLen returns the number of events captured so far.
func (s *Session) PhraseLen() int {
	return s.recorder.Len()
}

// Sounding returns the transposed notes an active replay has left sounding.
func (s *Session) Sounding() []byte {
	return s.player.Sounding()
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		Messages:      s.messages,
		Ignored:       s.ignored,
		Replays:       s.player.replays,
		Completed:     s.player.completed,
		Interrupted:   s.player.interrupted,
		Compensations: s.player.compensations,
		SendFailures:  s.player.sendFailures,
	}
}
