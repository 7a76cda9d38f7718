package continuator

import (
	"time"

	"github.com/leandrodaf/continuator/internal/phrase"
	"github.com/leandrodaf/continuator/sdk/contracts"
)

const defaultEventBuffer = 256

// Options configures an Engine.
type Options struct {
	SilenceThreshold time.Duration    // Quiet time that ends a phrase.
	Transpose        int              // Semitones added to every replayed note.
	InputDevice      int              // Index into ClientMIDI.ListDevices.
	OutputDevice     int              // Index into ClientMIDI.ListOutputDevices.
	InputName        string           // Overrides InputDevice when set; exact match first, then substring.
	OutputName       string           // Overrides OutputDevice when set; exact match first, then substring.
	EventBuffer      int              // Capacity of the channel the client captures into.
	Logger           contracts.Logger // Engine logger; defaults to a production zap logger.
	Now              func() time.Time // Clock for scheduling; defaults to time.Now.
}

// Option is a function that modifies Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		SilenceThreshold: phrase.DefaultSilenceThreshold,
		Transpose:        phrase.DefaultTranspose,
		EventBuffer:      defaultEventBuffer,
	}
}

// WithSilenceThreshold sets how long the input must stay quiet, with no
// notes held, before the phrase is replayed.
func WithSilenceThreshold(d time.Duration) Option {
	return func(o *Options) {
		o.SilenceThreshold = d
	}
}

// WithTranspose sets the replay transposition in semitones.
func WithTranspose(semitones int) Option {
	return func(o *Options) {
		o.Transpose = semitones
	}
}

// WithInputDevice selects the input by index.
func WithInputDevice(index int) Option {
	return func(o *Options) {
		o.InputDevice = index
	}
}

// WithOutputDevice selects the output by index.
func WithOutputDevice(index int) Option {
	return func(o *Options) {
		o.OutputDevice = index
	}
}

// WithInputName selects the input by name.
func WithInputName(name string) Option {
	return func(o *Options) {
		o.InputName = name
	}
}

// WithOutputName selects the output by name.
func WithOutputName(name string) Option {
	return func(o *Options) {
		o.OutputName = name
	}
}

// WithEventBuffer sets the capture channel capacity.
func WithEventBuffer(n int) Option {
	return func(o *Options) {
		o.EventBuffer = n
	}
}

// WithLogger sets the engine logger.
func WithLogger(l contracts.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithClock replaces time.Now for scheduling.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}
