// Command continuator listens on a MIDI input and, whenever the player pauses,
// answers on a MIDI output with the phrase just played, transposed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/leandrodaf/continuator/internal/logger"
	"github.com/leandrodaf/continuator/internal/phrase"
	"github.com/leandrodaf/continuator/sdk/contracts"
	"github.com/leandrodaf/continuator/sdk/continuator"
	"github.com/leandrodaf/continuator/sdk/midi"
	"go.uber.org/multierr"
)

var (
	listFlag      = flag.Bool("list", false, "list MIDI input and output devices and exit")
	inFlag        = flag.String("in", "0", "input device `index or name` (see -list)")
	outFlag       = flag.String("out", "0", "output device `index or name` (see -list)")
	silenceFlag   = flag.Duration("silence", phrase.DefaultSilenceThreshold, "quiet time, with no notes held, that ends a phrase")
	transposeFlag = flag.Int("transpose", phrase.DefaultTranspose, "semitones added to every replayed note")
	logLevelFlag  = flag.String("log-level", "info", "one of debug, info, warn, error")
	logFileFlag   = flag.String("log-file", "", "write logs to this file instead of stderr")
)

func main() {
	flag.Parse()

	log := logger.NewZapLogger()
	level, ok := contracts.ParseLogLevel(*logLevelFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown log level %q\n", *logLevelFlag)
		os.Exit(2)
	}

	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithLogFilePath(*logFileFlag),
		contracts.WithMIDIEventFilter(continuator.NoteFilter),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		os.Exit(1)
	}

	if *listFlag {
		if err := listDevices(os.Stdout, client); err != nil {
			log.Error("Failed to list MIDI devices", log.Field().Error("error", err))
			os.Exit(1)
		}
		return
	}

	engine, err := continuator.New(client,
		continuator.WithLogger(log),
		continuator.WithSilenceThreshold(*silenceFlag),
		continuator.WithTranspose(*transposeFlag),
		deviceOption(*inFlag, continuator.WithInputDevice, continuator.WithInputName),
		deviceOption(*outFlag, continuator.WithOutputDevice, continuator.WithOutputName),
	)
	if err != nil {
		log.Error("Invalid configuration", log.Field().Error("error", err))
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = engine.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, continuator.ErrNoInputDevices), errors.Is(err, continuator.ErrNoOutputDevices):
		log.Warn("Nothing to do", log.Field().Error("reason", err))
	default:
		log.Error("Continuator stopped", log.Field().Error("error", err))
		os.Exit(1)
	}
}

// deviceOption treats a numeric selector as an index and anything else as a
// name.
func deviceOption(sel string, byIndex func(int) continuator.Option, byName func(string) continuator.Option) continuator.Option {
	if i, err := strconv.Atoi(sel); err == nil {
		return byIndex(i)
	}
	return byName(sel)
}

// listDevices prints the client's inputs and outputs to w, then releases the
// client.
func listDevices(w io.Writer, client contracts.ClientMIDI) error {
	err := printDevices(w, client)
	return multierr.Combine(
		err,
		wrapRelease("stop input", client.Stop()),
		wrapRelease("close output", client.CloseOutput()),
	)
}

func printDevices(w io.Writer, client contracts.ClientMIDI) error {
	inputs, err := client.ListDevices()
	if err != nil {
		return fmt.Errorf("inputs: %w", err)
	}
	outputs, err := client.ListOutputDevices()
	if err != nil {
		return fmt.Errorf("outputs: %w", err)
	}
	fmt.Fprintln(w, "Inputs:")
	for i, d := range inputs {
		fmt.Fprintf(w, "  %d: %s\n", i, d)
	}
	fmt.Fprintln(w, "Outputs:")
	for i, d := range outputs {
		fmt.Fprintf(w, "  %d: %s\n", i, d)
	}
	return nil
}

func wrapRelease(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
