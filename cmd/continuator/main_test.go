package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/leandrodaf/continuator/sdk/contracts"
	"go.uber.org/multierr"
)

type listClient struct {
	contracts.ClientMIDI // unused methods panic

	inputs   []contracts.DeviceInfo
	outputs  []contracts.DeviceInfo
	listErr  error
	stopErr  error
	closeErr error
	stopped  bool
	closed   bool
}

func (c *listClient) ListDevices() ([]contracts.DeviceInfo, error) { return c.inputs, c.listErr }

func (c *listClient) ListOutputDevices() ([]contracts.DeviceInfo, error) { return c.outputs, nil }

func (c *listClient) Stop() error {
	c.stopped = true
	return c.stopErr
}

func (c *listClient) CloseOutput() error {
	c.closed = true
	return c.closeErr
}

func TestListDevices(t *testing.T) {
	client := &listClient{
		inputs:  []contracts.DeviceInfo{{Name: "Keystation 49", Manufacturer: "M-Audio"}},
		outputs: []contracts.DeviceInfo{{Name: "FLUID Synth"}},
	}
	var out bytes.Buffer
	if err := listDevices(&out, client); err != nil {
		t.Fatalf("listDevices: %v", err)
	}
	for _, want := range []string{"Inputs:", "0: Keystation 49 (M-Audio)", "Outputs:", "0: FLUID Synth"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output %q misses %q", out.String(), want)
		}
	}
	if !client.stopped || !client.closed {
		t.Fatalf("client not released: stopped=%v closed=%v", client.stopped, client.closed)
	}
}

func TestListDevices_ReportsReleaseErrors(t *testing.T) {
	client := &listClient{
		listErr:  errors.New("no MIDI devices found"),
		stopErr:  errors.New("input busy"),
		closeErr: errors.New("output gone"),
	}
	err := listDevices(&bytes.Buffer{}, client)
	if got := len(multierr.Errors(err)); got != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", got, err)
	}
	if !errors.Is(err, client.stopErr) || !errors.Is(err, client.closeErr) {
		t.Fatalf("release errors not reported: %v", err)
	}
	if !client.stopped || !client.closed {
		t.Fatalf("client not released after a listing failure")
	}
}
