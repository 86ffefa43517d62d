package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRunnerVerboseRendersFrameLogOnFailure(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:     "Glasses Connect",
		Command:   "g2link-ctl connect",
		StepNames: []string{"Attach BLE link"},
		Verbose:   true,
		Output:    &out,
	})

	r.FrameLog().AddFrame("tx", []byte{0xAA, 0x01}, "")
	r.FrameLog().AddFrame("rx", []byte{0xC9, 0x02}, "")

	opErr := errors.New("link dropped")
	err := r.RunSteps(context.Background(), func(onStep StepCallback) error {
		onStep(1, "Attach BLE link", StepFailed, "")
		return opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("RunSteps() error = %v, want %v", err, opErr)
	}

	got := out.String()
	if !strings.Contains(got, "Frame Log") {
		t.Errorf("failure output missing the frame log box:\n%s", got)
	}
	for _, want := range []string{"aa01", "c902"} {
		if !strings.Contains(got, want) {
			t.Errorf("failure output missing frame %s:\n%s", want, got)
		}
	}
}

func TestRunnerQuietOmitsFrameLog(t *testing.T) {
	var out bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:   "Glasses Connect",
		Command: "g2link-ctl connect",
		Output:  &out,
	})

	r.FrameLog().AddFrame("tx", []byte{0xAA, 0x01}, "")

	err := r.RunSteps(context.Background(), func(onStep StepCallback) error {
		return nil
	})
	if err != nil {
		t.Fatalf("RunSteps() error = %v", err)
	}
	if strings.Contains(out.String(), "Frame Log") {
		t.Errorf("non-verbose run rendered the frame log:\n%s", out.String())
	}
}
