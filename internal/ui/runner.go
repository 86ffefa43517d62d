package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig holds configuration for a multi-step session operation
type RunnerConfig struct {
	Title           string            // Command title (e.g., "Glasses Connect")
	Command         string            // Full command (e.g., "g2link-ctl connect")
	Params          map[string]string // Parameters to display in header
	StepNames       []string          // Names for each step
	Troubleshooting []string          // Tips shown in the failure box
	Verbose         bool              // Whether to show the frame log
	Output          io.Writer         // Output writer (default: os.Stdout)
}

// Runner orchestrates the UI for a multi-step session operation against
// the glasses. It manages the header, progress and result flow and
// provides a callback for reporting per-step progress.
type Runner struct {
	config    RunnerConfig
	header    *Header
	progress  *Progress
	output    io.Writer
	frameLog  *FrameLog
	startTime time.Time
	width     int
}

// NewRunner creates a new runner for a session operation
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	width := GetTerminalWidth()

	header := NewHeader(config.Title, config.Command, config.Params)
	header.SetWidth(width)

	var prog *Progress
	if len(config.StepNames) > 0 {
		prog = NewProgress("", len(config.StepNames))
		prog.SetWidth(width)
		prog.SetStepNames(config.StepNames)
	}

	return &Runner{
		config:   config,
		header:   header,
		progress: prog,
		output:   config.Output,
		frameLog: NewFrameLog(),
		width:    width,
	}
}

// Operation is the function signature for the work a Runner drives.
// The operation receives a StepCallback to report progress.
type Operation func(onStep StepCallback) error

// FrameLog returns the runner's frame log so the operation can record
// traffic for verbose display.
func (r *Runner) FrameLog() *FrameLog {
	return r.frameLog
}

// Run executes the operation with UI updates. It displays the header,
// prints each step as it completes, and shows the result. Details, when
// non-nil, are added to the success box.
func (r *Runner) Run(ctx context.Context, operation func(onStep StepCallback) (map[string]string, error)) error {
	r.startTime = time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := operation(r.stepCallback())
	duration := time.Since(r.startTime)

	if err != nil {
		r.printFailure(err)
	} else {
		r.printSuccess(details, duration)
	}

	return err
}

// RunSteps is Run for operations without custom result details.
func (r *Runner) RunSteps(ctx context.Context, operation Operation) error {
	return r.Run(ctx, func(onStep StepCallback) (map[string]string, error) {
		return nil, operation(onStep)
	})
}

// stepCallback builds the callback handed to the operation
func (r *Runner) stepCallback() StepCallback {
	return func(stepNumber int, name string, status StepStatus, message string) {
		if r.progress == nil {
			return
		}

		if name != "" && stepNumber > 0 && stepNumber <= len(r.progress.Steps) {
			r.progress.Steps[stepNumber-1].Name = name
		}

		r.progress.UpdateStep(stepNumber, status, message)

		if stepNumber < 1 || stepNumber > len(r.progress.Steps) {
			return
		}
		step := r.progress.Steps[stepNumber-1]
		if status == StepComplete || status == StepFailed || status == StepSkipped {
			_, _ = fmt.Fprintln(r.output, r.progress.renderStepLine(step))
		} else if status == StepRunning {
			// Running line is overwritten when the step settles
			_, _ = fmt.Fprint(r.output, r.progress.renderStepLine(step)+"\r")
		}
	}
}

// printSuccess prints a success result
func (r *Runner) printSuccess(details map[string]string, duration time.Duration) {
	_, _ = fmt.Fprintln(r.output)

	if details == nil {
		details = make(map[string]string)
	}
	details["Duration"] = duration.Round(time.Millisecond).String()

	result := NewSuccessResult(r.config.Title+" complete", details)
	result.SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, result.Render())

	if r.config.Verbose && !r.frameLog.Empty() {
		_, _ = fmt.Fprintln(r.output)
		r.frameLog.SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, r.frameLog.Render())
	}
}

// printFailure prints a failure result with troubleshooting
func (r *Runner) printFailure(err error) {
	_, _ = fmt.Fprintln(r.output)

	tips := r.config.Troubleshooting
	if len(tips) == 0 {
		tips = []string{
			"Make sure the glasses are unfolded and in range",
			"Disconnect the vendor app; the glasses hold one link at a time",
			"Run with --verbose to see the exact frames exchanged",
		}
	}

	result := NewFailureResult(r.config.Title+" failed", err, tips)
	result.SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, result.Render())

	// Failures always show the traffic in verbose mode
	if r.config.Verbose && !r.frameLog.Empty() {
		_, _ = fmt.Fprintln(r.output)
		r.frameLog.SetWidth(r.width)
		_, _ = fmt.Fprintln(r.output, r.frameLog.Render())
	}
}

// PrintCommandHeader prints a styled command header for commands that do
// not need the full Runner flow
func PrintCommandHeader(title, command string, params map[string]string) {
	header := NewHeader(title, command, params)
	fmt.Println(header.Render())
	fmt.Println()
}

// PrintPleaseWait prints a styled wait message for long-running
// operations. The duration hint sets expectations, e.g., "about 3 seconds".
func PrintPleaseWait(message string, durationHint string) {
	line := ProgressLabelStyle.Render("⏳ " + message)
	if durationHint != "" {
		line += " " + StepNoteStyle.Render("("+durationHint+")")
	}
	line += ProgressLabelStyle.Render("...")

	fmt.Println()
	fmt.Println(line)
	fmt.Println()
}
