//go:build ignore

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	// Import the capture and protocol packages
	"github.com/kordwall/g2link/internal/capture"
	"github.com/kordwall/g2link/internal/protocol"
)

// Statistics tracks re-parse results across captures
type Statistics struct {
	TotalFrames    int
	TotalFiles     int
	ParseSuccess   int
	ParseFailure   int
	DecodePartial  int
	MessageKinds   map[string]int
	FailedFrames   []FailedFrame
	PayloadLengths map[int]int
}

// FailedFrame stores information about a frame the parser rejected
type FailedFrame struct {
	File     string
	Index    int
	FrameHex string
	Error    string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate-frames <btsnoop-file-or-directory>")
		fmt.Println("Example: validate-frames captures/")
		fmt.Println("         validate-frames btsnoop_hci.log")
		os.Exit(1)
	}

	path := os.Args[1]

	stats := Statistics{
		MessageKinds:   make(map[string]int),
		FailedFrames:   []FailedFrame{},
		PayloadLengths: make(map[int]int),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		logs, err := filepath.Glob(filepath.Join(path, "*.log"))
		if err != nil {
			fmt.Printf("Error listing captures: %v\n", err)
			os.Exit(1)
		}
		snoops, _ := filepath.Glob(filepath.Join(path, "*.btsnoop"))
		files = append(logs, snoops...)
		if len(files) == 0 {
			fmt.Printf("No capture files (*.log, *.btsnoop) found in %s\n", path)
			os.Exit(1)
		}
	} else {
		files = []string{path}
	}

	fmt.Printf("=== G2 Frame Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}

	printStatistics(&stats)
}

// processFile re-parses every extracted frame from its raw bytes. The
// extractor already ran ParseFrame once; running it again from Raw catches
// regressions where Marshal and ParseFrame disagree.
func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := capture.Open(filename)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", filename, err)
		return
	}

	for _, p := range capture.ExtractPackets(f) {
		stats.TotalFrames++
		stats.PayloadLengths[len(p.Frame.Payload)]++

		frame, err := protocol.ParseFrame(p.Raw)
		if err != nil {
			stats.ParseFailure++
			stats.FailedFrames = append(stats.FailedFrames, FailedFrame{
				File:     filename,
				Index:    p.Index,
				FrameHex: hex.EncodeToString(p.Raw),
				Error:    err.Error(),
			})
			continue
		}
		stats.ParseSuccess++

		msg := protocol.Classify(frame)
		switch m := msg.(type) {
		case *protocol.AckMessage:
			if m.Success {
				stats.MessageKinds["ack-success"]++
			} else {
				stats.MessageKinds["ack-received"]++
			}
		case *protocol.NotifyMessage:
			stats.MessageKinds["notify"]++
			if m.Partial {
				stats.DecodePartial++
			}
		default:
			stats.MessageKinds[fmt.Sprintf("unknown-0x%02x", msg.Type())]++
		}

		// Round-trip check: re-marshal must reproduce the wire bytes
		remarshaled, err := frame.Marshal()
		if err == nil && !bytesEqual(remarshaled, p.Raw) {
			stats.FailedFrames = append(stats.FailedFrames, FailedFrame{
				File:     filename,
				Index:    p.Index,
				FrameHex: hex.EncodeToString(p.Raw),
				Error:    "marshal round-trip mismatch: " + hex.EncodeToString(remarshaled),
			})
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func printStatistics(stats *Statistics) {
	fmt.Println("=== Results ===")
	fmt.Printf("Files:          %d\n", stats.TotalFiles)
	fmt.Printf("Frames:         %d\n", stats.TotalFrames)
	fmt.Printf("Parse success:  %d\n", stats.ParseSuccess)
	fmt.Printf("Parse failure:  %d\n", stats.ParseFailure)
	fmt.Printf("Partial decode: %d\n", stats.DecodePartial)

	if len(stats.MessageKinds) > 0 {
		fmt.Println("\nMessage kinds:")
		kinds := make([]string, 0, len(stats.MessageKinds))
		for kind := range stats.MessageKinds {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Printf("  %-16s %6d\n", kind, stats.MessageKinds[kind])
		}
	}

	if len(stats.PayloadLengths) > 0 {
		fmt.Println("\nPayload length distribution:")
		lengths := make([]int, 0, len(stats.PayloadLengths))
		for l := range stats.PayloadLengths {
			lengths = append(lengths, l)
		}
		sort.Ints(lengths)
		for _, l := range lengths {
			fmt.Printf("  %4d bytes: %d\n", l, stats.PayloadLengths[l])
		}
	}

	if len(stats.FailedFrames) > 0 {
		fmt.Printf("\nFailures (%d):\n", len(stats.FailedFrames))
		limit := len(stats.FailedFrames)
		if limit > 20 {
			limit = 20
		}
		for _, ff := range stats.FailedFrames[:limit] {
			fmt.Printf("  %s frame %d: %s\n    %s\n", ff.File, ff.Index, ff.Error, ff.FrameHex)
		}
		if len(stats.FailedFrames) > limit {
			fmt.Printf("  ... and %d more\n", len(stats.FailedFrames)-limit)
		}
	}
}
