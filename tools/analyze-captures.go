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

// CaptureSummary aggregates one btsnoop file
type CaptureSummary struct {
	File       string
	Records    int
	Frames     int
	Sent       int
	Received   int
	Fragmented int
	Services   map[protocol.ServiceID]int
	Types      map[byte]int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze-captures <btsnoop-file-or-directory> [--frames]")
		fmt.Println("Example: analyze-captures captures/")
		fmt.Println("         analyze-captures btsnoop_hci.log --frames")
		os.Exit(1)
	}

	path := os.Args[1]
	showFrames := len(os.Args) > 2 && os.Args[2] == "--frames"

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		entries, err := filepath.Glob(filepath.Join(path, "*.log"))
		if err != nil {
			fmt.Printf("Error listing captures: %v\n", err)
			os.Exit(1)
		}
		more, _ := filepath.Glob(filepath.Join(path, "*.btsnoop"))
		files = append(entries, more...)
		if len(files) == 0 {
			fmt.Printf("No capture files (*.log, *.btsnoop) found in %s\n", path)
			os.Exit(1)
		}
	} else {
		files = []string{path}
	}

	fmt.Printf("=== G2 Capture Analyzer ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		summary := analyzeFile(file, showFrames)
		if summary != nil {
			printSummary(summary)
		}
	}
}

func analyzeFile(filename string, showFrames bool) *CaptureSummary {
	f, err := capture.Open(filename)
	if err != nil {
		fmt.Printf("Error opening %s: %v\n", filename, err)
		return nil
	}

	packets := capture.ExtractPackets(f)

	summary := &CaptureSummary{
		File:     filename,
		Records:  len(f.Records),
		Frames:   len(packets),
		Services: make(map[protocol.ServiceID]int),
		Types:    make(map[byte]int),
	}

	for _, p := range packets {
		if p.Received {
			summary.Received++
		} else {
			summary.Sent++
		}
		if p.Frame.Fragmented() {
			summary.Fragmented++
		}
		summary.Services[p.Frame.Service]++
		summary.Types[p.Frame.Type]++

		if showFrames {
			dir := "→"
			if p.Received {
				dir = "←"
			}
			fmt.Printf("%4d %s %s %s payload=%s\n",
				p.Index, p.Time.Format("15:04:05.000"), dir, p.Frame,
				hex.EncodeToString(p.Frame.Payload))
		}
	}

	if showFrames {
		fmt.Println()
	}

	return summary
}

func printSummary(s *CaptureSummary) {
	fmt.Printf("File: %s\n", s.File)
	fmt.Printf("  Records:    %d\n", s.Records)
	fmt.Printf("  Frames:     %d (%d sent, %d received, %d fragments)\n",
		s.Frames, s.Sent, s.Received, s.Fragmented)

	if len(s.Services) > 0 {
		fmt.Println("  Services:")
		services := make([]protocol.ServiceID, 0, len(s.Services))
		for svc := range s.Services {
			services = append(services, svc)
		}
		sort.Slice(services, func(i, j int) bool {
			return s.Services[services[i]] > s.Services[services[j]]
		})
		for _, svc := range services {
			fmt.Printf("    %-22s %6d\n", svc, s.Services[svc])
		}
	}

	if len(s.Types) > 0 {
		fmt.Println("  Frame types:")
		types := make([]byte, 0, len(s.Types))
		for t := range s.Types {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
		for _, t := range types {
			fmt.Printf("    0x%02x %-10s %6d\n", t, protocol.FrameTypeName(t), s.Types[t])
		}
	}

	fmt.Println()
}
