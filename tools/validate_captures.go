//go:build ignore

// Validate_captures re-decodes the capture files a bridge writes with
// --analysis-dir and reports every record whose pulses no longer decode to
// the command that was logged with them.
//
// Usage:
//
//	go run tools/validate_captures.go <capture.jsonl | capture-dir>
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/muurk/rev4switch/internal/protocol"
	"github.com/muurk/rev4switch/internal/server"
)

// FailedRecord tracks a record that did not validate
type FailedRecord struct {
	File       string
	LineNumber int
	Seq        int
	Error      string
	Pulses     string
}

// Statistics tracks validation results
type Statistics struct {
	TotalFiles    int
	TotalRecords  int
	Matched       int
	Mismatched    int
	Origins       map[string]int
	PulseLengths  map[int]int
	Addresses     map[string]int
	FailedRecords []FailedRecord
	LegacyLooking int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_captures <jsonl-file | directory>")
		fmt.Println("Example: validate_captures ./captures/capture-20261015.jsonl")
		os.Exit(1)
	}

	path := os.Args[1]

	stats := Statistics{
		Origins:      make(map[string]int),
		PulseLengths: make(map[int]int),
		Addresses:    make(map[string]int),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	var files []string
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "capture-*.jsonl"))
		if err != nil {
			fmt.Printf("Error finding capture files: %v\n", err)
			os.Exit(1)
		}
		if len(files) == 0 {
			fmt.Printf("No capture files found in %s\n", path)
			os.Exit(1)
		}
	} else {
		files = []string{path}
	}

	fmt.Printf("=== rev4_switch Capture Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}

	printStatistics(&stats)
	if stats.Mismatched > 0 {
		os.Exit(2)
	}
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec server.CaptureRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			fmt.Printf("Error parsing JSON in %s line %d: %v\n", filename, lineNum, err)
			continue
		}

		stats.TotalRecords++
		stats.Origins[rec.Origin]++
		stats.PulseLengths[rec.PulseLength]++

		fail := func(msg string) {
			stats.Mismatched++
			stats.FailedRecords = append(stats.FailedRecords, FailedRecord{
				File:       filename,
				LineNumber: lineNum,
				Seq:        rec.Seq,
				Error:      msg,
				Pulses:     fmt.Sprint(rec.Pulses),
			})
		}

		got, err := protocol.DecodePulses(rec.Pulses, rec.PulseLength)
		if err != nil {
			fail(fmt.Sprintf("decode error: %v", err))
			continue
		}

		want := protocol.Command{ID: rec.ID, Unit: rec.Unit}
		if want.State, err = protocol.ParseState(rec.State); err != nil {
			fail(fmt.Sprintf("bad state in record: %v", err))
			continue
		}

		if got != want {
			// A train whose state slot reads on for a logged off command
			// was most likely sent with legacy state encoding
			if got.ID == want.ID && got.Unit == want.Unit && want.State == protocol.StateOff {
				stats.LegacyLooking++
			}
			fail(fmt.Sprintf("decodes to %v, record says %v", got, want))
			continue
		}
		if frame := got.Frame().String(); rec.Frame != "" && frame != rec.Frame {
			fail(fmt.Sprintf("frame %q, record says %q", frame, rec.Frame))
			continue
		}

		stats.Matched++
		stats.Addresses[fmt.Sprintf("id %2d unit %2d", got.ID, got.Unit)]++
	}
	if err := sc.Err(); err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Total Records:      %d\n", stats.TotalRecords)
	fmt.Printf("Matched:            %d (%.2f%%)\n", stats.Matched, percent(stats.Matched, stats.TotalRecords))
	fmt.Printf("Mismatched:         %d (%.2f%%)\n", stats.Mismatched, percent(stats.Mismatched, stats.TotalRecords))

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("ORIGINS\n")
	fmt.Printf("----------------------------------------\n")
	for _, origin := range sortedKeys(stats.Origins) {
		fmt.Printf("%-10s %d\n", origin, stats.Origins[origin])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("PULSE LENGTHS\n")
	fmt.Printf("----------------------------------------\n")
	for length, count := range stats.PulseLengths {
		fmt.Printf("%d: %d records (%.2f%%)\n", length, count, percent(count, stats.TotalRecords))
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("ADDRESSES SEEN\n")
	fmt.Printf("----------------------------------------\n")
	for _, addr := range sortedKeys(stats.Addresses) {
		fmt.Printf("%s: %d\n", addr, stats.Addresses[addr])
	}

	if len(stats.FailedRecords) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("MISMATCHES (%d total)\n", len(stats.FailedRecords))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.FailedRecords) > maxShow {
			fmt.Printf("(Showing first %d of %d mismatches)\n\n", maxShow, len(stats.FailedRecords))
		}
		for i, failed := range stats.FailedRecords {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nMismatch #%d:\n", i+1)
			fmt.Printf("  File: %s (line %d, seq %d)\n", failed.File, failed.LineNumber, failed.Seq)
			fmt.Printf("  Error: %s\n", failed.Error)
			fmt.Printf("  Pulses: %s\n", failed.Pulses)
		}
		if stats.LegacyLooking > 0 {
			fmt.Printf("\n%d off commands decode as on; the sender probably uses legacy state encoding\n", stats.LegacyLooking)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.Mismatched == 0 {
		fmt.Printf("✅ SUCCESS: All records decode to their logged command\n")
	} else {
		fmt.Printf("⚠️  ISSUES FOUND: %d records do not match\n", stats.Mismatched)
	}
	fmt.Printf("========================================\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
