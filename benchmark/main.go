// Package main provides a performance benchmarking tool for the gridsync engine.
// It measures synchronization throughput across different stream counts and
// sample densities, running each case multiple times, treating the first run as
// cold and averaging the rest as warm, generating CSV output for performance
// analysis and documentation.
//
// Usage: go run benchmark/main.go [output-csv]
//
//	output-csv: Path for the benchmark results (defaults to benchmark_results.csv)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/mkarlsen/gridsync/core"
	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
)

// BenchmarkResult holds the result of a benchmark case (cold run and average of warm runs).
type BenchmarkResult struct {
	Case     string
	Streams  int
	Samples  int
	Rows     int
	ColdTime string
	WarmTime string
}

// BenchmarkCase describes one synthetic workload.
type BenchmarkCase struct {
	Name        string
	Streams     int
	Days        int
	SampleEvery time.Duration
	Step        time.Duration
}

func main() {
	outputPath := "benchmark_results.csv"
	if len(os.Args) == 2 {
		outputPath = os.Args[1]
	}

	cases := []BenchmarkCase{
		{Name: "small", Streams: 3, Days: 7, SampleEvery: 15 * time.Minute, Step: 15 * time.Minute},
		{Name: "medium", Streams: 6, Days: 90, SampleEvery: 5 * time.Minute, Step: 15 * time.Minute},
		{Name: "large", Streams: 10, Days: 365, SampleEvery: 5 * time.Minute, Step: 15 * time.Minute},
		{Name: "dense", Streams: 10, Days: 365, SampleEvery: time.Minute, Step: 5 * time.Minute},
	}

	const warmRuns = 3

	var results []BenchmarkResult
	for _, bc := range cases {
		fmt.Printf("Running case %s (%d streams, %d days)...\n", bc.Name, bc.Streams, bc.Days)
		result, err := runCase(bc, warmRuns)
		if err != nil {
			fmt.Printf("Case %s failed: %v\n", bc.Name, err)
			os.Exit(1)
		}
		results = append(results, result)
	}

	if err := saveResults(results, outputPath); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runCase executes one benchmark case: a cold run followed by warm runs.
func runCase(bc BenchmarkCase, warmRuns int) (BenchmarkResult, error) {
	streams := generateStreams(bc)
	samples := 0
	for _, s := range streams {
		samples += len(s.Samples)
	}

	cfg := &contract.Config{
		Step:        bc.Step,
		Tolerance:   2 * bc.Step,
		AnomalyJump: contract.DefaultAnomalyJump,
		Workers:     contract.DefaultWorkers,
	}

	cold, rows, err := timedRun(cfg, streams)
	if err != nil {
		return BenchmarkResult{}, err
	}

	var warmTotal time.Duration
	for range warmRuns {
		d, _, err := timedRun(cfg, streams)
		if err != nil {
			return BenchmarkResult{}, err
		}
		warmTotal += d
	}

	return BenchmarkResult{
		Case:     bc.Name,
		Streams:  bc.Streams,
		Samples:  samples,
		Rows:     rows,
		ColdTime: cold.String(),
		WarmTime: (warmTotal / time.Duration(warmRuns)).String(),
	}, nil
}

// timedRun runs the pipeline once without a decision store and measures it.
func timedRun(cfg *contract.Config, streams []schema.StreamSeries) (time.Duration, int, error) {
	start := time.Now()
	result, err := core.Synchronize(context.Background(), cfg, streams, nil)
	if err != nil {
		return 0, 0, err
	}
	return time.Since(start), len(result.Rows), nil
}

// generateStreams builds synthetic mandatory streams with sinusoidal values
// and deterministic phase offsets, so runs are reproducible.
func generateStreams(bc BenchmarkCase) []schema.StreamSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	span := time.Duration(bc.Days) * 24 * time.Hour
	count := int(span / bc.SampleEvery)

	streams := make([]schema.StreamSeries, 0, bc.Streams)
	for i := range bc.Streams {
		samples := make([]schema.Sample, 0, count)
		phase := float64(i) * 0.7
		for j := range count {
			ts := base.Add(time.Duration(j) * bc.SampleEvery)
			samples = append(samples, schema.Sample{
				Timestamp: ts,
				Value:     50 + 10*math.Sin(phase+float64(j)/96),
			})
		}
		streams = append(streams, schema.StreamSeries{
			StreamID:        fmt.Sprintf("stream-%02d", i),
			NominalInterval: bc.SampleEvery,
			Mandatory:       true,
			Samples:         samples,
		})
	}
	return streams
}

// saveResults writes the benchmark results to a CSV file.
func saveResults(results []BenchmarkResult, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"case", "streams", "samples", "rows", "cold", "warm"}); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Case,
			fmt.Sprintf("%d", r.Streams),
			fmt.Sprintf("%d", r.Samples),
			fmt.Sprintf("%d", r.Rows),
			r.ColdTime,
			r.WarmTime,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// printSummary prints a human-readable summary of the benchmark results.
func printSummary(results []BenchmarkResult) {
	fmt.Println("\nBenchmark summary:")
	for _, r := range results {
		fmt.Printf("  %-8s %2d streams, %8d samples -> %7d rows (cold %s, warm %s)\n",
			r.Case, r.Streams, r.Samples, r.Rows, r.ColdTime, r.WarmTime)
	}
}
