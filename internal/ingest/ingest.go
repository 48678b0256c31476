// Package ingest loads the upstream input contract from disk: per-stream
// records of unit-canonicalized, time-ordered samples. Format detection
// and unit verification live upstream; this is only the boundary shim
// the CLI needs.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

// expected CSV header columns, in order.
var header = []string{"stream_id", "nominal_interval_s", "mandatory", "timestamp", "value"}

// LoadStreams reads a CSV file of samples into per-stream series. Rows
// of different streams may interleave; within a stream, file order is
// preserved and the engine enforces the strictly-increasing contract.
func LoadStreams(path string) ([]schema.StreamSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadStreams(f)
}

// ReadStreams parses the stream CSV from any reader.
func ReadStreams(r io.Reader) ([]schema.StreamSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := checkHeader(head); err != nil {
		return nil, err
	}

	byID := make(map[string]*schema.StreamSeries)
	var order []string

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		streamID := record[0]
		nominal, err := strconv.ParseInt(record[1], 10, 64)
		if err != nil || nominal <= 0 {
			return nil, fmt.Errorf("line %d: invalid nominal_interval_s %q", line, record[1])
		}
		mandatory, err := strconv.ParseBool(record[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid mandatory flag %q", line, record[2])
		}
		ts, err := time.Parse(time.RFC3339, record[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid timestamp %q: %w", line, record[3], err)
		}
		value, err := strconv.ParseFloat(record[4], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q", line, record[4])
		}

		s, ok := byID[streamID]
		if !ok {
			s = &schema.StreamSeries{
				StreamID:        streamID,
				NominalInterval: time.Duration(nominal) * time.Second,
				Mandatory:       mandatory,
			}
			byID[streamID] = s
			order = append(order, streamID)
		} else if s.NominalInterval != time.Duration(nominal)*time.Second || s.Mandatory != mandatory {
			return nil, fmt.Errorf("line %d: stream %q redeclares nominal interval or mandatory flag", line, streamID)
		}

		s.Samples = append(s.Samples, schema.Sample{Timestamp: ts.UTC(), Value: value})
	}

	if len(byID) == 0 {
		return nil, fmt.Errorf("no samples found")
	}

	sort.Strings(order)
	out := make([]schema.StreamSeries, 0, len(byID))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func checkHeader(head []string) error {
	if len(head) != len(header) {
		return fmt.Errorf("expected %d header columns %v, got %d", len(header), header, len(head))
	}
	for i, want := range header {
		if head[i] != want {
			return fmt.Errorf("header column %d: expected %q, got %q", i, want, head[i])
		}
	}
	return nil
}
