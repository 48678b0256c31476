package core

import (
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

// Exclusion window detection thresholds.
const (
	minOverlapStreams  = 2
	minOverlapDuration = 8 * time.Hour
)

// majorSpan is one MAJOR_GAP of a mandatory stream, used during the
// overlap sweep.
type majorSpan struct {
	stream string
	start  time.Time
	end    time.Time
}

// DetectExclusionWindows correlates MAJOR_GAPs across mandatory streams
// and proposes maintenance/offline windows wherever at least two streams
// are concurrently silent for eight hours or more. Each maximal
// concurrent-overlap region yields exactly one proposal spanning the
// union of the gaps involved. The component only surfaces evidence; the
// decision belongs to the caller's approval boundary. Adjacent or
// overlapping proposals are not merged here.
func DetectExclusionWindows(intervals map[string][]schema.IntervalClassification, mandatory map[string]bool) []schema.ExclusionWindow {
	spans := collectMajorSpans(intervals, mandatory)
	if len(spans) < minOverlapStreams {
		return nil
	}

	// Sweep every boundary segment and mark where >=2 distinct
	// mandatory streams are concurrently inside a MAJOR_GAP.
	boundaries := spanBoundaries(spans)

	var windows []schema.ExclusionWindow
	var regionStart, regionEnd time.Time
	var regionSpans map[int]struct{}
	inRegion := false

	flush := func() {
		if !inRegion {
			return
		}
		inRegion = false
		if regionEnd.Sub(regionStart) < minOverlapDuration {
			return
		}
		windows = append(windows, buildWindow(spans, regionSpans, regionEnd.Sub(regionStart)))
	}

	for i := 0; i+1 < len(boundaries); i++ {
		segStart, segEnd := boundaries[i], boundaries[i+1]
		active := activeSpans(spans, segStart, segEnd)
		if countStreams(spans, active) >= minOverlapStreams {
			if !inRegion {
				inRegion = true
				regionStart = segStart
				regionSpans = make(map[int]struct{})
			}
			regionEnd = segEnd
			for idx := range active {
				regionSpans[idx] = struct{}{}
			}
		} else {
			flush()
		}
	}
	flush()

	sort.Slice(windows, func(i, j int) bool { return windows[i].Start.Before(windows[j].Start) })
	return windows
}

func collectMajorSpans(intervals map[string][]schema.IntervalClassification, mandatory map[string]bool) []majorSpan {
	var spans []majorSpan
	for stream, ics := range intervals {
		if !mandatory[stream] {
			continue
		}
		for _, ic := range ics {
			if ic.Size == schema.MajorGap {
				spans = append(spans, majorSpan{stream: stream, start: ic.Start, end: ic.End})
			}
		}
	}
	// Deterministic sweep order regardless of map iteration.
	sort.Slice(spans, func(i, j int) bool {
		if !spans[i].start.Equal(spans[j].start) {
			return spans[i].start.Before(spans[j].start)
		}
		if !spans[i].end.Equal(spans[j].end) {
			return spans[i].end.Before(spans[j].end)
		}
		return spans[i].stream < spans[j].stream
	})
	return spans
}

func spanBoundaries(spans []majorSpan) []time.Time {
	seen := make(map[int64]struct{}, len(spans)*2)
	var out []time.Time
	for _, s := range spans {
		for _, t := range []time.Time{s.start, s.end} {
			if _, ok := seen[t.UnixNano()]; !ok {
				seen[t.UnixNano()] = struct{}{}
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// activeSpans returns indices of spans fully covering [segStart, segEnd].
func activeSpans(spans []majorSpan, segStart, segEnd time.Time) map[int]struct{} {
	active := make(map[int]struct{})
	for i, s := range spans {
		if !s.start.After(segStart) && !s.end.Before(segEnd) {
			active[i] = struct{}{}
		}
	}
	return active
}

func countStreams(spans []majorSpan, active map[int]struct{}) int {
	streams := make(map[string]struct{}, len(active))
	for idx := range active {
		streams[spans[idx].stream] = struct{}{}
	}
	return len(streams)
}

// buildWindow emits one proposal covering the union of the gaps that
// participated in a qualifying overlap region.
func buildWindow(spans []majorSpan, involved map[int]struct{}, overlap time.Duration) schema.ExclusionWindow {
	var start, end time.Time
	streamSet := make(map[string]struct{})
	for idx := range involved {
		s := spans[idx]
		if start.IsZero() || s.start.Before(start) {
			start = s.start
		}
		if end.IsZero() || s.end.After(end) {
			end = s.end
		}
		streamSet[s.stream] = struct{}{}
	}

	streams := make([]string, 0, len(streamSet))
	for s := range streamSet {
		streams = append(streams, s)
	}
	sort.Strings(streams)

	return schema.ExclusionWindow{
		WindowID:        windowID(start, end, streams),
		Start:           start,
		End:             end,
		AffectedStreams: streams,
		OverlapDuration: overlap,
		Status:          schema.ProposedWindow,
	}
}

// windowID derives a stable identifier from the window bounds and the
// affected streams, so identical input proposes identical IDs and a
// stored decision survives a re-run.
func windowID(start, end time.Time, streams []string) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d|%d", start.Unix(), end.Unix())
	for _, s := range streams {
		_, _ = fmt.Fprintf(h, "|%s", s)
	}
	return fmt.Sprintf("w-%012x", h.Sum64()&0xffffffffffff)
}
