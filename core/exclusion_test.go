package core

import (
	"testing"
	"time"

	"github.com/mkarlsen/gridsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exclBase = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

// majorGapOf builds a single MAJOR_GAP interval for a stream.
func majorGapOf(stream string, start, end time.Time) schema.IntervalClassification {
	return schema.IntervalClassification{
		StreamID: stream,
		Start:    start,
		End:      end,
		Duration: end.Sub(start),
		Size:     schema.MajorGap,
		Semantic: schema.UnknownGap,
	}
}

func TestDetectExclusionWindows_TwoStreamOverlap(t *testing.T) {
	// Two mandatory streams silent together for 12 hours.
	intervals := map[string][]schema.IntervalClassification{
		"flow":        {majorGapOf("flow", exclBase, exclBase.Add(14*time.Hour))},
		"temp-supply": {majorGapOf("temp-supply", exclBase.Add(time.Hour), exclBase.Add(13*time.Hour))},
	}
	mandatory := map[string]bool{"flow": true, "temp-supply": true}

	windows := DetectExclusionWindows(intervals, mandatory)
	require.Len(t, windows, 1)

	w := windows[0]
	assert.Equal(t, schema.ProposedWindow, w.Status)
	assert.Equal(t, []string{"flow", "temp-supply"}, w.AffectedStreams)
	// The window spans the union of the involved gaps.
	assert.Equal(t, exclBase, w.Start)
	assert.Equal(t, exclBase.Add(14*time.Hour), w.End)
	assert.Equal(t, 12*time.Hour, w.OverlapDuration)
}

func TestDetectExclusionWindows_ShortOverlapIgnored(t *testing.T) {
	// Only 6 hours of concurrent silence: below the threshold.
	intervals := map[string][]schema.IntervalClassification{
		"flow":        {majorGapOf("flow", exclBase, exclBase.Add(10*time.Hour))},
		"temp-supply": {majorGapOf("temp-supply", exclBase.Add(4*time.Hour), exclBase.Add(16*time.Hour))},
	}
	mandatory := map[string]bool{"flow": true, "temp-supply": true}

	assert.Empty(t, DetectExclusionWindows(intervals, mandatory))
}

func TestDetectExclusionWindows_ExactlyEightHoursQualifies(t *testing.T) {
	intervals := map[string][]schema.IntervalClassification{
		"flow":        {majorGapOf("flow", exclBase, exclBase.Add(8*time.Hour))},
		"temp-supply": {majorGapOf("temp-supply", exclBase, exclBase.Add(8*time.Hour))},
	}
	mandatory := map[string]bool{"flow": true, "temp-supply": true}

	windows := DetectExclusionWindows(intervals, mandatory)
	require.Len(t, windows, 1)
	assert.Equal(t, 8*time.Hour, windows[0].OverlapDuration)
}

func TestDetectExclusionWindows_SingleStreamNeverProposes(t *testing.T) {
	// One stream down for a week is a sensor problem, not an outage.
	intervals := map[string][]schema.IntervalClassification{
		"flow": {majorGapOf("flow", exclBase, exclBase.Add(7*24*time.Hour))},
	}
	mandatory := map[string]bool{"flow": true}

	assert.Empty(t, DetectExclusionWindows(intervals, mandatory))
}

func TestDetectExclusionWindows_OptionalStreamsDoNotCount(t *testing.T) {
	intervals := map[string][]schema.IntervalClassification{
		"flow":    {majorGapOf("flow", exclBase, exclBase.Add(12*time.Hour))},
		"ambient": {majorGapOf("ambient", exclBase, exclBase.Add(12*time.Hour))},
	}
	mandatory := map[string]bool{"flow": true, "ambient": false}

	assert.Empty(t, DetectExclusionWindows(intervals, mandatory))
}

func TestDetectExclusionWindows_ThreeStreamsOneWindow(t *testing.T) {
	// Three fully overlapping outages collapse into a single proposal,
	// not one per pair.
	intervals := map[string][]schema.IntervalClassification{
		"flow":        {majorGapOf("flow", exclBase, exclBase.Add(24*time.Hour))},
		"temp-supply": {majorGapOf("temp-supply", exclBase, exclBase.Add(24*time.Hour))},
		"temp-return": {majorGapOf("temp-return", exclBase, exclBase.Add(24*time.Hour))},
	}
	mandatory := map[string]bool{"flow": true, "temp-supply": true, "temp-return": true}

	windows := DetectExclusionWindows(intervals, mandatory)
	require.Len(t, windows, 1)
	assert.Equal(t, []string{"flow", "temp-return", "temp-supply"}, windows[0].AffectedStreams)
}

func TestDetectExclusionWindows_DisjointOutagesSeparateWindows(t *testing.T) {
	day := 24 * time.Hour
	intervals := map[string][]schema.IntervalClassification{
		"flow": {
			majorGapOf("flow", exclBase, exclBase.Add(12*time.Hour)),
			majorGapOf("flow", exclBase.Add(5*day), exclBase.Add(5*day+12*time.Hour)),
		},
		"temp-supply": {
			majorGapOf("temp-supply", exclBase, exclBase.Add(12*time.Hour)),
			majorGapOf("temp-supply", exclBase.Add(5*day), exclBase.Add(5*day+12*time.Hour)),
		},
	}
	mandatory := map[string]bool{"flow": true, "temp-supply": true}

	windows := DetectExclusionWindows(intervals, mandatory)
	require.Len(t, windows, 2)
	assert.True(t, windows[0].Start.Before(windows[1].Start))
	assert.NotEqual(t, windows[0].WindowID, windows[1].WindowID)
}

func TestDetectExclusionWindows_DeterministicIDs(t *testing.T) {
	intervals := map[string][]schema.IntervalClassification{
		"flow":        {majorGapOf("flow", exclBase, exclBase.Add(12*time.Hour))},
		"temp-supply": {majorGapOf("temp-supply", exclBase, exclBase.Add(12*time.Hour))},
	}
	mandatory := map[string]bool{"flow": true, "temp-supply": true}

	first := DetectExclusionWindows(intervals, mandatory)
	second := DetectExclusionWindows(intervals, mandatory)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].WindowID, second[0].WindowID)
	assert.Regexp(t, `^w-[0-9a-f]{12}$`, first[0].WindowID)
}
