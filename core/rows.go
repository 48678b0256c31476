package core

import (
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

// ClassifyRows fuses per-stream alignment, interval semantics, and
// approved exclusion windows into one gap_type and confidence per grid
// row. Decision order, first match wins:
//
//  1. inside an APPROVED window -> EXCLUDED, confidence 0
//  2. any mandatory stream MISSING -> the gap's semantic (or GAP),
//     confidence 0: row confidence measures alignment certainty, never
//     semantic certainty, so even a benign COV gap scores zero
//  3. otherwise VALID with the minimum mandatory stream confidence
//
// Optional streams are recorded but never block VALID and never enter
// the row confidence.
func ClassifyRows(
	grid *schema.MasterGrid,
	streams []schema.StreamSeries,
	alignments map[string][]schema.AlignmentResult,
	intervals map[string][]schema.IntervalClassification,
	windows []schema.ExclusionWindow,
) []schema.RowRecord {
	var approved []schema.ExclusionWindow
	for _, w := range windows {
		if w.Status == schema.ApprovedWindow {
			approved = append(approved, w)
		}
	}

	lookups := make(map[string]*gapLookup)
	for _, s := range streams {
		if s.Mandatory {
			lookups[s.StreamID] = newGapLookup(intervals[s.StreamID])
		}
	}

	rows := make([]schema.RowRecord, len(grid.Points))
	for i, ts := range grid.Points {
		row := schema.RowRecord{
			Timestamp: ts,
			Cells:     make(map[string]schema.StreamCell, len(streams)),
		}

		for _, s := range streams {
			a := alignments[s.StreamID][i]
			row.Cells[s.StreamID] = schema.StreamCell{
				Value:    a.Value,
				Quality:  a.Quality,
				Distance: a.Distance,
			}
		}

		if w := coveringWindow(approved, ts); w != nil {
			row.GapType = schema.ExcludedRow
			row.Confidence = 0
			row.ExclusionWindowID = w.WindowID
		} else if gapType, missing := mandatoryGapType(streams, alignments, lookups, i, ts); missing {
			row.GapType = gapType
			row.Confidence = 0
		} else {
			row.GapType = schema.ValidRow
			row.Confidence = minMandatoryConfidence(streams, alignments, i)
		}

		rows[i] = row
	}
	return rows
}

// mandatoryGapType reports whether any mandatory stream is MISSING at
// grid index i and, if so, the row classification the surrounding
// interval semantics dictate. When several mandatory streams are
// missing with different semantics, the most severe wins: anomaly
// evidence outranks benign COV silence.
func mandatoryGapType(
	streams []schema.StreamSeries,
	alignments map[string][]schema.AlignmentResult,
	lookups map[string]*gapLookup,
	i int,
	ts time.Time,
) (schema.GapType, bool) {
	missing := false
	best := schema.GapRow
	for _, s := range streams {
		if !s.Mandatory || alignments[s.StreamID][i].Quality != schema.MissingQuality {
			continue
		}
		missing = true
		if lu := lookups[s.StreamID]; lu != nil {
			if sem, ok := lu.semanticAt(ts); ok {
				best = maxSeverity(best, gapTypeForSemantic(sem))
			}
		}
	}
	return best, missing
}

func minMandatoryConfidence(streams []schema.StreamSeries, alignments map[string][]schema.AlignmentResult, i int) float64 {
	conf := 1.0
	for _, s := range streams {
		if !s.Mandatory {
			continue
		}
		if c, ok := schema.QualityConfidence[alignments[s.StreamID][i].Quality]; ok && c < conf {
			conf = c
		}
	}
	return conf
}

func coveringWindow(approved []schema.ExclusionWindow, ts time.Time) *schema.ExclusionWindow {
	for i := range approved {
		if approved[i].Covers(ts) {
			return &approved[i]
		}
	}
	return nil
}

// gapTypeForSemantic maps an interval semantic to the row gap type. An
// UNKNOWN semantic carries no usable information, so it reads as a
// generic GAP.
func gapTypeForSemantic(sem schema.GapSemantic) schema.GapType {
	switch sem {
	case schema.CovConstant:
		return schema.CovConstantRow
	case schema.CovMinor:
		return schema.CovMinorRow
	case schema.SensorAnomaly:
		return schema.AnomalyRow
	default:
		return schema.GapRow
	}
}

// gapSeverity orders non-valid row types from least to most severe.
var gapSeverity = map[schema.GapType]int{
	schema.GapRow:         0,
	schema.CovConstantRow: 1,
	schema.CovMinorRow:    2,
	schema.AnomalyRow:     3,
}

func maxSeverity(a, b schema.GapType) schema.GapType {
	if gapSeverity[b] > gapSeverity[a] {
		return b
	}
	return a
}

// gapLookup walks a stream's gap intervals in lockstep with the
// ascending grid, so each row's semantic lookup stays amortized O(1).
type gapLookup struct {
	gaps []schema.IntervalClassification
	idx  int
}

func newGapLookup(ics []schema.IntervalClassification) *gapLookup {
	var gaps []schema.IntervalClassification
	for _, ic := range ics {
		if ic.Size != schema.NormalInterval {
			gaps = append(gaps, ic)
		}
	}
	return &gapLookup{gaps: gaps}
}

// semanticAt returns the semantic of the gap spanning ts, if any.
func (g *gapLookup) semanticAt(ts time.Time) (schema.GapSemantic, bool) {
	for g.idx < len(g.gaps) && g.gaps[g.idx].End.Before(ts) {
		g.idx++
	}
	if g.idx < len(g.gaps) && !g.gaps[g.idx].Start.After(ts) && !g.gaps[g.idx].End.Before(ts) {
		return g.gaps[g.idx].Semantic, true
	}
	return "", false
}
