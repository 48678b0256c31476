package core

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
)

// Penalty magnitudes and the thresholds that trigger them.
const (
	jitterCVMax   = 0.05 // realized grid spacing CV beyond this flags a builder defect
	jitterPenalty = 0.05

	granularityPenalty = 0.05

	anomalyShareMinor   = 0.01
	anomalyShareMajor   = 0.05
	anomalyPenaltyMinor = 0.05
	anomalyPenaltyMajor = 0.10
)

// coveragePenaltyFor maps a VALID-row coverage percentage to its
// penalty tier. Full coverage is the norm; the tiers only bite when a
// meaningful share of rows cannot be trusted.
func coveragePenaltyFor(pct float64) float64 {
	switch {
	case pct >= 0.95:
		return 0
	case pct >= 0.80:
		return 0.05
	case pct >= 0.60:
		return 0.10
	default:
		return 0.15
	}
}

// buildMetrics summarizes the immutable results of the preceding stages
// into per-stream coverage, row counts, grid statistics, and a single
// stage confidence with itemized penalties. No classification happens
// here; soft conditions become warnings and deductions, never errors.
func buildMetrics(
	cfg *contract.Config,
	streams []schema.StreamSeries,
	intervals map[string][]schema.IntervalClassification,
	alignments map[string][]schema.AlignmentResult,
	grid *schema.MasterGrid,
	rows []schema.RowRecord,
	warnings []schema.Warning,
) *schema.SyncMetrics {
	m := &schema.SyncMetrics{
		RowCounts: make(map[schema.GapType]int),
		Warnings:  warnings,
	}

	for _, s := range streams {
		m.Streams = append(m.Streams, coverageForStream(s, alignments[s.StreamID], len(grid.Points)))
	}
	sort.Slice(m.Streams, func(i, j int) bool { return m.Streams[i].StreamID < m.Streams[j].StreamID })

	for _, r := range rows {
		m.RowCounts[r.GapType]++
	}
	if len(rows) > 0 {
		m.CoveragePct = float64(m.RowCounts[schema.ValidRow]) / float64(len(rows))
	}

	m.Grid = gridStats(grid)

	// --- Itemized penalties ---
	if p := coveragePenaltyFor(m.CoveragePct); p > 0 {
		m.Penalties = append(m.Penalties, schema.Penalty{
			Key:    schema.PenaltyCoverage,
			Amount: p,
			Detail: fmt.Sprintf("%.1f%% of rows are VALID", m.CoveragePct*100),
		})
	}

	if m.Grid.CV > jitterCVMax {
		// The grid is constructed, not measured; jitter here is a
		// builder defect and deserves a prominent flag.
		m.Penalties = append(m.Penalties, schema.Penalty{
			Key:    schema.PenaltyJitter,
			Amount: jitterPenalty,
			Detail: fmt.Sprintf("grid spacing CV %.4f exceeds %.2f", m.Grid.CV, jitterCVMax),
		})
		m.Warnings = append(m.Warnings, schema.Warning{
			Code:    schema.WarnGridJitter,
			Message: fmt.Sprintf("realized grid spacing CV %.4f: grid builder defect suspected", m.Grid.CV),
		})
	}

	m.Penalties = append(m.Penalties, granularityPenalties(cfg, streams, m)...)
	m.Penalties = append(m.Penalties, anomalyPenalty(intervals, m)...)

	m.Warnings = append(m.Warnings, toleranceWarnings(cfg, streams)...)

	m.StageConfidence = clamp01(1.0 - m.TotalPenalty())
	return m
}

func coverageForStream(s schema.StreamSeries, aligns []schema.AlignmentResult, points int) schema.StreamCoverage {
	cov := schema.StreamCoverage{StreamID: s.StreamID, Mandatory: s.Mandatory}
	for _, a := range aligns {
		switch a.Quality {
		case schema.ExactQuality:
			cov.Exact++
		case schema.CloseQuality:
			cov.Close++
		case schema.InterpQuality:
			cov.Interp++
		default:
			cov.Missing++
		}
	}
	if points > 0 {
		cov.CoveragePct = float64(cov.Exact+cov.Close+cov.Interp) / float64(points)
	}
	return cov
}

// gridStats measures the realized spacing of the grid.
func gridStats(grid *schema.MasterGrid) schema.GridStats {
	stats := schema.GridStats{Points: len(grid.Points)}
	if len(grid.Points) < 2 {
		return stats
	}

	diffs := make([]float64, 0, len(grid.Points)-1)
	var sum float64
	for i := 1; i < len(grid.Points); i++ {
		d := grid.Points[i].Sub(grid.Points[i-1]).Seconds()
		diffs = append(diffs, d)
		sum += d
	}
	mean := sum / float64(len(diffs))

	var sq float64
	for _, d := range diffs {
		sq += (d - mean) * (d - mean)
	}
	std := math.Sqrt(sq / float64(len(diffs)))

	stats.MeanStep = time.Duration(mean * float64(time.Second))
	stats.StdStep = time.Duration(std * float64(time.Second))
	if mean > 0 {
		stats.CV = std / mean
	}
	return stats
}

// granularityPenalties flags a grid step misconfigured relative to the
// streams' natural sampling rates: too coarse loses information, too
// fine guarantees low coverage.
func granularityPenalties(cfg *contract.Config, streams []schema.StreamSeries, m *schema.SyncMetrics) []schema.Penalty {
	minNominal, maxNominal := nominalRange(streams)
	if minNominal == 0 {
		return nil
	}

	var penalties []schema.Penalty
	if cfg.Step > 2*maxNominal {
		penalties = append(penalties, schema.Penalty{
			Key:    schema.PenaltyGranular,
			Amount: granularityPenalty,
			Detail: fmt.Sprintf("step %s coarser than twice the slowest nominal interval %s", cfg.Step, maxNominal),
		})
		m.Warnings = append(m.Warnings, schema.Warning{
			Code:    schema.WarnGridTooCoarse,
			Message: fmt.Sprintf("grid step %s loses information against nominal interval %s", cfg.Step, maxNominal),
		})
	} else if 2*cfg.Step < minNominal {
		penalties = append(penalties, schema.Penalty{
			Key:    schema.PenaltyGranular,
			Amount: granularityPenalty,
			Detail: fmt.Sprintf("step %s finer than half the fastest nominal interval %s", cfg.Step, minNominal),
		})
		m.Warnings = append(m.Warnings, schema.Warning{
			Code:    schema.WarnGridTooFine,
			Message: fmt.Sprintf("grid step %s oversamples nominal interval %s: expect low coverage", cfg.Step, minNominal),
		})
	}
	return penalties
}

// anomalyPenalty carries the upstream interval classification into the
// stage score: a notable share of SENSOR_ANOMALY gaps degrades trust in
// the whole dataset even where alignment succeeded.
func anomalyPenalty(intervals map[string][]schema.IntervalClassification, m *schema.SyncMetrics) []schema.Penalty {
	var total, anomalous int
	for _, ics := range intervals {
		for _, ic := range ics {
			total++
			if ic.Semantic == schema.SensorAnomaly {
				anomalous++
			}
		}
	}
	if total == 0 || anomalous == 0 {
		return nil
	}

	share := float64(anomalous) / float64(total)
	var amount float64
	switch {
	case share > anomalyShareMajor:
		amount = anomalyPenaltyMajor
	case share > anomalyShareMinor:
		amount = anomalyPenaltyMinor
	}

	m.Warnings = append(m.Warnings, schema.Warning{
		Code:    schema.WarnAnomalousIntervals,
		Message: fmt.Sprintf("%d of %d intervals classified as sensor anomalies", anomalous, total),
	})
	if amount == 0 {
		return nil
	}
	return []schema.Penalty{{
		Key:    schema.PenaltyAnomalies,
		Amount: amount,
		Detail: fmt.Sprintf("%.1f%% of intervals are sensor anomalies", share*100),
	}}
}

// toleranceWarnings points out a tolerance that cannot bridge a
// mandatory stream's nominal spacing. Guidance only, no penalty.
func toleranceWarnings(cfg *contract.Config, streams []schema.StreamSeries) []schema.Warning {
	var warnings []schema.Warning
	for _, s := range streams {
		if s.Mandatory && cfg.Tolerance < s.NominalInterval {
			warnings = append(warnings, schema.Warning{
				Code:    schema.WarnToleranceMismatch,
				Message: fmt.Sprintf("tolerance %s is below nominal interval %s of mandatory stream %s: expect systematic MISSING points", cfg.Tolerance, s.NominalInterval, s.StreamID),
			})
		}
	}
	return warnings
}

func nominalRange(streams []schema.StreamSeries) (time.Duration, time.Duration) {
	var minNominal, maxNominal time.Duration
	for _, s := range streams {
		if s.NominalInterval <= 0 {
			continue
		}
		if minNominal == 0 || s.NominalInterval < minNominal {
			minNominal = s.NominalInterval
		}
		if s.NominalInterval > maxNominal {
			maxNominal = s.NominalInterval
		}
	}
	return minNominal, maxNominal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
