package core

import (
	"math"
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

// Interval classification thresholds.
const (
	minorGapFactor = 1.5 // gaps up to this multiple of T_nominal are NORMAL
	majorGapFactor = 4.0 // gaps beyond this multiple of T_nominal are MAJOR

	covConstantMax = 0.005 // relative change at or below this reads as "value unchanged"
	covMinorMax    = 0.02

	relChangeEpsilon = 1e-9 // floor for the relative-change denominator
)

// ClassifyIntervals assigns every consecutive sample pair of a stream a
// size category and, for gaps, a value-behavior semantic. Duration alone
// cannot distinguish "nothing changed" from "sensor died"; value
// continuity across the gap is the discriminating signal. The function
// is pure and stateless, so streams can be classified in parallel.
func ClassifyIntervals(series *schema.StreamSeries, anomalyJump float64) []schema.IntervalClassification {
	if len(series.Samples) < 2 {
		return nil
	}

	minorCutoff := time.Duration(minorGapFactor * float64(series.NominalInterval))
	majorCutoff := time.Duration(majorGapFactor * float64(series.NominalInterval))

	out := make([]schema.IntervalClassification, 0, len(series.Samples)-1)
	for i := 1; i < len(series.Samples); i++ {
		prev, cur := series.Samples[i-1], series.Samples[i]
		dt := cur.Timestamp.Sub(prev.Timestamp)

		ic := schema.IntervalClassification{
			StreamID:    series.StreamID,
			Start:       prev.Timestamp,
			End:         cur.Timestamp,
			Duration:    dt,
			ValueBefore: prev.Value,
			ValueAfter:  cur.Value,
		}

		switch {
		case dt <= minorCutoff:
			ic.Size = schema.NormalInterval
		case dt <= majorCutoff:
			ic.Size = schema.MinorGap
		default:
			ic.Size = schema.MajorGap
		}

		if ic.Size != schema.NormalInterval {
			ic.Semantic = classifyGapSemantic(prev.Value, cur.Value, anomalyJump, series.Bounds)
		}

		out = append(out, ic)
	}
	return out
}

// classifyGapSemantic decides what the value behavior across a gap says
// about the sensor. Anomaly evidence (an implausible jump or a physics
// violation) wins over the relative-change tiers: a value outside the
// configured plausible range is never benign COV silence, no matter how
// small the relative change.
func classifyGapSemantic(before, after, anomalyJump float64, bounds schema.ValueBounds) schema.GapSemantic {
	if math.Abs(after-before) > anomalyJump {
		return schema.SensorAnomaly
	}
	if violatesBounds(after, bounds) || violatesBounds(before, bounds) {
		return schema.SensorAnomaly
	}

	relChange := math.Abs(after-before) / math.Max(math.Abs(before), relChangeEpsilon)
	switch {
	case relChange <= covConstantMax:
		return schema.CovConstant
	case relChange <= covMinorMax:
		return schema.CovMinor
	default:
		return schema.UnknownGap
	}
}

func violatesBounds(v float64, bounds schema.ValueBounds) bool {
	if bounds.Min != nil && v < *bounds.Min {
		return true
	}
	if bounds.Max != nil && v > *bounds.Max {
		return true
	}
	return false
}
