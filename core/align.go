package core

import (
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

// Alignment distance tiers.
const (
	exactMax = 60 * time.Second
	closeMax = 300 * time.Second
)

// AlignStream maps one stream's raw samples onto the master grid with a
// single forward pointer: O(N+M), no nested scans. For each grid point
// the candidates are the last sample before it and the first sample at
// or after it; the nearer one wins, with ties going to the later
// candidate. Beyond the tolerance the point is MISSING for this stream.
// The aligner always selects a real measured value; it never
// interpolates a new number (the INTERP tier names a distance band, not
// a computation).
func AlignStream(series *schema.StreamSeries, grid *schema.MasterGrid, tolerance time.Duration) []schema.AlignmentResult {
	out := make([]schema.AlignmentResult, len(grid.Points))
	samples := series.Samples

	j := 0
	for i, g := range grid.Points {
		for j < len(samples) && samples[j].Timestamp.Before(g) {
			j++
		}

		res := schema.AlignmentResult{
			StreamID:  series.StreamID,
			GridIndex: i,
			Quality:   schema.MissingQuality,
		}

		if best, dist, ok := selectCandidate(samples, j, g); ok && dist <= tolerance {
			res.Value = best.Value
			res.Distance = dist
			res.Quality = qualityForDistance(dist)
		}
		out[i] = res
	}
	return out
}

// selectCandidate picks the nearer of samples[j-1] and samples[j]
// relative to the grid point g. On an exact distance tie the right
// (later) candidate is preferred.
func selectCandidate(samples []schema.Sample, j int, g time.Time) (schema.Sample, time.Duration, bool) {
	hasLeft := j > 0 && j-1 < len(samples)
	hasRight := j < len(samples)

	switch {
	case hasLeft && hasRight:
		leftDist := g.Sub(samples[j-1].Timestamp)
		rightDist := samples[j].Timestamp.Sub(g)
		if leftDist < rightDist {
			return samples[j-1], leftDist, true
		}
		return samples[j], rightDist, true
	case hasLeft:
		return samples[j-1], g.Sub(samples[j-1].Timestamp), true
	case hasRight:
		return samples[j], samples[j].Timestamp.Sub(g), true
	default:
		return schema.Sample{}, 0, false
	}
}

// qualityForDistance maps a within-tolerance distance to its tier. The
// INTERP/MISSING boundary is inclusive: a distance exactly at the
// tolerance still aligns.
func qualityForDistance(dist time.Duration) schema.AlignQuality {
	switch {
	case dist < exactMax:
		return schema.ExactQuality
	case dist < closeMax:
		return schema.CloseQuality
	default:
		return schema.InterpQuality
	}
}
