package core

import (
	"fmt"
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

// BuildGrid constructs the uniform master timeline for the effective
// observation span. The first point is the span start rounded up to the
// next step multiple; subsequent points are produced with integer
// second arithmetic so 35k+ points accumulate zero drift.
func BuildGrid(start, end time.Time, step time.Duration) (*schema.MasterGrid, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s > %s", ErrCorruptSpan, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if step < time.Second {
		return nil, fmt.Errorf("grid step must be at least one second, got %s", step)
	}

	stepSec := int64(step / time.Second)
	first := ceilToGrid(start.Unix(), stepSec)

	var points []time.Time
	for ts := first; ts <= end.Unix(); ts += stepSec {
		points = append(points, time.Unix(ts, 0).UTC())
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: start=%s end=%s step=%s", ErrEmptyGrid, start.Format(time.RFC3339), end.Format(time.RFC3339), step)
	}

	// Uniformity is guaranteed by construction; a violation here is an
	// implementation defect and must halt, not degrade.
	for i := 1; i < len(points); i++ {
		if !points[i].After(points[i-1]) {
			return nil, fmt.Errorf("%w: index %d", ErrDuplicateGridPoint, i)
		}
	}

	return &schema.MasterGrid{
		Start:  points[0],
		End:    points[len(points)-1],
		Step:   step,
		Points: points,
	}, nil
}

// ceilToGrid rounds a unix timestamp up to the next multiple of stepSec.
func ceilToGrid(unix, stepSec int64) int64 {
	rem := unix % stepSec
	if rem == 0 {
		return unix
	}
	return unix + stepSec - rem
}
