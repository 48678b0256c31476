package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
)

// pipeline carries the immutable intermediate state between the
// classification barrier and the approval boundary. Each stage returns
// new values; nothing is mutated across the fan-out points.
type pipeline struct {
	cfg       *contract.Config
	streams   []schema.StreamSeries
	intervals map[string][]schema.IntervalClassification
	windows   []schema.ExclusionWindow
	warnings  []schema.Warning
}

// newPipeline validates the input contract, classifies all streams in
// parallel, and detects exclusion window candidates. This is everything
// that can happen before the approval boundary.
func newPipeline(ctx context.Context, cfg *contract.Config, streams []schema.StreamSeries) (*pipeline, error) {
	warnings, err := validateStreams(streams)
	if err != nil {
		return nil, err
	}

	intervals := ClassifyStreams(ctx, cfg, streams)

	mandatory := make(map[string]bool, len(streams))
	for _, s := range streams {
		mandatory[s.StreamID] = s.Mandatory
	}

	return &pipeline{
		cfg:       cfg,
		streams:   streams,
		intervals: intervals,
		windows:   DetectExclusionWindows(intervals, mandatory),
		warnings:  warnings,
	}, nil
}

// applyDecisions stamps recorded decisions onto the proposals and
// returns how many remain undecided.
func (p *pipeline) applyDecisions(decisions map[string]schema.ApprovalStatus) int {
	pending := 0
	for i := range p.windows {
		if status, ok := decisions[p.windows[i].WindowID]; ok {
			if _, valid := schema.ValidDecisions[status]; valid {
				p.windows[i].Status = status
				continue
			}
		}
		if p.windows[i].Status == schema.ProposedWindow {
			pending++
		}
	}
	return pending
}

// rejectPending marks every still-undecided window REJECTED. This is
// the documented resume policy: a decision nobody made keeps the data
// in the dataset rather than silently discarding it.
func (p *pipeline) rejectPending() {
	for i := range p.windows {
		if p.windows[i].Status == schema.ProposedWindow {
			p.windows[i].Status = schema.RejectedWindow
			p.warnings = append(p.warnings, schema.Warning{
				Code:    schema.WarnUndecidedRejected,
				Message: fmt.Sprintf("window %s had no decision on resume; treated as REJECTED", p.windows[i].WindowID),
			})
		}
	}
}

// awaitingResult packages the suspended pipeline state for the caller:
// proposals plus the classifications that justify them, no grid, no rows.
func (p *pipeline) awaitingResult() *schema.StageResult {
	return &schema.StageResult{
		State:     schema.AwaitingApprovalState,
		Streams:   streamIDs(p.streams),
		Intervals: p.intervals,
		Windows:   p.windows,
	}
}

// complete runs the post-approval half of the pipeline: grid
// construction, parallel alignment, row fusion, and metrics.
func (p *pipeline) complete(ctx context.Context) (*schema.StageResult, error) {
	start, end := observationSpan(p.streams)
	start, end = trimSpan(start, end, p.windows)
	if end.Before(start) || start.Equal(end) && coveredByApproved(start, p.windows) {
		return nil, ErrFullyExcluded
	}

	grid, err := BuildGrid(start, end, p.cfg.Step)
	if err != nil {
		return nil, err
	}

	alignments := AlignStreams(ctx, p.cfg, p.streams, grid)
	rows := ClassifyRows(grid, p.streams, alignments, p.intervals, p.windows)

	if rowCount(rows, schema.ExcludedRow) == len(rows) {
		return nil, ErrFullyExcluded
	}

	metrics := buildMetrics(p.cfg, p.streams, p.intervals, alignments, grid, rows, p.warnings)

	return &schema.StageResult{
		State:     schema.CompletedState,
		Streams:   streamIDs(p.streams),
		Intervals: p.intervals,
		Windows:   p.windows,
		Grid:      grid,
		Rows:      rows,
		Metrics:   metrics,
	}, nil
}

// ClassifyStreams fans interval classification out across a worker pool
// and collects the per-stream results. Classification is pure per
// stream, so the only coordination is the fan-in barrier itself.
func ClassifyStreams(_ context.Context, cfg *contract.Config, streams []schema.StreamSeries) map[string][]schema.IntervalClassification {
	streamCh := make(chan *schema.StreamSeries, len(streams))
	type classified struct {
		id  string
		ics []schema.IntervalClassification
	}
	resultCh := make(chan classified, len(streams))
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Go(func() {
			for s := range streamCh {
				resultCh <- classified{id: s.StreamID, ics: ClassifyIntervals(s, cfg.AnomalyJump)}
			}
		})
	}

	for i := range streams {
		streamCh <- &streams[i]
	}
	close(streamCh)
	wg.Wait()
	close(resultCh)

	out := make(map[string][]schema.IntervalClassification, len(streams))
	for r := range resultCh {
		out[r.id] = r.ics
	}
	return out
}

// AlignStreams fans nearest-neighbor alignment out across a worker
// pool. The grid is shared read-only; each stream writes only its own
// result slot, so no locking is needed.
func AlignStreams(_ context.Context, cfg *contract.Config, streams []schema.StreamSeries, grid *schema.MasterGrid) map[string][]schema.AlignmentResult {
	streamCh := make(chan *schema.StreamSeries, len(streams))
	type aligned struct {
		id      string
		results []schema.AlignmentResult
	}
	resultCh := make(chan aligned, len(streams))
	var wg sync.WaitGroup

	for range cfg.Workers {
		wg.Go(func() {
			for s := range streamCh {
				resultCh <- aligned{id: s.StreamID, results: AlignStream(s, grid, cfg.Tolerance)}
			}
		})
	}

	for i := range streams {
		streamCh <- &streams[i]
	}
	close(streamCh)
	wg.Wait()
	close(resultCh)

	out := make(map[string][]schema.AlignmentResult, len(streams))
	for r := range resultCh {
		out[r.id] = r.results
	}
	return out
}

// Synchronize runs the whole engine with an explicit decision map. When
// proposals exist that the map does not decide, the pipeline suspends
// and returns an AWAITING_APPROVAL result carrying the evidence; the
// caller resolves the windows and calls again. Identical input and
// decisions produce identical output.
func Synchronize(ctx context.Context, cfg *contract.Config, streams []schema.StreamSeries, decisions map[string]schema.ApprovalStatus) (*schema.StageResult, error) {
	p, err := newPipeline(ctx, cfg, streams)
	if err != nil {
		return nil, err
	}
	if pending := p.applyDecisions(decisions); pending > 0 {
		return p.awaitingResult(), nil
	}
	return p.complete(ctx)
}

// Run is Synchronize plus persistence: proposals and decisions live in
// the store, so a suspended pipeline resumes in a later process. A
// proposal seen for the first time suspends the run; a proposal that
// was already surfaced once and still has no decision is rejected with
// a warning (the documented resume policy).
func Run(ctx context.Context, cfg *contract.Config, streams []schema.StreamSeries, store contract.DecisionStore) (*schema.StageResult, error) {
	if store == nil {
		return Synchronize(ctx, cfg, streams, nil)
	}

	runID, err := store.BeginRun(cfg.ConfigParams())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
	}

	result, err := runWithStore(ctx, cfg, streams, store)
	if runID > 0 {
		endRun(store, runID, result, err)
	}
	return result, err
}

func runWithStore(ctx context.Context, cfg *contract.Config, streams []schema.StreamSeries, store contract.DecisionStore) (*schema.StageResult, error) {
	p, err := newPipeline(ctx, cfg, streams)
	if err != nil {
		return nil, err
	}

	decisions := make(map[string]schema.ApprovalStatus, len(p.windows))
	firstSighting := false
	for _, w := range p.windows {
		status, err := store.GetDecision(w.WindowID)
		if err != nil {
			return nil, fmt.Errorf("failed to read decision for window %s: %w", w.WindowID, err)
		}
		if _, decided := schema.ValidDecisions[status]; decided {
			decisions[w.WindowID] = status
			continue
		}
		inserted, err := store.SaveProposal(w)
		if err != nil {
			return nil, fmt.Errorf("failed to persist proposal %s: %w", w.WindowID, err)
		}
		if inserted {
			firstSighting = true
		}
	}

	if pending := p.applyDecisions(decisions); pending > 0 {
		if firstSighting {
			return p.awaitingResult(), nil
		}
		p.rejectPending()
	}
	return p.complete(ctx)
}

func endRun(store contract.DecisionStore, runID int64, result *schema.StageResult, runErr error) {
	state := schema.AwaitingApprovalState
	var rowsTotal, rowsValid int
	var confidence float64
	if result != nil && result.State == schema.CompletedState {
		state = schema.CompletedState
		rowsTotal = len(result.Rows)
		rowsValid = result.Metrics.RowCounts[schema.ValidRow]
		confidence = result.Metrics.StageConfidence
	}
	if runErr != nil {
		// Fatal runs keep the awaiting marker out of history.
		state = schema.CompletedState
	}
	if err := store.EndRun(runID, state, rowsTotal, rowsValid, confidence); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}

// validateStreams enforces the upstream input contract. Violations of
// the contract are fatal; an absent optional stream is merely a
// warning, and rows will show it as MISSING throughout.
func validateStreams(streams []schema.StreamSeries) ([]schema.Warning, error) {
	seen := make(map[string]struct{}, len(streams))
	unique := make(map[int64]struct{})
	var warnings []schema.Warning
	mandatoryData := false

	for _, s := range streams {
		if _, dup := seen[s.StreamID]; dup {
			return nil, fmt.Errorf("duplicate stream id %q", s.StreamID)
		}
		seen[s.StreamID] = struct{}{}

		if s.NominalInterval <= 0 {
			return nil, fmt.Errorf("stream %q has no nominal interval", s.StreamID)
		}

		for i := range s.Samples {
			unique[s.Samples[i].Timestamp.Unix()] = struct{}{}
			if i > 0 && !s.Samples[i].Timestamp.After(s.Samples[i-1].Timestamp) {
				return nil, fmt.Errorf("%w: stream %q at index %d", ErrUnsortedSamples, s.StreamID, i)
			}
		}

		if len(s.Samples) == 0 {
			if s.Mandatory {
				continue
			}
			warnings = append(warnings, schema.Warning{
				Code:    schema.WarnStreamNotProvided,
				Message: fmt.Sprintf("optional stream %s has no samples (NOT_PROVIDED)", s.StreamID),
			})
			continue
		}
		if s.Mandatory {
			mandatoryData = true
		}
	}

	if !mandatoryData {
		return nil, ErrNoMandatoryData
	}
	if len(unique) < 2 {
		return nil, ErrInsufficientSamples
	}
	return warnings, nil
}

// observationSpan returns the raw min/max timestamp across all streams.
func observationSpan(streams []schema.StreamSeries) (time.Time, time.Time) {
	var start, end time.Time
	for _, s := range streams {
		if len(s.Samples) == 0 {
			continue
		}
		first := s.Samples[0].Timestamp
		last := s.Samples[len(s.Samples)-1].Timestamp
		if start.IsZero() || first.Before(start) {
			start = first
		}
		if end.IsZero() || last.After(end) {
			end = last
		}
	}
	return start, end
}

// trimSpan shrinks the observation span where approved windows cover
// its edges, so the grid does not start or end inside excluded time.
// Interior windows stay; their rows are classified EXCLUDED instead.
func trimSpan(start, end time.Time, windows []schema.ExclusionWindow) (time.Time, time.Time) {
	for changed := true; changed; {
		changed = false
		for _, w := range windows {
			if w.Status != schema.ApprovedWindow {
				continue
			}
			if w.Covers(start) && w.End.After(start) && !w.End.After(end) {
				start = w.End
				changed = true
			}
			if w.Covers(end) && w.Start.Before(end) && !w.Start.Before(start) {
				end = w.Start
				changed = true
			}
		}
	}
	return start, end
}

func coveredByApproved(ts time.Time, windows []schema.ExclusionWindow) bool {
	for _, w := range windows {
		if w.Status == schema.ApprovedWindow && w.Covers(ts) {
			return true
		}
	}
	return false
}

func rowCount(rows []schema.RowRecord, gapType schema.GapType) int {
	n := 0
	for _, r := range rows {
		if r.GapType == gapType {
			n++
		}
	}
	return n
}

func streamIDs(streams []schema.StreamSeries) []string {
	ids := make([]string, 0, len(streams))
	for _, s := range streams {
		ids = append(ids, s.StreamID)
	}
	sort.Strings(ids)
	return ids
}
