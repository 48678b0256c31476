package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
)

// tierDefinition describes one alignment quality tier for display.
type tierDefinition struct {
	Quality    schema.AlignQuality `json:"quality"`
	MaxDist    string              `json:"max_distance"`
	Confidence float64             `json:"confidence"`
	Meaning    string              `json:"meaning"`
}

// penaltyDefinition describes one confidence penalty for display.
type penaltyDefinition struct {
	Key     schema.PenaltyKey `json:"key"`
	Trigger string            `json:"trigger"`
	Amount  string            `json:"amount"`
}

// tiersRenderModel is the complete render model for the tiers display.
type tiersRenderModel struct {
	Title     string              `json:"title"`
	Tiers     []tierDefinition    `json:"tiers"`
	Penalties []penaltyDefinition `json:"penalties"`
	Note      string              `json:"note"`
}

// buildTiersRenderModel constructs the render model with all tier and penalty definitions.
func buildTiersRenderModel() *tiersRenderModel {
	return &tiersRenderModel{
		Title: "Alignment Quality Tiers",
		Tiers: []tierDefinition{
			{Quality: schema.ExactQuality, MaxDist: "< 60s", Confidence: schema.QualityConfidence[schema.ExactQuality], Meaning: "Sample effectively on the grid point"},
			{Quality: schema.CloseQuality, MaxDist: "< 300s", Confidence: schema.QualityConfidence[schema.CloseQuality], Meaning: "Sample near the grid point"},
			{Quality: schema.InterpQuality, MaxDist: "<= tolerance", Confidence: schema.QualityConfidence[schema.InterpQuality], Meaning: "Nearest sample carried, never interpolated"},
			{Quality: schema.MissingQuality, MaxDist: "> tolerance", Confidence: 0, Meaning: "No usable sample; cell left empty"},
		},
		Penalties: []penaltyDefinition{
			{Key: schema.PenaltyCoverage, Trigger: "VALID coverage below 95/80/60%", Amount: "0.05/0.10/0.15"},
			{Key: schema.PenaltyJitter, Trigger: "grid step CV above 5%", Amount: "0.05"},
			{Key: schema.PenaltyGranular, Trigger: "step vs nominal interval mismatch", Amount: "0.05 each"},
			{Key: schema.PenaltyAnomalies, Trigger: "anomalous interval share above 1/5%", Amount: "0.05/0.10"},
		},
		Note: "Row confidence = min over mandatory streams; stage confidence = 1 - sum(penalties), floored at 0",
	}
}

// PrintTierDefinitions displays the formal definitions of the quality
// tiers and confidence penalties. This is a static display that needs
// no input data.
func PrintTierDefinitions(cfg *contract.Config) error {
	renderModel := buildTiersRenderModel()

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, renderModel)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"quality", "max_distance", "confidence", "meaning"}, func(csvWriter *csv.Writer) error {
				for _, t := range renderModel.Tiers {
					row := []string{
						string(t.Quality),
						t.MaxDist,
						strconv.FormatFloat(t.Confidence, 'f', 2, 64),
						t.Meaning,
					}
					if err := csvWriter.Write(row); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return printTiersText(w, renderModel, cfg)
		}, "Wrote text")
	}
}

// printTiersText displays tier definitions in human-readable text format.
func printTiersText(w io.Writer, renderModel *tiersRenderModel, cfg *contract.Config) error {
	title := renderModel.Title
	if cfg.UseEmojis {
		title = "🎯 " + title
	}
	if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "========================\n\n"); err != nil {
		return err
	}

	for _, t := range renderModel.Tiers {
		if _, err := fmt.Fprintf(w, "%s (conf %.2f, %s): %s\n", t.Quality, t.Confidence, t.MaxDist, t.Meaning); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nStage Confidence Penalties\n"); err != nil {
		return err
	}
	for _, p := range renderModel.Penalties {
		if _, err := fmt.Fprintf(w, "   %s: %s when %s\n", p.Key, p.Amount, p.Trigger); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n%s\n", renderModel.Note); err != nil {
		return err
	}
	return nil
}
