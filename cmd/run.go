package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/halint/internal/config"
	"github.com/conneroisu/halint/internal/pipeline"
	"github.com/conneroisu/halint/internal/report"
)

// stageSelection controls which pipeline stages a subcommand runs.
type stageSelection struct {
	skipSyntax    bool
	skipReference bool
	skipOfficial  bool
}

// runValidation is the shared body of the validation subcommands: load
// configuration, run the selected stages, render the report, and fail the
// command when the configuration must not be deployed.
func runValidation(cmd *cobra.Command, stages stageSelection) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if !cfg.Official.Enabled {
		stages.skipOfficial = true
	}

	result := pipeline.New(pipelineOptions(cfg, stages)).Run(cmd.Context())

	if err := renderReport(result, cfg.Output.Format, cmd.OutOrStdout()); err != nil {
		return err
	}

	if result.Verdict() == report.VerdictFail {
		return fmt.Errorf("validation failed: %d error(s)", result.Count(report.SeverityError))
	}

	return nil
}

func pipelineOptions(cfg *config.Config, stages stageSelection) pipeline.Options {
	return pipeline.Options{
		ConfigDir:             cfg.Paths.ConfigDir,
		StorageDir:            cfg.Paths.StorageDir,
		SkipSyntax:            stages.skipSyntax,
		SkipReference:         stages.skipReference,
		SkipOfficial:          stages.skipOfficial,
		OfficialCommand:       cfg.Official.Command,
		OfficialTimeout:       time.Duration(cfg.Official.TimeoutSeconds) * time.Second,
		TemplateUnknownBlocks: cfg.References.TemplateUnknownBlocks,
		Logger:                newLogger(),
	}
}

func renderReport(result *report.Report, format string, w io.Writer) error {
	if format == "json" {
		return result.WriteJSON(w)
	}

	return result.WriteText(w)
}
