// Package pipeline orchestrates one validation run: syntax check, reference
// check, and official check in fixed order, merged into a single report.
//
// Stages gate each other only on fatal structural failures (missing entry
// document, corrupt registry). Ordinary findings accumulate and the run
// proceeds through every stage so one invocation reports every problem
// category at once. The pipeline's only externally observable effects are
// the report and the caller's exit status; it never mutates configuration
// or registry files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conneroisu/halint/internal/collector"
	valerrors "github.com/conneroisu/halint/internal/errors"
	"github.com/conneroisu/halint/internal/extractor"
	"github.com/conneroisu/halint/internal/logging"
	"github.com/conneroisu/halint/internal/official"
	"github.com/conneroisu/halint/internal/registry"
	"github.com/conneroisu/halint/internal/report"
	"github.com/conneroisu/halint/internal/resolver"
)

// Stage identifies a position in the run's state machine.
type Stage string

const (
	StageStart     Stage = "START"
	StageSyntax    Stage = "SYNTAX_CHECK"
	StageReference Stage = "REFERENCE_CHECK"
	StageOfficial  Stage = "OFFICIAL_CHECK"
	StageDone      Stage = "DONE"
	StageFatal     Stage = "FATAL"
)

// Options configure one pipeline run.
type Options struct {
	ConfigDir  string
	StorageDir string

	// Stage selection, used by the single-stage subcommands.
	SkipSyntax    bool
	SkipReference bool
	SkipOfficial  bool

	OfficialCommand string
	OfficialTimeout time.Duration

	// TemplateUnknownBlocks escalates unknown template references to
	// errors. Policy, not a default: see resolver.Options.
	TemplateUnknownBlocks bool

	Logger logging.Logger
}

// Pipeline is the validation orchestrator.
type Pipeline struct {
	options Options
	logger  logging.Logger
	stage   Stage
}

// New creates a pipeline for the given options.
func New(options Options) *Pipeline {
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Pipeline{
		options: options,
		logger:  logger.WithComponent("pipeline"),
		stage:   StageStart,
	}
}

// Stage returns the pipeline's current state machine position.
func (p *Pipeline) Stage() Stage {
	return p.stage
}

// Run executes the configured stages and returns the merged report.
func (p *Pipeline) Run(ctx context.Context) *report.Report {
	result := report.New()

	// Absence of the entry document short-circuits everything.
	entryPath := filepath.Join(p.options.ConfigDir, collector.EntryFile)
	if _, err := os.Stat(entryPath); err != nil {
		p.fatal(result, valerrors.NewConfigurationNotFoundError(entryPath))

		return result
	}

	if !p.options.SkipSyntax {
		p.transition(ctx, StageSyntax)
		p.runValidator(ctx, result, &official.SyntaxChecker{ConfigDir: p.options.ConfigDir})
	}

	if !p.options.SkipReference {
		p.transition(ctx, StageReference)
		if fatal := p.runReferenceCheck(ctx, result); fatal {
			return result
		}
	}

	if !p.options.SkipOfficial {
		p.transition(ctx, StageOfficial)
		p.runValidator(ctx, result, &official.Checker{
			ConfigDir: p.options.ConfigDir,
			Command:   p.options.OfficialCommand,
			Timeout:   p.options.OfficialTimeout,
		})
	}

	p.transition(ctx, StageDone)

	return result
}

func (p *Pipeline) transition(ctx context.Context, stage Stage) {
	p.stage = stage
	p.logger.Debug(ctx, "stage transition", "stage", string(stage))
}

// fatal absorbs the run into the FATAL state.
func (p *Pipeline) fatal(result *report.Report, err error) {
	p.stage = StageFatal
	result.MarkFatal()
	result.Add(fatalFinding(err))
}

func (p *Pipeline) runValidator(ctx context.Context, result *report.Report, validator official.Validator) {
	validatorResult := validator.Validate(ctx)
	result.Add(validatorResult.Findings...)

	p.logger.Info(ctx, "validator finished",
		"validator", validator.Name(),
		"findings", len(validatorResult.Findings),
		"passed", validatorResult.Passed,
	)
}

// runReferenceCheck loads the registry snapshot, collects the merged
// documents, and resolves every extracted reference. It returns true when
// the run went fatal.
func (p *Pipeline) runReferenceCheck(ctx context.Context, result *report.Report) bool {
	snapshot, err := registry.Load(p.options.StorageDir)
	if err != nil {
		p.fatal(result, err)

		return true
	}

	for _, kind := range []registry.RefKind{registry.RefEntity, registry.RefDevice, registry.RefArea} {
		if !snapshot.Loaded(kind) {
			result.Add(report.Infof(
				report.CategoryCoverage, "", 0,
				"%s registry not found in %s; %s references are not checked", kind, p.options.StorageDir, kind,
			))
		}
	}

	documents, err := collector.New(p.options.ConfigDir).Collect()
	if err != nil {
		if valerrors.IsRunFatal(err) {
			p.fatal(result, err)

			return true
		}

		// The entry document failed to parse; syntax findings already
		// cover it, reference checking is skipped.
		result.Add(report.Errorf(
			report.CategoryInclude, p.options.ConfigDir, 0,
			"reference check skipped: %v", err,
		))

		return false
	}

	resolve := resolver.New(snapshot, resolver.Options{
		TemplateUnknownBlocks: p.options.TemplateUnknownBlocks,
	})

	for _, section := range documents.SectionOrder {
		if sectionErr := documents.SectionErrors[section]; sectionErr != nil {
			result.Add(sectionFinding(section, sectionErr))

			continue
		}

		document := documents.Sections[section]
		if document == nil {
			continue
		}

		findings := resolve.Resolve(extractor.All(section, document))
		result.Add(findings...)

		p.logger.Debug(ctx, "section resolved",
			"section", section,
			"findings", len(findings),
		)
	}

	return false
}

func fatalFinding(err error) report.Finding {
	var ve *valerrors.ValidationError
	if errors.As(err, &ve) {
		return report.Errorf(report.CategoryFatal, ve.FilePath, ve.Line, "%s", fatalMessage(ve))
	}

	return report.Errorf(report.CategoryFatal, "", 0, "%v", err)
}

func fatalMessage(ve *valerrors.ValidationError) string {
	if ve.Cause != nil {
		return fmt.Sprintf("%s: %v", ve.Message, ve.Cause)
	}

	return ve.Message
}

// sectionFinding reports a top-level section whose collection failed;
// downstream checks for that section were skipped.
func sectionFinding(section string, err error) report.Finding {
	var ve *valerrors.ValidationError
	if errors.As(err, &ve) {
		return report.Errorf(
			report.CategoryInclude, ve.FilePath, ve.Line,
			"section %q skipped: %s", section, fatalMessage(ve),
		)
	}

	return report.Errorf(report.CategoryInclude, "", 0, "section %q skipped: %v", section, err)
}
