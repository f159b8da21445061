package official

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	valerrors "github.com/conneroisu/halint/internal/errors"
	"github.com/conneroisu/halint/internal/loader"
	"github.com/conneroisu/halint/internal/report"
)

// SyntaxChecker is the syntax-only validator. It parses every root-level
// YAML file independently of the include graph, so a syntax error in one
// file never hides problems in another, and applies the basic structure
// rules for the well-known section files.
type SyntaxChecker struct {
	ConfigDir string
}

// Name implements Validator.
func (c *SyntaxChecker) Name() string { return "syntax" }

// Validate parses each YAML file in the configuration root. secrets.yaml is
// skipped entirely; it may hold sensitive data and is never inspected.
func (c *SyntaxChecker) Validate(ctx context.Context) Result {
	files, err := c.yamlFiles()
	if err != nil {
		return Result{
			Findings: []report.Finding{report.Errorf(
				report.CategorySyntax, c.ConfigDir, 0,
				"cannot list configuration files: %v", err,
			)},
			Passed: false,
		}
	}

	var findings []report.Finding

	for _, file := range files {
		if ctx.Err() != nil {
			break
		}

		node, err := loader.LoadFile(file)
		if err != nil {
			findings = append(findings, findingFromError(err))

			continue
		}

		switch filepath.Base(file) {
		case "configuration.yaml":
			findings = append(findings, checkConfigurationStructure(file, node)...)
		case "automations.yaml":
			findings = append(findings, checkAutomationsStructure(file, node)...)
		case "scripts.yaml":
			findings = append(findings, checkScriptsStructure(file, node)...)
		}
	}

	return Result{Findings: findings, Passed: !hasError(findings)}
}

func (c *SyntaxChecker) yamlFiles() ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(c.ConfigDir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}

	filtered := files[:0]
	for _, file := range files {
		if filepath.Base(file) == "secrets.yaml" {
			continue
		}
		if info, err := os.Stat(file); err != nil || info.IsDir() {
			continue
		}
		filtered = append(filtered, file)
	}

	sort.Strings(filtered)

	return filtered, nil
}

// findingFromError converts a loader failure into a finding at the right
// severity and category.
func findingFromError(err error) report.Finding {
	category := report.CategorySyntax

	var ve *valerrors.ValidationError
	if errors.As(err, &ve) {
		switch ve.Kind {
		case valerrors.KindEncoding:
			category = report.CategoryEncoding
		case valerrors.KindInclude:
			category = report.CategoryInclude
		}

		return report.Errorf(category, ve.FilePath, ve.Line, "%s", errorMessage(ve))
	}

	return report.Errorf(category, "", 0, "%v", err)
}

func errorMessage(ve *valerrors.ValidationError) string {
	if ve.Cause != nil {
		return fmt.Sprintf("%s: %v", ve.Message, ve.Cause)
	}

	return ve.Message
}

func checkConfigurationStructure(file string, node *loader.Node) []report.Finding {
	if node == nil {
		return nil
	}

	if node.Kind != loader.KindMapping {
		return []report.Finding{report.Errorf(
			report.CategoryStructure, file, node.Line,
			"configuration must be a mapping",
		)}
	}

	var findings []report.Finding

	if !node.Has("homeassistant") {
		findings = append(findings, report.Warnf(
			report.CategoryStructure, file, 0,
			"missing 'homeassistant' section",
		))
	}

	for _, deprecated := range []string{"discovery", "introduction"} {
		if value := node.Get(deprecated); value != nil {
			findings = append(findings, report.Warnf(
				report.CategoryStructure, file, value.Line,
				"'%s' is deprecated", deprecated,
			))
		}
	}

	return findings
}

func checkAutomationsStructure(file string, node *loader.Node) []report.Finding {
	if node == nil {
		return nil
	}

	if node.Kind != loader.KindSequence {
		return []report.Finding{report.Errorf(
			report.CategoryStructure, file, node.Line,
			"automations must be a list",
		)}
	}

	var findings []report.Finding

	for i, automation := range node.Items {
		if automation == nil || automation.Kind != loader.KindMapping {
			line := 0
			if automation != nil {
				line = automation.Line
			}
			findings = append(findings, report.Errorf(
				report.CategoryStructure, file, line,
				"automation %d must be a mapping", i,
			))

			continue
		}

		// Blueprint automations carry their triggers and actions in the
		// blueprint, not inline.
		if !automation.Has("use_blueprint") {
			if !automation.Has("trigger") && !automation.Has("triggers") {
				findings = append(findings, report.Errorf(
					report.CategoryStructure, file, automation.Line,
					"automation %d missing 'trigger' or 'triggers'", i,
				))
			}
			if !automation.Has("action") && !automation.Has("actions") {
				findings = append(findings, report.Errorf(
					report.CategoryStructure, file, automation.Line,
					"automation %d missing 'action' or 'actions'", i,
				))
			}
		}

		if !automation.Has("alias") {
			findings = append(findings, report.Warnf(
				report.CategoryStructure, file, automation.Line,
				"automation %d missing 'alias' (recommended)", i,
			))
		}
	}

	return findings
}

func checkScriptsStructure(file string, node *loader.Node) []report.Finding {
	if node == nil {
		return nil
	}

	if node.Kind != loader.KindMapping {
		return []report.Finding{report.Errorf(
			report.CategoryStructure, file, node.Line,
			"scripts must be a mapping",
		)}
	}

	var findings []report.Finding

	for _, pair := range node.Pairs {
		script := pair.Value
		if script == nil || script.Kind != loader.KindMapping {
			line := 0
			if script != nil {
				line = script.Line
			}
			findings = append(findings, report.Errorf(
				report.CategoryStructure, file, line,
				"script %q must be a mapping", pair.Key,
			))

			continue
		}

		if !script.Has("sequence") && !script.Has("use_blueprint") {
			findings = append(findings, report.Errorf(
				report.CategoryStructure, file, script.Line,
				"script %q missing required 'sequence' or 'use_blueprint'", pair.Key,
			))
		}
	}

	return findings
}
