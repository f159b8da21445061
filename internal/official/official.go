// Package official adapts the two external validators the orchestrator
// runs alongside the reference check: the in-process syntax-only checker
// and the official semantic checker invoked as a subprocess.
//
// The contract with both is deliberately thin: each produces zero or more
// findings plus a pass/fail signal, independent of how it is implemented.
package official

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/conneroisu/halint/internal/report"
)

// Result is a validator's contribution to the merged report.
type Result struct {
	Findings []report.Finding
	Passed   bool
}

// Validator is an external validator contributing findings into the run.
type Validator interface {
	Name() string
	Validate(ctx context.Context) Result
}

// Checker runs the official configuration checker as a subprocess and
// classifies its output into findings.
type Checker struct {
	ConfigDir string
	// Command is the checker executable, typically "hass". When empty the
	// default is used; when the executable is missing the check degrades to
	// a single warning instead of failing the run.
	Command string
	Timeout time.Duration
}

// DefaultCommand is the official checker executable looked up on PATH.
const DefaultCommand = "hass"

// Name implements Validator.
func (c *Checker) Name() string { return "official" }

// Validate runs `<command> --config <dir> --script check_config`. When the
// default executable is absent the module form `python3 -m homeassistant`
// is tried before giving up.
func (c *Checker) Validate(ctx context.Context) Result {
	command := c.Command
	if command == "" {
		command = DefaultCommand
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := []string{"--config", c.ConfigDir, "--script", "check_config"}

	if result, ok := c.run(ctx, command, args...); ok {
		return result
	}

	// The module fallback only applies to the default command; an
	// explicitly configured checker is used exactly as given.
	if command == DefaultCommand {
		if result, ok := c.run(ctx, "python3", append([]string{"-m", "homeassistant"}, args...)...); ok {
			return result
		}
	}

	return Result{
		Findings: []report.Finding{report.Warnf(
			report.CategoryOfficial, "", 0,
			"official check skipped: %s not found on PATH", command,
		)},
		Passed: true,
	}
}

// run executes one checker invocation. The second return value is false
// when the checker is effectively not installed.
func (c *Checker) run(ctx context.Context, name string, args ...string) (Result, bool) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(err, exec.ErrNotFound) {
		return Result{}, false
	}
	if err != nil && strings.Contains(stderr.String(), "No module named") {
		return Result{}, false
	}
	if ctx.Err() != nil {
		return Result{
			Findings: []report.Finding{report.Errorf(
				report.CategoryOfficial, "", 0,
				"official configuration check timed out",
			)},
			Passed: false,
		}, true
	}

	findings := classifyOutput(stdout.String(), stderr.String())
	passed := err == nil

	if !passed && !hasError(findings) {
		findings = append(findings, report.Errorf(
			report.CategoryOfficial, "", 0,
			"official configuration check failed",
		))
	}

	return Result{Findings: findings, Passed: passed}, true
}

// classifyOutput maps checker output lines onto finding severities.
func classifyOutput(stdout, stderr string) []report.Finding {
	var findings []report.Finding

	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(line, "Configuration check successful"),
			strings.Contains(line, "Testing configuration at"),
			strings.Contains(lower, "0 errors"):
			findings = append(findings, report.Infof(report.CategoryOfficial, "", 0, "%s", line))
		case strings.Contains(lower, "error"):
			findings = append(findings, report.Errorf(report.CategoryOfficial, "", 0, "%s", line))
		case strings.Contains(lower, "warning"):
			findings = append(findings, report.Warnf(report.CategoryOfficial, "", 0, "%s", line))
		default:
			findings = append(findings, report.Infof(report.CategoryOfficial, "", 0, "%s", line))
		}
	}

	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if containsAny(lower, "debug", "info:", "starting", "loading", "initialized",
			"setup of domain", "setup of platform") {
			continue
		}

		findings = append(findings, report.Errorf(report.CategoryOfficial, "", 0, "%s", line))
	}

	return findings
}

func hasError(findings []report.Finding) bool {
	for _, f := range findings {
		if f.Severity == report.SeverityError {
			return true
		}
	}

	return false
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}

	return false
}
