// Package cmd provides the command-line interface for halint.
//
// This package implements all CLI commands using the Cobra framework,
// wrapping the validation pipeline for interactive and CI use.
//
// # Available Commands
//
//   - check: Run the full validation pipeline (syntax, references, official)
//   - syntax: Run only the YAML syntax and structure checks
//   - refs: Run only the entity/device/area reference checks
//   - entities: Summarize the entity registry by domain
//   - watch: Re-run validation whenever configuration files change
//   - version: Show version information
//
// # Command Examples
//
//	// Validate a configuration tree before deployment
//	halint check --config-dir ./config
//
//	// Reference check with JSON output for CI
//	halint refs --config-dir ./config --format json
//
//	// Keep validating while editing
//	halint watch --config-dir ./config
package cmd
