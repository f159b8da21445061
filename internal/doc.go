// Package internal contains the core implementation packages for halint.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the halint CLI tool.
//
// # Package Organization
//
// The internal packages are organized by validation stage:
//
//   - loader: tag-aware YAML parsing into located node trees
//   - collector: include-graph resolution into merged section documents
//   - registry: entity/device/area registry snapshot loading
//   - extractor: reference token extraction, direct and template
//   - resolver: token classification against the registry snapshot
//   - official: syntax structure checks and the external checker subprocess
//   - pipeline: stage orchestration for one validation run
//   - report: finding accumulation and deterministic rendering
//   - errors: the structured error taxonomy with fatality scopes
//   - config: tool configuration via Viper
//   - logging: structured logging on stderr
//   - watcher: debounced file watching for the watch subcommand
//   - version: build metadata
package internal
