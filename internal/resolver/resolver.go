// Package resolver classifies reference tokens against a registry snapshot.
//
// Resolution is pure and order-independent: the findings for a given
// (document set, snapshot) pair are identical regardless of token
// processing order, which the report layer then fixes into a stable render
// order. The snapshot is never mutated.
package resolver

import (
	"iter"

	"github.com/conneroisu/halint/internal/extractor"
	"github.com/conneroisu/halint/internal/registry"
	"github.com/conneroisu/halint/internal/report"
)

// Options tune severity policy.
type Options struct {
	// TemplateUnknownBlocks escalates unknown references found inside
	// template expressions from warning to error. Off by default: templates
	// can legitimately compute ids not visible as literals, and a false
	// positive must not block a deployment.
	TemplateUnknownBlocks bool
}

// Resolver checks tokens against an immutable registry snapshot.
type Resolver struct {
	snapshot *registry.Snapshot
	options  Options
}

// New creates a resolver over a loaded snapshot.
func New(snapshot *registry.Snapshot, options Options) *Resolver {
	return &Resolver{snapshot: snapshot, options: options}
}

// dedupKey collapses repeated references to the same id in the same file so
// each problem is reported exactly once per file.
type dedupKey struct {
	kind     registry.RefKind
	raw      string
	file     string
	template bool
}

// Resolve consumes a token sequence and returns findings for disabled and
// unknown references. Resolved, enabled references produce nothing.
func (r *Resolver) Resolve(tokens iter.Seq[extractor.Token]) []report.Finding {
	var findings []report.Finding
	seen := make(map[dedupKey]bool)

	for token := range tokens {
		key := dedupKey{
			kind:     token.Kind,
			raw:      token.Raw,
			file:     token.File,
			template: token.Context == extractor.ContextTemplate,
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		if finding, ok := r.resolveToken(token); ok {
			findings = append(findings, finding)
		}
	}

	return findings
}

func (r *Resolver) resolveToken(token extractor.Token) (report.Finding, bool) {
	switch token.Kind {
	case registry.RefEntity:
		if entity, ok := r.snapshot.Entity(token.Raw); ok {
			if entity.Disabled() {
				return report.Warnf(
					report.CategoryDisabledEntity, token.File, token.Line,
					"entity %q exists but is disabled (disabled_by: %s)", token.Raw, entity.DisabledBy,
				), true
			}

			return report.Finding{}, false
		}

	case registry.RefDevice:
		if _, ok := r.snapshot.Device(token.Raw); ok {
			return report.Finding{}, false
		}

	case registry.RefArea:
		if _, ok := r.snapshot.Area(token.Raw); ok {
			return report.Finding{}, false
		}
	}

	// Unknown. Suppressed entirely when the registry for this kind was
	// absent; the pipeline reports the reduced coverage once per run.
	if !r.snapshot.Loaded(token.Kind) {
		return report.Finding{}, false
	}

	if token.Context == extractor.ContextTemplate && !r.options.TemplateUnknownBlocks {
		return report.Warnf(
			report.CategoryUnknownReference, token.File, token.Line,
			"template references unknown %s %q", token.Kind, token.Raw,
		), true
	}

	return report.Errorf(
		report.CategoryUnknownReference, token.File, token.Line,
		"unknown %s %q", token.Kind, token.Raw,
	), true
}
