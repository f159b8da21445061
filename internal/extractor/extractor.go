// Package extractor walks merged configuration documents and emits the
// stream of candidate entity, device, and area references for resolution.
//
// Tokens carry provenance (file, line, path within the document) and an
// extraction context. Direct-field and service-target tokens come from the
// known reference-bearing keys; template tokens come from scanning string
// scalars for Jinja-style expressions. Placeholder values (!secret, !input)
// are unknown by design and never tokenized.
package extractor

import (
	"fmt"
	"iter"
	"regexp"

	"github.com/conneroisu/halint/internal/loader"
	"github.com/conneroisu/halint/internal/registry"
)

// Context describes where in the document a token was extracted from. The
// resolver applies lower-confidence severities to template tokens because
// template expressions may construct ids dynamically.
type Context string

const (
	ContextDirect   Context = "direct-field"
	ContextTarget   Context = "service-target"
	ContextTemplate Context = "template-expression"
)

// Token is one candidate reference. Tokens are immutable: created here,
// consumed exactly once by the resolver.
type Token struct {
	Raw     string
	Kind    registry.RefKind
	File    string
	Line    int
	Path    string
	Context Context
}

// entityIDPattern is the entity-id shape: lowercase letters, digits,
// underscore, exactly one dot separator.
var entityIDPattern = regexp.MustCompile(`^[a-z0-9_]+\.[a-z0-9_]+$`)

// serviceShorthand values are valid service-call targets, not references.
var serviceShorthand = map[string]bool{
	"all":  true,
	"none": true,
}

// referenceKeys maps reference-bearing mapping keys to the registry kind
// they refer to, covering singular and plural forms.
var referenceKeys = map[string]registry.RefKind{
	"entity_id":  registry.RefEntity,
	"entity_ids": registry.RefEntity,
	"entities":   registry.RefEntity,
	"device_id":  registry.RefDevice,
	"device_ids": registry.RefDevice,
	"area_id":    registry.RefArea,
	"area_ids":   registry.RefArea,
}

// templateDelimiters finds Jinja expression and statement blocks, including
// multi-line blocks from folded scalars.
var templateDelimiters = regexp.MustCompile(`(?s)\{\{(.*?)\}\}|\{%(.*?)%\}`)

// templatePatterns match entity references inside template expressions.
var templatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`states\('([^']+)'\)`),
	regexp.MustCompile(`states\("([^"]+)"\)`),
	regexp.MustCompile(`states\.([a-z_][a-z0-9_]*\.[a-z_][a-z0-9_]*)`),
	regexp.MustCompile(`is_state\('([^']+)'`),
	regexp.MustCompile(`is_state\("([^"]+)"`),
	regexp.MustCompile(`state_attr\('([^']+)'`),
	regexp.MustCompile(`state_attr\("([^"]+)"`),
}

// All returns the token sequence for one merged document. The sequence is
// lazy and finite; ranging over it again restarts the walk from the top.
func All(section string, root *loader.Node) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		walk(root, section, false, yield)
	}
}

// IsEntityID reports whether a string has the entity-id shape.
func IsEntityID(s string) bool {
	return entityIDPattern.MatchString(s)
}

func walk(node *loader.Node, path string, inTarget bool, yield func(Token) bool) bool {
	if node == nil {
		return true
	}

	switch node.Kind {
	case loader.KindMapping:
		for _, pair := range node.Pairs {
			childPath := joinPath(path, pair.Key)

			if kind, ok := referenceKeys[pair.Key]; ok {
				context := ContextDirect
				if inTarget {
					context = ContextTarget
				}
				if !emitDirect(pair.Value, kind, childPath, context, yield) {
					return false
				}

				continue
			}

			if !walk(pair.Value, childPath, pair.Key == "target", yield) {
				return false
			}
		}

	case loader.KindSequence:
		for i, item := range node.Items {
			if !walk(item, fmt.Sprintf("%s[%d]", path, i), inTarget, yield) {
				return false
			}
		}

	case loader.KindScalar:
		return emitTemplateTokens(node, path, yield)

	case loader.KindPlaceholder, loader.KindInclude:
		// Unknown by design, never tokenized.
	}

	return true
}

// emitDirect emits tokens for a value under a reference-bearing key. The
// value may be a single scalar or a list of scalars; placeholders and
// template strings are skipped here (templates go through the scanner).
func emitDirect(node *loader.Node, kind registry.RefKind, path string, context Context, yield func(Token) bool) bool {
	if node == nil {
		return true
	}

	switch node.Kind {
	case loader.KindScalar:
		if !emitScalarReference(node, kind, path, context, yield) {
			return false
		}

		return emitTemplateTokens(node, path, yield)

	case loader.KindSequence:
		for i, item := range node.Items {
			if !emitDirect(item, kind, fmt.Sprintf("%s[%d]", path, i), context, yield) {
				return false
			}
		}

	case loader.KindMapping:
		// Scenes and groups use the mapping form where the keys are the
		// entity ids and the values are states.
		if kind != registry.RefEntity {
			return true
		}
		for _, pair := range node.Pairs {
			if !IsEntityID(pair.Key) {
				continue
			}
			location := pair.KeyNode
			if location == nil {
				location = node
			}
			token := Token{
				Raw:     pair.Key,
				Kind:    kind,
				File:    location.File,
				Line:    location.Line,
				Path:    joinPath(path, pair.Key),
				Context: context,
			}
			if !yield(token) {
				return false
			}
		}
	}

	return true
}

func emitScalarReference(node *loader.Node, kind registry.RefKind, path string, context Context, yield func(Token) bool) bool {
	value := node.Value
	if value == "" || serviceShorthand[value] {
		return true
	}

	if kind == registry.RefEntity {
		// Non-entity-shaped values under entity keys are either templates
		// (scanned separately) or malformed; only shaped ids become tokens.
		if !IsEntityID(value) {
			return true
		}
	} else if containsTemplate(value) {
		return true
	}

	return yield(Token{
		Raw:     value,
		Kind:    kind,
		File:    node.File,
		Line:    node.Line,
		Path:    path,
		Context: context,
	})
}

// emitTemplateTokens scans a string scalar for template expressions and
// emits entity tokens for references found inside the delimiters.
func emitTemplateTokens(node *loader.Node, path string, yield func(Token) bool) bool {
	if node.Kind != loader.KindScalar || !containsTemplate(node.Value) {
		return true
	}

	for _, block := range templateDelimiters.FindAllStringSubmatch(node.Value, -1) {
		expression := block[1]
		if expression == "" {
			expression = block[2]
		}

		for _, pattern := range templatePatterns {
			for _, match := range pattern.FindAllStringSubmatch(expression, -1) {
				id := match[1]
				if !IsEntityID(id) {
					continue
				}
				token := Token{
					Raw:     id,
					Kind:    registry.RefEntity,
					File:    node.File,
					Line:    node.Line,
					Path:    path,
					Context: ContextTemplate,
				}
				if !yield(token) {
					return false
				}
			}
		}
	}

	return true
}

func containsTemplate(s string) bool {
	return templateDelimiters.MatchString(s)
}

func joinPath(base, key string) string {
	if base == "" {
		return key
	}

	return base + "." + key
}
