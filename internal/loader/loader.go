// Package loader parses Home Assistant YAML text into a tagged node tree.
//
// The loader honors the HA tag dialect (!include and its directory variants,
// !secret, !input) without resolving real values: custom tags become typed
// placeholder or include nodes that later stages thread through unchanged.
// Files must be strict UTF-8, and duplicate mapping keys at the same level
// are a fatal syntax error because HA configurations are sensitive to
// accidental key shadowing.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	valerrors "github.com/conneroisu/halint/internal/errors"
)

var yamlLinePattern = regexp.MustCompile(`yaml: line (\d+):`)

// LoadFile reads and parses one YAML file. A nil node with nil error means
// the file was empty, which is valid.
func LoadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, valerrors.NewIOError("cannot read file", err).
			WithLocation(path, 0, 0)
	}

	return Parse(data, path)
}

// Parse parses YAML text into a node tree annotated with the source path.
func Parse(data []byte, path string) (*Node, error) {
	if err := validateUTF8(data, path); err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		line := 0
		if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
			line, _ = strconv.Atoi(m[1])
		}

		return nil, valerrors.NewSyntaxError(valerrors.ErrCodeYAMLSyntax, "YAML syntax error", err).
			WithLocation(path, line, 0)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	converter := &converter{path: path, seen: make(map[*yaml.Node]bool)}

	return converter.convert(doc.Content[0])
}

// validateUTF8 rejects any byte sequence that is not valid UTF-8. The check
// runs through the x/text validator so the first offending byte is located
// exactly and reported with its line.
func validateUTF8(data []byte, path string) error {
	_, consumed, err := transform.Bytes(encoding.UTF8Validator, data)
	if err == nil {
		return nil
	}

	line := 1 + bytes.Count(data[:consumed], []byte{'\n'})

	return valerrors.NewEncodingError("file must be UTF-8 encoded", err).
		WithLocation(path, line, 0)
}

type converter struct {
	path string
	// seen guards alias expansion against self-referential anchors.
	seen map[*yaml.Node]bool
}

func (c *converter) convert(yn *yaml.Node) (*Node, error) {
	switch yn.Kind {
	case yaml.AliasNode:
		if c.seen[yn.Alias] {
			return nil, valerrors.NewSyntaxError(
				valerrors.ErrCodeYAMLSyntax,
				fmt.Sprintf("recursive alias %q", yn.Value),
				nil,
			).WithLocation(c.path, yn.Line, yn.Column)
		}
		c.seen[yn.Alias] = true
		node, err := c.convert(yn.Alias)
		delete(c.seen, yn.Alias)

		return node, err

	case yaml.ScalarNode:
		return c.convertScalar(yn)

	case yaml.SequenceNode:
		node := &Node{
			Kind:   KindSequence,
			File:   c.path,
			Line:   yn.Line,
			Column: yn.Column,
			Items:  make([]*Node, 0, len(yn.Content)),
		}
		for _, item := range yn.Content {
			child, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			node.Items = append(node.Items, child)
		}

		return node, nil

	case yaml.MappingNode:
		return c.convertMapping(yn)

	default:
		return nil, valerrors.NewSyntaxError(
			valerrors.ErrCodeYAMLSyntax,
			fmt.Sprintf("unsupported YAML node kind %d", yn.Kind),
			nil,
		).WithLocation(c.path, yn.Line, yn.Column)
	}
}

func (c *converter) convertScalar(yn *yaml.Node) (*Node, error) {
	tag := Tag(yn.Tag)

	node := &Node{
		Kind:   KindScalar,
		Value:  yn.Value,
		File:   c.path,
		Line:   yn.Line,
		Column: yn.Column,
	}

	switch {
	case includeTags[tag]:
		if yn.Value == "" {
			return nil, valerrors.NewSyntaxError(
				valerrors.ErrCodeYAMLSyntax,
				fmt.Sprintf("%s requires a path argument", tag),
				nil,
			).WithLocation(c.path, yn.Line, yn.Column)
		}
		node.Kind = KindInclude
		node.Tag = tag

	case placeholderTags[tag]:
		if yn.Value == "" {
			return nil, valerrors.NewSyntaxError(
				valerrors.ErrCodeYAMLSyntax,
				fmt.Sprintf("%s requires a name argument", tag),
				nil,
			).WithLocation(c.path, yn.Line, yn.Column)
		}
		node.Kind = KindPlaceholder
		node.Tag = tag
	}

	return node, nil
}

func (c *converter) convertMapping(yn *yaml.Node) (*Node, error) {
	node := &Node{
		Kind:   KindMapping,
		File:   c.path,
		Line:   yn.Line,
		Column: yn.Column,
		Pairs:  make([]Pair, 0, len(yn.Content)/2),
	}

	// Silent last-wins key shadowing is disallowed: report the duplicate
	// together with the line of the first occurrence.
	firstSeen := make(map[string]int, len(yn.Content)/2)

	for i := 0; i+1 < len(yn.Content); i += 2 {
		keyNode, valueNode := yn.Content[i], yn.Content[i+1]

		if keyNode.Kind != yaml.ScalarNode {
			return nil, valerrors.NewSyntaxError(
				valerrors.ErrCodeYAMLSyntax,
				"mapping keys must be scalars",
				nil,
			).WithLocation(c.path, keyNode.Line, keyNode.Column)
		}

		if previous, duplicated := firstSeen[keyNode.Value]; duplicated {
			return nil, valerrors.NewSyntaxError(
				valerrors.ErrCodeDuplicateKey,
				fmt.Sprintf("duplicate mapping key %q (first defined at line %d)", keyNode.Value, previous),
				nil,
			).WithLocation(c.path, keyNode.Line, keyNode.Column)
		}
		firstSeen[keyNode.Value] = keyNode.Line

		key, err := c.convert(keyNode)
		if err != nil {
			return nil, err
		}
		value, err := c.convert(valueNode)
		if err != nil {
			return nil, err
		}

		node.Pairs = append(node.Pairs, Pair{Key: keyNode.Value, KeyNode: key, Value: value})
	}

	return node, nil
}
