// Package collector walks a configuration tree from its entry document and
// produces one merged logical document per top-level section.
//
// Includes are modeled as an explicit edge graph over an arena of documents
// keyed by canonical file path. Each file is loaded at most once, directory
// includes merge in sorted-by-filename order so two runs over identical
// inputs produce identical documents, and a visited stack turns include
// cycles into fatal errors instead of unbounded recursion.
package collector

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	valerrors "github.com/conneroisu/halint/internal/errors"
	"github.com/conneroisu/halint/internal/loader"
)

// EntryFile is the root document every configuration tree starts from.
const EntryFile = "configuration.yaml"

// optionalRootIncludes are the conventional section files whose absence is
// tolerated when referenced from the entry document: the section degrades to
// empty instead of failing collection.
var optionalRootIncludes = map[string]bool{
	"automations.yaml": true,
	"scripts.yaml":     true,
	"scenes.yaml":      true,
	"groups.yaml":      true,
	"customize.yaml":   true,
}

// IncludeEdge records one resolved include directive.
type IncludeEdge struct {
	From string
	To   string
	Kind loader.Tag
	Line int
}

// Result holds the collected configuration: merged documents per top-level
// section, the include graph, and per-section collection failures.
type Result struct {
	// Sections maps top-level section names to fully resolved documents.
	Sections map[string]*loader.Node
	// SectionOrder preserves the entry document's key order.
	SectionOrder []string
	// Edges is the full include graph in resolution order.
	Edges []IncludeEdge
	// SectionErrors records sections whose collection failed; downstream
	// stages skip these sections while the rest of the run proceeds.
	SectionErrors map[string]error
}

// Collector resolves include directives relative to a configuration root.
type Collector struct {
	configDir string

	// arena caches fully resolved documents by canonical path.
	arena map[string]*loader.Node
	// expanding is the visited stack for cycle detection.
	expanding map[string]bool
	stack     []string

	edges []IncludeEdge
}

// New creates a collector rooted at configDir.
func New(configDir string) *Collector {
	return &Collector{
		configDir: configDir,
		arena:     make(map[string]*loader.Node),
		expanding: make(map[string]bool),
	}
}

// Collect loads the entry document and resolves every reachable include.
// A missing entry document is a run-fatal error; other failures are scoped
// to the affected top-level section.
func (c *Collector) Collect() (*Result, error) {
	entryPath := filepath.Join(c.configDir, EntryFile)
	if _, err := os.Stat(entryPath); err != nil {
		return nil, valerrors.NewConfigurationNotFoundError(entryPath)
	}

	root, err := loader.LoadFile(entryPath)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Sections:      make(map[string]*loader.Node),
		SectionErrors: make(map[string]error),
	}

	if root == nil {
		return result, nil
	}
	if root.Kind != loader.KindMapping {
		return nil, valerrors.NewSyntaxError(
			valerrors.ErrCodeYAMLSyntax,
			"configuration.yaml must contain a mapping",
			nil,
		).WithLocation(entryPath, root.Line, root.Column)
	}

	for _, pair := range root.Pairs {
		result.SectionOrder = append(result.SectionOrder, pair.Key)

		resolved, err := c.resolve(pair.Value, entryPath, true)
		if err != nil {
			result.SectionErrors[pair.Key] = err

			continue
		}
		result.Sections[pair.Key] = resolved
	}

	result.Edges = c.edges

	return result, nil
}

// resolve replaces include directives with their loaded content. atRoot is
// true only for the direct value of a top-level section, where conventional
// optional files may be absent.
func (c *Collector) resolve(node *loader.Node, fromFile string, atRoot bool) (*loader.Node, error) {
	if node == nil {
		return nil, nil
	}

	switch node.Kind {
	case loader.KindInclude:
		return c.resolveInclude(node, fromFile, atRoot)

	case loader.KindSequence:
		resolved := &loader.Node{
			Kind:   loader.KindSequence,
			File:   node.File,
			Line:   node.Line,
			Column: node.Column,
			Items:  make([]*loader.Node, 0, len(node.Items)),
		}
		for _, item := range node.Items {
			child, err := c.resolve(item, fromFile, false)
			if err != nil {
				return nil, err
			}
			resolved.Items = append(resolved.Items, child)
		}

		return resolved, nil

	case loader.KindMapping:
		resolved := &loader.Node{
			Kind:   loader.KindMapping,
			File:   node.File,
			Line:   node.Line,
			Column: node.Column,
			Pairs:  make([]loader.Pair, 0, len(node.Pairs)),
		}
		for _, pair := range node.Pairs {
			value, err := c.resolve(pair.Value, fromFile, false)
			if err != nil {
				return nil, err
			}
			resolved.Pairs = append(resolved.Pairs, loader.Pair{
				Key:     pair.Key,
				KeyNode: pair.KeyNode,
				Value:   value,
			})
		}

		return resolved, nil

	default:
		return node, nil
	}
}

func (c *Collector) resolveInclude(node *loader.Node, fromFile string, atRoot bool) (*loader.Node, error) {
	target := c.canonical(fromFile, node.Value)

	c.edges = append(c.edges, IncludeEdge{
		From: fromFile,
		To:   target,
		Kind: node.Tag,
		Line: node.Line,
	})

	switch node.Tag {
	case loader.TagInclude:
		return c.includeFile(node, target, atRoot)
	case loader.TagIncludeDirList, loader.TagIncludeDirNamed,
		loader.TagIncludeDirMergeList, loader.TagIncludeDirMergeNamed:
		return c.includeDir(node, target)
	default:
		return nil, valerrors.NewInternalError(
			fmt.Sprintf("unhandled include tag %s", node.Tag), nil)
	}
}

func (c *Collector) includeFile(node *loader.Node, target string, atRoot bool) (*loader.Node, error) {
	if _, err := os.Stat(target); err != nil {
		if atRoot && optionalRootIncludes[filepath.Base(target)] {
			// Conventional optional section file; absence degrades the
			// section to empty.
			return nil, nil
		}

		return nil, valerrors.NewIncludeError(
			valerrors.ErrCodeIncludeMissing,
			fmt.Sprintf("included file not found: %s", target),
			err,
		).WithLocation(node.File, node.Line, node.Column)
	}

	return c.loadResolved(node, target)
}

// loadResolved loads a file through the arena with cycle detection.
func (c *Collector) loadResolved(node *loader.Node, target string) (*loader.Node, error) {
	if cached, ok := c.arena[target]; ok {
		return cached, nil
	}

	if c.expanding[target] {
		return nil, valerrors.NewIncludeError(
			valerrors.ErrCodeIncludeCycle,
			fmt.Sprintf("include cycle detected: %s -> %s", strings.Join(c.stack, " -> "), target),
			nil,
		).WithLocation(node.File, node.Line, node.Column)
	}

	c.expanding[target] = true
	c.stack = append(c.stack, target)
	defer func() {
		delete(c.expanding, target)
		c.stack = c.stack[:len(c.stack)-1]
	}()

	doc, err := loader.LoadFile(target)
	if err != nil {
		return nil, err
	}

	resolved, err := c.resolve(doc, target, false)
	if err != nil {
		return nil, err
	}

	c.arena[target] = resolved

	return resolved, nil
}

func (c *Collector) includeDir(node *loader.Node, dir string) (*loader.Node, error) {
	files, err := c.listYAMLFiles(dir)
	if err != nil {
		return nil, valerrors.NewIncludeError(
			valerrors.ErrCodeIncludeMissing,
			fmt.Sprintf("included directory not readable: %s", dir),
			err,
		).WithLocation(node.File, node.Line, node.Column)
	}

	switch node.Tag {
	case loader.TagIncludeDirList, loader.TagIncludeDirMergeList:
		merged := &loader.Node{
			Kind:   loader.KindSequence,
			File:   node.File,
			Line:   node.Line,
			Column: node.Column,
		}
		for _, file := range files {
			doc, err := c.loadResolved(node, file)
			if err != nil {
				return nil, err
			}
			if doc == nil {
				continue
			}
			if node.Tag == loader.TagIncludeDirMergeList {
				if doc.Kind != loader.KindSequence {
					return nil, valerrors.NewIncludeError(
						valerrors.ErrCodeIncludeMissing,
						fmt.Sprintf("%s expects each file to contain a list: %s", node.Tag, file),
						nil,
					).WithLocation(file, doc.Line, doc.Column)
				}
				merged.Items = append(merged.Items, doc.Items...)
			} else {
				merged.Items = append(merged.Items, doc)
			}
		}

		return merged, nil

	case loader.TagIncludeDirNamed, loader.TagIncludeDirMergeNamed:
		merged := &loader.Node{
			Kind:   loader.KindMapping,
			File:   node.File,
			Line:   node.Line,
			Column: node.Column,
		}
		for _, file := range files {
			doc, err := c.loadResolved(node, file)
			if err != nil {
				return nil, err
			}
			if doc == nil {
				continue
			}
			if node.Tag == loader.TagIncludeDirNamed {
				stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
				mergePair(merged, loader.Pair{Key: stem, Value: doc})

				continue
			}
			if doc.Kind != loader.KindMapping {
				return nil, valerrors.NewIncludeError(
					valerrors.ErrCodeIncludeMissing,
					fmt.Sprintf("%s expects each file to contain a mapping: %s", node.Tag, file),
					nil,
				).WithLocation(file, doc.Line, doc.Column)
			}
			for _, pair := range doc.Pairs {
				mergePair(merged, pair)
			}
		}

		return merged, nil
	}

	return nil, valerrors.NewInternalError(fmt.Sprintf("unhandled directory tag %s", node.Tag), nil)
}

// mergePair appends or overrides a key. Later files win, which is
// deterministic because files merge in sorted order.
func mergePair(mapping *loader.Node, pair loader.Pair) {
	for i := range mapping.Pairs {
		if mapping.Pairs[i].Key == pair.Key {
			mapping.Pairs[i] = pair

			return
		}
	}
	mapping.Pairs = append(mapping.Pairs, pair)
}

// listYAMLFiles returns every .yaml/.yml file under dir, recursively, in
// sorted path order. Hidden files and directories are skipped.
func (c *Collector) listYAMLFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}
		if entry.IsDir() {
			return nil
		}
		ext := filepath.Ext(name)
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)

	return files, nil
}

// canonical resolves an include target relative to the including file.
func (c *Collector) canonical(fromFile, target string) string {
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}

	return filepath.Clean(filepath.Join(filepath.Dir(fromFile), target))
}
