package loader

// Kind discriminates the parsed node sum type.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	// KindPlaceholder marks !secret and !input values. Their real values are
	// unknown at validation time and must never be flagged as bad references.
	KindPlaceholder
	// KindInclude marks the !include tag family. The collector turns these
	// into include-graph edges.
	KindInclude
)

// Tag names the custom Home Assistant YAML directives the loader preserves
// instead of resolving.
type Tag string

const (
	TagNone                 Tag = ""
	TagInclude              Tag = "!include"
	TagIncludeDirList       Tag = "!include_dir_list"
	TagIncludeDirNamed      Tag = "!include_dir_named"
	TagIncludeDirMergeList  Tag = "!include_dir_merge_list"
	TagIncludeDirMergeNamed Tag = "!include_dir_merge_named"
	TagSecret               Tag = "!secret"
	TagInput                Tag = "!input"
)

// includeTags is the include directive family.
var includeTags = map[Tag]bool{
	TagInclude:              true,
	TagIncludeDirList:       true,
	TagIncludeDirNamed:      true,
	TagIncludeDirMergeList:  true,
	TagIncludeDirMergeNamed: true,
}

// placeholderTags are opaque-by-design value tags.
var placeholderTags = map[Tag]bool{
	TagSecret: true,
	TagInput:  true,
}

// Pair is one mapping entry. HA configuration keys are always scalars.
type Pair struct {
	Key     string
	KeyNode *Node
	Value   *Node
}

// Node is a parsed YAML value with provenance. Every node reachable from a
// root document carries a non-empty file path and a 1-based line.
type Node struct {
	Kind Kind
	Tag  Tag

	// Value holds the scalar text, or the tag argument for placeholder and
	// include nodes (the secret name, input name, or included path).
	Value string

	// Items holds sequence elements.
	Items []*Node

	// Pairs holds mapping entries in document order.
	Pairs []Pair

	File   string
	Line   int
	Column int
}

// IsScalar reports whether the node is a plain scalar.
func (n *Node) IsScalar() bool { return n != nil && n.Kind == KindScalar }

// IsPlaceholder reports whether the node is a !secret or !input value.
func (n *Node) IsPlaceholder() bool { return n != nil && n.Kind == KindPlaceholder }

// IsInclude reports whether the node is an include directive.
func (n *Node) IsInclude() bool { return n != nil && n.Kind == KindInclude }

// Get returns the value for a mapping key, or nil when the node is not a
// mapping or the key is absent.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	for _, pair := range n.Pairs {
		if pair.Key == key {
			return pair.Value
		}
	}

	return nil
}

// Has reports whether a mapping contains the key.
func (n *Node) Has(key string) bool {
	return n.Get(key) != nil
}
