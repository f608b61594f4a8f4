package cmark

// Capabilities are the properties every node kind must answer for.
type Capabilities struct {
	// Container nodes may own children. The Walker descends into them.
	Container bool
	// CodeBlock nodes keep their lines verbatim.
	CodeBlock bool
	// InlineParse nodes get their raw content converted to inline children.
	InlineParse bool
}

// TypeTable maps node kinds to their capabilities. A nil *TypeTable behaves as
// the default table.
type TypeTable struct {
	caps map[NodeType]Capabilities
}

var defaultTypes = DefaultTypes()

// DefaultTypes returns a new table describing the built-in kinds.
func DefaultTypes() *TypeTable {
	tt := &TypeTable{caps: make(map[NodeType]Capabilities)}
	for _, t := range []NodeType{
		DocumentNode, BlockQuoteNode, ListNode, ItemNode,
		EmphNode, StrongNode, LinkNode, ImageNode,
		CustomBlockNode, CustomInlineNode,
	} {
		tt.caps[t] = Capabilities{Container: true}
	}
	tt.caps[ParagraphNode] = Capabilities{Container: true, InlineParse: true}
	tt.caps[HeadingNode] = Capabilities{Container: true, InlineParse: true}
	tt.caps[CodeBlockNode] = Capabilities{CodeBlock: true}
	return tt
}

// Define sets the capabilities of kind t, overriding any previous definition.
func (tt *TypeTable) Define(t NodeType, c Capabilities) {
	tt.caps[t] = c
}

// Clone returns an independent copy of the table.
func (tt *TypeTable) Clone() *TypeTable {
	if tt == nil {
		return DefaultTypes()
	}
	c := &TypeTable{caps: make(map[NodeType]Capabilities, len(tt.caps))}
	for k, v := range tt.caps {
		c.caps[k] = v
	}
	return c
}

func (tt *TypeTable) lookup(t NodeType) Capabilities {
	if tt == nil {
		tt = defaultTypes
	}
	return tt.caps[t]
}

// IsContainer reports whether n may own children.
func (tt *TypeTable) IsContainer(n *Node) bool {
	return tt.lookup(n.Type).Container
}

// IsCodeBlock reports whether kind t belongs to the code block category.
func (tt *TypeTable) IsCodeBlock(t NodeType) bool {
	return tt.lookup(t).CodeBlock
}

// NeedsInlineParse reports whether kind t gets an inline parsing pass.
func (tt *TypeTable) NeedsInlineParse(t NodeType) bool {
	return tt.lookup(t).InlineParse
}
