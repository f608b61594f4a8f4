package cmark

import (
	"bytes"
	"fmt"
	"strconv"
	"sync"
)

// TreeNode holds the links of a Node inside its tree. The Parent link is a
// back-reference: the parent owns its children, never the reverse.
type TreeNode struct {
	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// A NodeType is the kind of a Node.
type NodeType uint32

const (
	ErrorNode NodeType = iota
	DocumentNode
	BlockQuoteNode
	ListNode
	ItemNode
	ParagraphNode
	HeadingNode
	CodeBlockNode
	HTMLBlockNode
	ThematicBreakNode
	TextNode
	SoftbreakNode
	LinebreakNode
	EmphNode
	StrongNode
	CodeNode
	LinkNode
	ImageNode
	HTMLInlineNode
	CustomBlockNode
	CustomInlineNode

	// FirstUserNodeType is the first value callers can use for their own kinds.
	FirstUserNodeType
)

var nodeTypeNames = [...]string{
	ErrorNode:         "error",
	DocumentNode:      "document",
	BlockQuoteNode:    "block_quote",
	ListNode:          "list",
	ItemNode:          "item",
	ParagraphNode:     "paragraph",
	HeadingNode:       "heading",
	CodeBlockNode:     "code_block",
	HTMLBlockNode:     "html_block",
	ThematicBreakNode: "thematic_break",
	TextNode:          "text",
	SoftbreakNode:     "softbreak",
	LinebreakNode:     "linebreak",
	EmphNode:          "emph",
	StrongNode:        "strong",
	CodeNode:          "code",
	LinkNode:          "link",
	ImageNode:         "image",
	HTMLInlineNode:    "html_inline",
	CustomBlockNode:   "custom_block",
	CustomInlineNode:  "custom_inline",
}

var userTypeNames sync.Map

// RegisterNodeTypeName sets the name returned by String for a caller-defined kind.
// The XML renderer uses it as the element name.
func RegisterNodeTypeName(t NodeType, name string) {
	if t < FirstUserNodeType {
		panic("RegisterNodeTypeName called for a built-in NodeType")
	}
	userTypeNames.Store(t, name)
}

// String returns the snake_case name of the NodeType.
func (t NodeType) String() string {
	if t < FirstUserNodeType {
		return nodeTypeNames[t]
	}
	if name, ok := userTypeNames.Load(t); ok {
		return name.(string)
	}
	return "node_type_" + strconv.Itoa(int(t))
}

// ListType tells bullet lists from ordered ones.
type ListType int

const (
	NoList ListType = iota
	BulletList
	OrderedList
)

func (l ListType) String() string {
	switch l {
	case BulletList:
		return "bullet"
	case OrderedList:
		return "ordered"
	}
	return ""
}

// ListData is shared by list and item nodes.
type ListData struct {
	Type         ListType
	Tight        bool
	Start        int
	Delimiter    byte // '.' or ')' for ordered lists
	BulletChar   byte // '*', '+' or '-' for bullet lists
	MarkerOffset int
	Padding      int
}

// Node is an element of the document tree. Block nodes are built by the
// Parser, inline nodes by the InlineParser.
type Node struct {
	TreeNode
	Type NodeType

	// SourcePos is {{startLine, startColumn}, {endLine, endColumn}}, 1-based.
	SourcePos [2][2]int

	Literal     string
	Info        string
	Destination string
	Title       string
	Level       int
	ListData    ListData

	// Raw text accumulated by the block parser. It is released once the
	// node is finalized or inline parsed.
	Content []byte

	IsFenced      bool
	FenceChar     byte
	FenceLength   int
	FenceOffset   int
	HTMLBlockType int

	// Open is true until the block is finalized.
	Open bool

	LastLineBlank   bool
	lastLineChecked bool

	// OnEnter and OnExit are emitted verbatim by the renderers for custom nodes.
	OnEnter string
	OnExit  string

	CustomData any
}

// NewNode returns an open, detached node.
func NewNode(t NodeType, sourcePos [2][2]int) *Node {
	return &Node{
		Type:      t,
		SourcePos: sourcePos,
		Open:      true,
	}
}

func newInline(t NodeType) *Node {
	return &Node{Type: t, SourcePos: [2][2]int{{-1, -1}, {-1, -1}}, Open: true}
}

func newText(s string) *Node {
	n := newInline(TextNode)
	n.Literal = s
	return n
}

// IsContainer reports whether the node may own children according to the
// default TypeTable.
func (n *Node) IsContainer() bool {
	return defaultTypes.IsContainer(n)
}

// AppendChild detaches child from wherever it is and adds it as the last child of parent.
func (parent *Node) AppendChild(child *Node) {
	child.Unlink()
	child.Parent = parent
	last := parent.LastChild
	if last != nil {
		// The parent already has children, chain after the current last one
		last.NextSibling = child
		child.PrevSibling = last
	} else {
		parent.FirstChild = child
	}
	parent.LastChild = child
}

// PrependChild detaches child from wherever it is and adds it as the first child of parent.
func (parent *Node) PrependChild(child *Node) {
	child.Unlink()
	child.Parent = parent
	first := parent.FirstChild
	if first != nil {
		first.PrevSibling = child
		child.NextSibling = first
	} else {
		parent.LastChild = child
	}
	parent.FirstChild = child
}

// Unlink removes n from its parent and siblings. Afterwards n is the root
// of its own subtree.
func (n *Node) Unlink() {
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	} else if n.Parent != nil {
		n.Parent.FirstChild = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	} else if n.Parent != nil {
		n.Parent.LastChild = n.PrevSibling
	}

	// Make the node alone in the universe ...
	n.Parent = nil
	n.NextSibling = nil
	n.PrevSibling = nil
}

// InsertAfter detaches sibling and places it immediately after n.
func (n *Node) InsertAfter(sibling *Node) {
	if sibling == n {
		panic("InsertAfter called with the node itself")
	}
	sibling.Unlink()
	sibling.NextSibling = n.NextSibling
	if sibling.NextSibling != nil {
		sibling.NextSibling.PrevSibling = sibling
	}
	sibling.PrevSibling = n
	n.NextSibling = sibling
	sibling.Parent = n.Parent
	if sibling.Parent != nil && sibling.NextSibling == nil {
		sibling.Parent.LastChild = sibling
	}
}

// InsertBefore detaches sibling and places it immediately before n.
func (n *Node) InsertBefore(sibling *Node) {
	if sibling == n {
		panic("InsertBefore called with the node itself")
	}
	sibling.Unlink()
	sibling.PrevSibling = n.PrevSibling
	if sibling.PrevSibling != nil {
		sibling.PrevSibling.NextSibling = sibling
	}
	sibling.NextSibling = n
	n.PrevSibling = sibling
	sibling.Parent = n.Parent
	if sibling.Parent != nil && sibling.PrevSibling == nil {
		sibling.Parent.FirstChild = sibling
	}
}

// UnlinkRange unlinks the run of siblings from start to end, both included.
// A nil start means the first sibling of end, a nil end the last sibling of start.
// It panics if start and end do not share a parent or end does not follow start.
func UnlinkRange(start, end *Node) {
	if start == nil && end == nil {
		return
	}
	if start == end {
		start.Unlink()
		return
	}
	if start == nil {
		start = end
		for start.PrevSibling != nil {
			start = start.PrevSibling
		}
	}
	if end == nil {
		end = start
		for end.NextSibling != nil {
			end = end.NextSibling
		}
	}
	if start.Parent != end.Parent {
		panic("UnlinkRange called for nodes with different parents")
	}
	for current := start; current != end; current = current.NextSibling {
		if current == nil {
			panic("UnlinkRange called with end not after start")
		}
	}

	stop := end.NextSibling
	for current := start; current != nil && current != stop; {
		next := current.NextSibling
		current.Unlink()
		current = next
	}
}

// String returns an outline of the subtree rooted at n, for debugging.
// There is one line per node, indented two spaces per level.
func (n *Node) String() string {
	var buf bytes.Buffer
	depth := 0
	Walk(n, nil, func(node *Node, entering bool) WalkStatus {
		if !entering {
			depth--
			return WalkContinue
		}
		buf.Write(indent(2 * depth))
		buf.WriteString(node.describe())
		buf.WriteByte('\n')
		depth++
		return WalkContinue
	})
	return buf.String()
}

var aBigIndentationString = bytes.Repeat([]byte(" "), 200)

func indent(n int) []byte {
	if n > len(aBigIndentationString) {
		return bytes.Repeat([]byte(" "), n)
	}
	return aBigIndentationString[:n]
}

// describe returns the type, position and literal of n on one line.
func (n *Node) describe() string {
	buf := bytes.NewBufferString(n.Type.String())
	fmt.Fprintf(buf, " [%d:%d-%d:%d]", n.SourcePos[0][0], n.SourcePos[0][1], n.SourcePos[1][0], n.SourcePos[1][1])
	if len(n.Literal) > 0 {
		buf.WriteString(" ")
		buf.WriteString(strconv.Quote(n.Literal))
	}
	return buf.String()
}
