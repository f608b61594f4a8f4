package cmark

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hesusruiz/cmark/sliceedit"
	"go.uber.org/zap"
)

const codeIndent = 4

var (
	reLineEnding   = regexp.MustCompile(`\r\n|\n|\r`)
	reMaybeSpecial = regexp.MustCompile("^[#`~*+_=<>0-9-]")
)

// Options configure a Parser. The zero value parses standard CommonMark.
type Options struct {
	// Smart converts straight quotes to curly ones, "--" and "---" to dashes
	// and "..." to an ellipsis.
	Smart bool

	// Types describes the node kinds. Nil means DefaultTypes.
	Types *TypeTable

	// BlockHandlers adds or replaces the behaviour of block kinds.
	BlockHandlers map[NodeType]BlockHandler

	// BlockStarts registers extra block start functions by priority slot.
	// At each slot they run before the built-in start of the same slot.
	BlockStarts map[int][]BlockStartFunc

	// InlineHandlers registers inline parsing functions triggered by a rune.
	InlineHandlers map[rune]InlineHandler

	// DecodeEntity and NormalizeURI replace the default collaborators.
	DecodeEntity func(string) string
	NormalizeURI func(string) string

	// MaybeSpecial is a fast path test on the rest of the line: when it does not
	// match, no block start is tried. Nil means the built-in test, which is
	// turned off when BlockStarts is set.
	MaybeSpecial *regexp.Regexp

	Logger *zap.SugaredLogger
}

// Parser converts CommonMark text into a tree of Nodes. A Parser is not safe
// for concurrent use, but it can be reused for several documents.
type Parser struct {
	types        *TypeTable
	blocks       map[NodeType]BlockHandler
	blockStarts  []BlockStartFunc
	inline       *InlineParser
	maybeSpecial *regexp.Regexp
	log          *zap.SugaredLogger

	doc                  *Node
	tip                  *Node
	oldTip               *Node
	lastMatchedContainer *Node
	refmap               RefMap

	currentLine          string
	lineNumber           int
	offset               int
	column               int
	nextNonspace         int
	nextNonspaceColumn   int
	indent               int
	indented             bool
	blank                bool
	partiallyConsumedTab bool
	allClosed            bool
	lastLineLength       int
}

// NewParser returns a parser configured with opts.
func NewParser(opts Options) *Parser {
	p := &Parser{
		types: opts.Types,
		log:   opts.Logger,
	}
	if p.types == nil {
		p.types = DefaultTypes()
	}
	if p.log == nil {
		p.log = zap.NewNop().Sugar()
	}

	p.blocks = defaultBlockHandlers()
	for t, h := range opts.BlockHandlers {
		p.blocks[t] = h
	}

	p.blockStarts = mergeBlockStarts(opts.BlockStarts)

	switch {
	case opts.MaybeSpecial != nil:
		p.maybeSpecial = opts.MaybeSpecial
	case len(opts.BlockStarts) == 0:
		p.maybeSpecial = reMaybeSpecial
	}

	p.inline = newInlineParser(opts)
	p.Reset()
	return p
}

// mergeBlockStarts builds the ordered list of block start functions. Slots are
// visited in ascending order, custom functions first, then the built-in one.
func mergeBlockStarts(custom map[int][]BlockStartFunc) []BlockStartFunc {
	if len(custom) == 0 {
		return append([]BlockStartFunc(nil), defaultBlockStarts[:]...)
	}

	slots := make([]int, 0, len(custom)+len(defaultBlockStarts))
	seen := map[int]bool{}
	for i := range defaultBlockStarts {
		slots = append(slots, i)
		seen[i] = true
	}
	for slot := range custom {
		if !seen[slot] {
			slots = append(slots, slot)
		}
	}
	sort.Ints(slots)

	var starts []BlockStartFunc
	for _, slot := range slots {
		starts = append(starts, custom[slot]...)
		if slot >= 0 && slot < len(defaultBlockStarts) {
			starts = append(starts, defaultBlockStarts[slot])
		}
	}
	return starts
}

// Reset discards the state of the previous parse.
func (p *Parser) Reset() {
	p.doc = NewNode(DocumentNode, [2][2]int{{1, 1}, {0, 0}})
	p.tip = p.doc
	p.oldTip = p.doc
	p.lastMatchedContainer = p.doc
	p.refmap = RefMap{}
	p.currentLine = ""
	p.lineNumber = 0
	p.offset = 0
	p.column = 0
	p.lastLineLength = 0
	p.allClosed = true
}

// Parse converts input into a document tree. It never fails: malformed
// constructs end up as literal text.
func (p *Parser) Parse(input []byte) *Node {
	start := time.Now()
	p.Reset()

	// NUL is not allowed in the output
	if bytes.IndexByte(input, 0) >= 0 {
		input = sliceedit.ReplaceAll(input, "\x00", "\uFFFD")
	}

	lines := reLineEnding.Split(string(input), -1)
	numLines := len(lines)
	if len(input) > 0 && input[len(input)-1] == '\n' {
		// The final newline does not start an extra line
		numLines--
	}

	for i := 0; i < numLines; i++ {
		p.incorporateLine(lines[i])
	}
	for p.tip != nil {
		p.Finalize(p.tip, numLines)
	}
	blockPhase := time.Since(start)

	p.processInlines(p.doc)

	p.log.Debugw("document parsed",
		"lines", numLines,
		"references", len(p.refmap),
		"blockPhase", blockPhase,
		"total", time.Since(start),
	)
	return p.doc
}

// ParseString is Parse for a string input.
func (p *Parser) ParseString(input string) *Node {
	return p.Parse([]byte(input))
}

// RefMap returns the link reference definitions found by the last parse.
func (p *Parser) RefMap() RefMap {
	return p.refmap
}

func (p *Parser) handler(t NodeType) BlockHandler {
	return p.blocks[t]
}

func (p *Parser) acceptsLines(t NodeType) bool {
	h := p.handler(t)
	return h != nil && h.AcceptsLines()
}

// incorporateLine analyzes one line of input and updates the document.
func (p *Parser) incorporateLine(ln string) {
	container := p.doc
	p.oldTip = p.tip
	p.offset = 0
	p.column = 0
	p.blank = false
	p.partiallyConsumedTab = false
	p.lineNumber++
	p.currentLine = ln

	// Try to continue every open block, from the root down.
	// On failure container is the last block that matched.
	for container.LastChild != nil && container.LastChild.Open {
		container = container.LastChild

		p.findNextNonspace()

		status := ContinueFailed
		if h := p.handler(container.Type); h != nil {
			status = h.Continue(p, container)
		}
		if status == ContinueCompleted {
			// A closing code fence consumed the whole line
			return
		}
		if status == ContinueFailed {
			container = container.Parent
			break
		}
	}

	p.allClosed = container == p.oldTip
	p.lastMatchedContainer = container

	matchedLeaf := container.Type != ParagraphNode && p.acceptsLines(container.Type)

	// Unless the last matched container takes whole lines, look for new
	// block starts below it
	for !matchedLeaf {
		p.findNextNonspace()

		if !p.indented && p.maybeSpecial != nil && !p.maybeSpecial.MatchString(ln[p.nextNonspace:]) {
			p.AdvanceNextNonspace()
			break
		}

		matched := false
		for _, start := range p.blockStarts {
			switch start(p, container) {
			case StartContainer:
				container = p.tip
				matched = true
			case StartLeaf:
				container = p.tip
				matchedLeaf = true
				matched = true
			}
			if matched {
				break
			}
		}

		if !matched {
			p.AdvanceNextNonspace()
			break
		}
	}

	// What remains at the offset is text for the right container.

	if !p.allClosed && !p.blank && p.tip.Type == ParagraphNode {
		// Lazy paragraph continuation
		p.addLine()
		p.lastLineLength = len(ln)
		return
	}

	p.CloseUnmatchedBlocks()
	if p.blank && container.LastChild != nil {
		container.LastChild.LastLineBlank = true
	}

	t := container.Type

	// Block quote lines are never blank as they start with '>', blank lines in
	// fenced code do not count for tight lists, and neither does the first line
	// of an empty list item.
	lastLineBlank := p.blank &&
		!(t == BlockQuoteNode ||
			(p.types.IsCodeBlock(t) && container.IsFenced) ||
			(t == ItemNode && container.FirstChild == nil && container.SourcePos[0][0] == p.lineNumber))

	for cont := container; cont != nil; cont = cont.Parent {
		cont.LastLineBlank = lastLineBlank
	}

	switch {
	case p.acceptsLines(t):
		p.addLine()
		if t == HTMLBlockNode && container.HTMLBlockType >= 1 && container.HTMLBlockType <= 5 &&
			reHTMLBlockClose[container.HTMLBlockType].MatchString(p.rest()) {
			p.lastLineLength = len(ln)
			p.Finalize(container, p.lineNumber)
		}
	case p.offset < len(ln) && !p.blank:
		p.AddChild(ParagraphNode, p.offset)
		p.AdvanceNextNonspace()
		p.addLine()
	}

	p.lastLineLength = len(ln)
}

// rest returns the line from the current offset.
func (p *Parser) rest() string {
	if p.offset >= len(p.currentLine) {
		return ""
	}
	return p.currentLine[p.offset:]
}

// addLine appends the rest of the line to the tip, which must accept lines.
func (p *Parser) addLine() {
	if p.partiallyConsumedTab {
		p.offset++ // skip over the tab
		charsToTab := 4 - p.column%4
		p.tip.Content = append(p.tip.Content, strings.Repeat(" ", charsToTab)...)
	}
	p.tip.Content = append(p.tip.Content, p.rest()...)
	p.tip.Content = append(p.tip.Content, '\n')
}

// AddChild adds a block of kind t as a child of the tip. Blocks that cannot
// contain it are finalized first.
func (p *Parser) AddChild(t NodeType, offset int) *Node {
	for {
		h := p.handler(p.tip.Type)
		if h != nil && h.CanContain(t) {
			break
		}
		p.Finalize(p.tip, p.lineNumber-1)
	}

	// offset 0 is column 1
	newBlock := NewNode(t, [2][2]int{{p.lineNumber, offset + 1}, {0, 0}})
	newBlock.Content = []byte{}
	p.tip.AppendChild(newBlock)
	p.tip = newBlock
	return newBlock
}

// CloseUnmatchedBlocks finalizes the blocks that did not match the current line.
func (p *Parser) CloseUnmatchedBlocks() {
	if p.allClosed {
		return
	}
	for p.oldTip != p.lastMatchedContainer {
		parent := p.oldTip.Parent
		p.Finalize(p.oldTip, p.lineNumber-1)
		p.oldTip = parent
	}
	p.allClosed = true
}

// Finalize closes block, sets its end position and runs its kind's
// finalization. The tip moves to the parent of block.
func (p *Parser) Finalize(block *Node, lineNumber int) {
	above := block.Parent
	block.Open = false
	block.SourcePos[1] = [2]int{lineNumber, p.lastLineLength}

	if h := p.handler(block.Type); h != nil {
		h.Finalize(p, block)
	}

	p.tip = above
}

// AdvanceOffset moves forward count bytes, or count columns when columns is
// true, expanding tabs to the next multiple of 4.
func (p *Parser) AdvanceOffset(count int, columns bool) {
	ln := p.currentLine
	for count > 0 && p.offset < len(ln) {
		if ln[p.offset] == '\t' {
			charsToTab := 4 - p.column%4
			if columns {
				p.partiallyConsumedTab = charsToTab > count
				charsToAdvance := charsToTab
				if charsToTab > count {
					charsToAdvance = count
				}
				p.column += charsToAdvance
				if !p.partiallyConsumedTab {
					p.offset++
				}
				count -= charsToAdvance
			} else {
				p.partiallyConsumedTab = false
				p.column += charsToTab
				p.offset++
				count--
			}
		} else {
			p.partiallyConsumedTab = false
			p.offset++
			p.column++ // block starts are ASCII
			count--
		}
	}
}

// AdvanceNextNonspace moves the offset to the first non-space character.
func (p *Parser) AdvanceNextNonspace() {
	p.offset = p.nextNonspace
	p.column = p.nextNonspaceColumn
	p.partiallyConsumedTab = false
}

func (p *Parser) findNextNonspace() {
	ln := p.currentLine
	i := p.offset
	cols := p.column

	for i < len(ln) {
		c := ln[i]
		if c == ' ' {
			i++
			cols++
		} else if c == '\t' {
			i++
			cols += 4 - cols%4
		} else {
			break
		}
	}

	p.blank = i >= len(ln) || ln[i] == '\n' || ln[i] == '\r'
	p.nextNonspace = i
	p.nextNonspaceColumn = cols
	p.indent = p.nextNonspaceColumn - p.column
	p.indented = p.indent >= codeIndent
}

// Scratch state for custom block handlers.

func (p *Parser) Line() string { return p.currentLine }
func (p *Parser) LineNumber() int { return p.lineNumber }
func (p *Parser) Offset() int { return p.offset }
func (p *Parser) Column() int { return p.column }
func (p *Parser) NextNonspace() int { return p.nextNonspace }
func (p *Parser) Indent() int { return p.indent }
func (p *Parser) Indented() bool { return p.indented }
func (p *Parser) Blank() bool { return p.blank }
func (p *Parser) AllClosed() bool { return p.allClosed }
func (p *Parser) Tip() *Node { return p.tip }
func (p *Parser) SetTip(n *Node) { p.tip = n }
func (p *Parser) Document() *Node { return p.doc }
func (p *Parser) Types() *TypeTable { return p.types }
func (p *Parser) Log() *zap.SugaredLogger { return p.log }

// SetLastLineLength sets the end column recorded by the next Finalize.
func (p *Parser) SetLastLineLength(n int) { p.lastLineLength = n }

// ParseReference parses a link reference definition at the start of content,
// records it and returns the number of bytes consumed, or 0.
func (p *Parser) ParseReference(content []byte) int {
	return p.inline.ParseReference(string(content), p.refmap)
}

// processInlines runs the inline parser over every node that needs it.
func (p *Parser) processInlines(root *Node) {
	p.inline.refmap = p.refmap
	w := NewWalker(root, p.types)
	for node, entering := w.Next(); node != nil; node, entering = w.Next() {
		if entering || !p.types.NeedsInlineParse(node.Type) {
			continue
		}
		p.inline.Parse(node)
		if node == root {
			break
		}

		// Inline handlers may have added siblings after node, so continue
		// from its links as they are now.
		if node.NextSibling != nil {
			w.ResumeAt(node.NextSibling, true)
		} else {
			w.ResumeAt(node.Parent, false)
		}
	}
}
