package cmark

import (
	"bytes"
	"regexp"
	"strings"
)

// ContinueStatus is the result of checking whether an open block continues
// on the current line.
type ContinueStatus int

const (
	// ContinueMatched means the block continues, keep descending.
	ContinueMatched ContinueStatus = iota
	// ContinueFailed means the block does not continue on this line.
	ContinueFailed
	// ContinueCompleted means the line was fully handled, like a closing code fence.
	ContinueCompleted
)

// BlockHandler is the behaviour of a block kind inside the Parser.
type BlockHandler interface {
	// Continue is called for each open block of this kind on every new line.
	Continue(p *Parser, block *Node) ContinueStatus
	// Finalize is called when the block is closed.
	Finalize(p *Parser, block *Node)
	// CanContain reports whether a block of kind t can be a child.
	CanContain(t NodeType) bool
	// AcceptsLines reports whether the rest of the line is added to Content.
	AcceptsLines() bool
}

var (
	reHTMLBlockClose = [...]*regexp.Regexp{
		nil,
		regexp.MustCompile(`(?i)</(?:script|pre|textarea|style)>`),
		regexp.MustCompile(`-->`),
		regexp.MustCompile(`\?>`),
		regexp.MustCompile(`>`),
		regexp.MustCompile(`\]\]>`),
	}
	reTrailingBlankLines = regexp.MustCompile(`(\n *)+$`)
)

func defaultBlockHandlers() map[NodeType]BlockHandler {
	return map[NodeType]BlockHandler{
		DocumentNode:      documentBlock{},
		ListNode:          listBlock{},
		BlockQuoteNode:    blockQuoteBlock{},
		ItemNode:          itemBlock{},
		HeadingNode:       singleLineBlock{},
		ThematicBreakNode: singleLineBlock{},
		CodeBlockNode:     codeBlock{},
		HTMLBlockNode:     htmlBlock{},
		ParagraphNode:     paragraphBlock{},
	}
}

// notItem is the containment rule of document, block quote and item.
type notItem struct{}

func (notItem) CanContain(t NodeType) bool { return t != ItemNode }
func (notItem) AcceptsLines() bool         { return false }

type documentBlock struct{ notItem }

func (documentBlock) Continue(*Parser, *Node) ContinueStatus { return ContinueMatched }
func (documentBlock) Finalize(*Parser, *Node)                {}

type listBlock struct{}

func (listBlock) Continue(*Parser, *Node) ContinueStatus { return ContinueMatched }
func (listBlock) CanContain(t NodeType) bool             { return t == ItemNode }
func (listBlock) AcceptsLines() bool                     { return false }

// Finalize decides whether the list is tight: it is loose when an item other
// than the last one, or a child of an item that is followed by something,
// ends with a blank line.
func (listBlock) Finalize(p *Parser, block *Node) {
	for item := block.FirstChild; item != nil; item = item.NextSibling {
		if endsWithBlankLine(item) && item.NextSibling != nil {
			block.ListData.Tight = false
			break
		}
		for sub := item.FirstChild; sub != nil; sub = sub.NextSibling {
			if endsWithBlankLine(sub) && (item.NextSibling != nil || sub.NextSibling != nil) {
				block.ListData.Tight = false
				break
			}
		}
	}
}

// endsWithBlankLine reports whether block ends with a blank line, descending
// into lists and items.
func endsWithBlankLine(block *Node) bool {
	for block != nil {
		if block.LastLineBlank {
			return true
		}
		t := block.Type
		if !block.lastLineChecked && (t == ListNode || t == ItemNode) {
			block.lastLineChecked = true
			block = block.LastChild
		} else {
			block.lastLineChecked = true
			break
		}
	}
	return false
}

type blockQuoteBlock struct{ notItem }

func (blockQuoteBlock) Continue(p *Parser, block *Node) ContinueStatus {
	ln := p.currentLine
	if p.indented || peek(ln, p.nextNonspace) != '>' {
		return ContinueFailed
	}
	p.AdvanceNextNonspace()
	p.AdvanceOffset(1, false)
	if isSpaceOrTab(peek(ln, p.offset)) {
		p.AdvanceOffset(1, true)
	}
	return ContinueMatched
}

func (blockQuoteBlock) Finalize(*Parser, *Node) {}

type itemBlock struct{ notItem }

func (itemBlock) Continue(p *Parser, block *Node) ContinueStatus {
	switch {
	case p.blank:
		if block.FirstChild == nil {
			// Blank line after an empty list item
			return ContinueFailed
		}
		p.AdvanceNextNonspace()
	case p.indent >= block.ListData.MarkerOffset+block.ListData.Padding:
		p.AdvanceOffset(block.ListData.MarkerOffset+block.ListData.Padding, true)
	default:
		return ContinueFailed
	}
	return ContinueMatched
}

func (itemBlock) Finalize(*Parser, *Node) {}

// singleLineBlock is used by headings and thematic breaks, which never span
// more than one line.
type singleLineBlock struct{}

func (singleLineBlock) Continue(*Parser, *Node) ContinueStatus { return ContinueFailed }
func (singleLineBlock) Finalize(*Parser, *Node)                {}
func (singleLineBlock) CanContain(NodeType) bool               { return false }
func (singleLineBlock) AcceptsLines() bool                     { return false }

type codeBlock struct{}

func (codeBlock) CanContain(NodeType) bool { return false }
func (codeBlock) AcceptsLines() bool       { return true }

func (codeBlock) Continue(p *Parser, block *Node) ContinueStatus {
	ln := p.currentLine
	indent := p.indent

	if !block.IsFenced {
		switch {
		case indent >= codeIndent:
			p.AdvanceOffset(codeIndent, true)
		case p.blank:
			p.AdvanceNextNonspace()
		default:
			return ContinueFailed
		}
		return ContinueMatched
	}

	if indent <= 3 && peek(ln, p.nextNonspace) == block.FenceChar {
		fenceLength := closingFenceLength(ln[p.nextNonspace:], block.FenceChar)
		if fenceLength >= block.FenceLength {
			// Closing fence, the line is complete
			p.lastLineLength = p.offset + indent + fenceLength
			p.Finalize(block, p.lineNumber)
			return ContinueCompleted
		}
	}

	// Skip the optional spaces of the fence offset
	for i := block.FenceOffset; i > 0 && isSpaceOrTab(peek(ln, p.offset)); i-- {
		p.AdvanceOffset(1, true)
	}
	return ContinueMatched
}

func (codeBlock) Finalize(p *Parser, block *Node) {
	if block.IsFenced {
		// The first line is the info string
		content := block.Content
		firstLine, rest := content, []byte(nil)
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			firstLine, rest = content[:i], content[i+1:]
		}
		block.Info = UnescapeString(strings.TrimSpace(string(firstLine)), p.inline.decodeEntity)
		block.Literal = string(rest)
	} else {
		block.Literal = reTrailingBlankLines.ReplaceAllString(string(block.Content), "\n")
	}
	block.Content = nil
}

// closingFenceLength returns the length of the run of fenceChar that starts s
// if it is at least 3 long and only followed by spaces or tabs, else 0.
func closingFenceLength(s string, fenceChar byte) int {
	n := 0
	for n < len(s) && s[n] == fenceChar {
		n++
	}
	if n < 3 {
		return 0
	}
	for i := n; i < len(s); i++ {
		if !isSpaceOrTab(s[i]) {
			return 0
		}
	}
	return n
}

type htmlBlock struct{}

func (htmlBlock) CanContain(NodeType) bool { return false }
func (htmlBlock) AcceptsLines() bool       { return true }

func (htmlBlock) Continue(p *Parser, block *Node) ContinueStatus {
	if p.blank && (block.HTMLBlockType == 6 || block.HTMLBlockType == 7) {
		return ContinueFailed
	}
	return ContinueMatched
}

func (htmlBlock) Finalize(p *Parser, block *Node) {
	block.Literal = reTrailingBlankLines.ReplaceAllString(string(block.Content), "")
	block.Content = nil
}

type paragraphBlock struct{}

func (paragraphBlock) CanContain(NodeType) bool { return false }
func (paragraphBlock) AcceptsLines() bool       { return true }

func (paragraphBlock) Continue(p *Parser, block *Node) ContinueStatus {
	if p.blank {
		return ContinueFailed
	}
	return ContinueMatched
}

// Finalize strips the link reference definitions at the start of the
// paragraph. A paragraph made only of definitions is removed.
func (paragraphBlock) Finalize(p *Parser, block *Node) {
	hasReferenceDefs := stripReferenceDefs(p, block)
	if hasReferenceDefs && isBlank(block.Content) {
		block.Unlink()
	}
}

// stripReferenceDefs removes and records the leading reference definitions
// of the block content.
func stripReferenceDefs(p *Parser, block *Node) bool {
	found := false
	for len(block.Content) > 0 && block.Content[0] == '[' {
		pos := p.ParseReference(block.Content)
		if pos == 0 {
			break
		}
		block.Content = block.Content[pos:]
		found = true
	}
	return found
}

// peek returns the byte at pos, or 0 past the end of s.
func peek(s string, pos int) byte {
	if pos < len(s) {
		return s[pos]
	}
	return 0
}
