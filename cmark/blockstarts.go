package cmark

import (
	"regexp"
	"strconv"
	"strings"
)

// StartStatus is the result of a block start function.
type StartStatus int

const (
	// StartNone means the line does not start a block of this kind.
	StartNone StartStatus = iota
	// StartContainer means a container block was opened, more starts may follow.
	StartContainer
	// StartLeaf means a leaf block was opened, the rest of the line is its content.
	StartLeaf
)

// BlockStartFunc tries to open a new block at the current position of p.
// container is the deepest block that matched so far.
type BlockStartFunc func(p *Parser, container *Node) StartStatus

// Priority slots of the built-in block starts. Functions registered at a slot
// run before the built-in start of that slot.
const (
	SlotBlockQuote = iota
	SlotATXHeading
	SlotFencedCode
	SlotHTMLBlock
	SlotSetextHeading
	SlotThematicBreak
	SlotListItem
	SlotIndentedCode
	SlotLowest
)

var defaultBlockStarts = [...]BlockStartFunc{
	SlotBlockQuote:    startBlockQuote,
	SlotATXHeading:    startATXHeading,
	SlotFencedCode:    startFencedCode,
	SlotHTMLBlock:     startHTMLBlock,
	SlotSetextHeading: startSetextHeading,
	SlotThematicBreak: startThematicBreak,
	SlotListItem:      startListItem,
	SlotIndentedCode:  startIndentedCode,
}

const blockTagNames = `address|article|aside|base|basefont|blockquote|body|caption|center|col|colgroup|` +
	`dd|details|dialog|dir|div|dl|dt|fieldset|figcaption|figure|footer|form|frame|frameset|` +
	`h[123456]|head|header|hr|html|iframe|legend|li|link|main|menu|menuitem|nav|noframes|` +
	`ol|optgroup|option|p|param|search|section|summary|table|tbody|td|tfoot|th|thead|title|tr|track|ul`

var (
	reHTMLBlockOpen = [...]*regexp.Regexp{
		nil,
		regexp.MustCompile(`(?i)^<(?:script|pre|textarea|style)(?:\s|>|$)`),
		regexp.MustCompile(`^<!--`),
		regexp.MustCompile(`^<[?]`),
		regexp.MustCompile(`^<![A-Za-z]`),
		regexp.MustCompile(`^<!\[CDATA\[`),
		regexp.MustCompile(`(?i)^<[/]?(?:` + blockTagNames + `)(?:\s|[/]?[>]|$)`),
		regexp.MustCompile(`(?i)^(?:` + openTagRe + `|` + closeTagRe + `)\s*$`),
	}

	reATXHeadingMarker   = regexp.MustCompile(`^#{1,6}(?:[ \t]+|$)`)
	reATXOpeningOnly     = regexp.MustCompile(`^[ \t]*#+[ \t]*$`)
	reATXClosingSequence = regexp.MustCompile(`[ \t]+#+[ \t]*$`)
	reSetextHeadingLine  = regexp.MustCompile(`^(?:=+|-+)[ \t]*$`)
	reThematicBreak      = regexp.MustCompile(`^(?:\*[ \t]*){3,}$|^(?:_[ \t]*){3,}$|^(?:-[ \t]*){3,}$`)
	reBulletListMarker   = regexp.MustCompile(`^[*+-]`)
	reOrderedListMarker  = regexp.MustCompile(`^(\d{1,9})([.)])`)
)

func startBlockQuote(p *Parser, container *Node) StartStatus {
	if p.indented || peek(p.currentLine, p.nextNonspace) != '>' {
		return StartNone
	}
	p.AdvanceNextNonspace()
	p.AdvanceOffset(1, false)
	// An optional space after '>'
	if isSpaceOrTab(peek(p.currentLine, p.offset)) {
		p.AdvanceOffset(1, true)
	}
	p.CloseUnmatchedBlocks()
	p.AddChild(BlockQuoteNode, p.nextNonspace)
	return StartContainer
}

func startATXHeading(p *Parser, container *Node) StartStatus {
	if p.indented {
		return StartNone
	}
	marker := reATXHeadingMarker.FindString(p.currentLine[p.nextNonspace:])
	if marker == "" {
		return StartNone
	}

	p.AdvanceNextNonspace()
	p.AdvanceOffset(len(marker), false)
	p.CloseUnmatchedBlocks()

	heading := p.AddChild(HeadingNode, p.nextNonspace)
	heading.Level = len(strings.TrimSpace(marker))

	// Remove the optional closing sequence
	text := reATXOpeningOnly.ReplaceAllString(p.rest(), "")
	text = reATXClosingSequence.ReplaceAllString(text, "")
	heading.Content = []byte(text)

	p.AdvanceOffset(len(p.currentLine)-p.offset, false)
	return StartLeaf
}

func startFencedCode(p *Parser, container *Node) StartStatus {
	if p.indented {
		return StartNone
	}
	fenceChar, fenceLength := openingFence(p.currentLine[p.nextNonspace:])
	if fenceLength == 0 {
		return StartNone
	}

	p.CloseUnmatchedBlocks()
	block := p.AddChild(CodeBlockNode, p.nextNonspace)
	block.IsFenced = true
	block.FenceLength = fenceLength
	block.FenceChar = fenceChar
	block.FenceOffset = p.indent

	p.AdvanceNextNonspace()
	p.AdvanceOffset(fenceLength, false)
	return StartLeaf
}

// openingFence recognizes a code fence at the start of s: at least three
// backticks not followed by another backtick on the line, or at least three
// tildes.
func openingFence(s string) (fenceChar byte, fenceLength int) {
	if len(s) == 0 || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	c := s[0]
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	if n < 3 {
		return 0, 0
	}
	if c == '`' && strings.IndexByte(s[n:], '`') >= 0 {
		return 0, 0
	}
	return c, n
}

func startHTMLBlock(p *Parser, container *Node) StartStatus {
	if p.indented || peek(p.currentLine, p.nextNonspace) != '<' {
		return StartNone
	}
	s := p.currentLine[p.nextNonspace:]

	for blockType := 1; blockType <= 7; blockType++ {
		if !reHTMLBlockOpen[blockType].MatchString(s) {
			continue
		}
		// Type 7 cannot interrupt a paragraph, lazy continuation included
		if blockType == 7 && (container.Type == ParagraphNode ||
			(!p.allClosed && !p.blank && p.tip.Type == ParagraphNode)) {
			continue
		}

		p.CloseUnmatchedBlocks()
		// The leading spaces are part of the content, the offset stays
		block := p.AddChild(HTMLBlockNode, p.offset)
		block.HTMLBlockType = blockType
		return StartLeaf
	}
	return StartNone
}

func startSetextHeading(p *Parser, container *Node) StartStatus {
	if p.indented || container.Type != ParagraphNode {
		return StartNone
	}
	marker := reSetextHeadingLine.FindString(p.currentLine[p.nextNonspace:])
	if marker == "" {
		return StartNone
	}

	p.CloseUnmatchedBlocks()
	stripReferenceDefs(p, container)
	if len(container.Content) == 0 {
		return StartNone
	}

	heading := NewNode(HeadingNode, container.SourcePos)
	heading.Level = 2
	if marker[0] == '=' {
		heading.Level = 1
	}
	heading.Content = container.Content
	container.InsertAfter(heading)
	container.Unlink()
	p.tip = heading

	p.AdvanceOffset(len(p.currentLine)-p.offset, false)
	return StartLeaf
}

func startThematicBreak(p *Parser, container *Node) StartStatus {
	if p.indented || !reThematicBreak.MatchString(p.currentLine[p.nextNonspace:]) {
		return StartNone
	}
	p.CloseUnmatchedBlocks()
	p.AddChild(ThematicBreakNode, p.nextNonspace)
	p.AdvanceOffset(len(p.currentLine)-p.offset, false)
	return StartLeaf
}

func startListItem(p *Parser, container *Node) StartStatus {
	if p.indented && container.Type != ListNode {
		return StartNone
	}
	data, ok := parseListMarker(p, container)
	if !ok {
		return StartNone
	}

	p.CloseUnmatchedBlocks()

	// A new list starts unless the item continues the current one
	if p.tip.Type != ListNode || !listsMatch(container.ListData, data) {
		list := p.AddChild(ListNode, p.nextNonspace)
		list.ListData = data
	}

	item := p.AddChild(ItemNode, p.nextNonspace)
	item.ListData = data
	return StartContainer
}

// parseListMarker parses a list marker at the current position and advances
// past it and the spaces that follow.
func parseListMarker(p *Parser, container *Node) (ListData, bool) {
	if p.indent >= codeIndent {
		return ListData{}, false
	}

	ln := p.currentLine
	rest := ln[p.nextNonspace:]
	data := ListData{
		Tight:        true,
		MarkerOffset: p.indent,
	}

	var marker string
	if m := reBulletListMarker.FindString(rest); m != "" {
		marker = m
		data.Type = BulletList
		data.BulletChar = m[0]
	} else if m := reOrderedListMarker.FindStringSubmatch(rest); m != nil {
		start, _ := strconv.Atoi(m[1])
		// Only a list starting at 1 can interrupt a paragraph
		if container.Type == ParagraphNode && start != 1 {
			return ListData{}, false
		}
		marker = m[0]
		data.Type = OrderedList
		data.Start = start
		data.Delimiter = m[2][0]
	} else {
		return ListData{}, false
	}

	// The marker must be followed by a space, a tab or the end of the line
	after := p.nextNonspace + len(marker)
	if after < len(ln) && !isSpaceOrTab(ln[after]) {
		return ListData{}, false
	}

	// An empty item cannot interrupt a paragraph
	if container.Type == ParagraphNode && isBlank([]byte(ln[after:])) {
		return ListData{}, false
	}

	p.AdvanceNextNonspace()
	p.AdvanceOffset(len(marker), true)
	spacesStartCol := p.column
	spacesStartOffset := p.offset

	for {
		p.AdvanceOffset(1, true)
		if p.column-spacesStartCol >= 5 || !isSpaceOrTab(peek(ln, p.offset)) {
			break
		}
	}

	blankItem := p.offset >= len(ln)
	spacesAfterMarker := p.column - spacesStartCol

	if spacesAfterMarker >= 5 || spacesAfterMarker < 1 || blankItem {
		// Content indented too much or missing: the padding is one space
		data.Padding = len(marker) + 1
		p.column = spacesStartCol
		p.offset = spacesStartOffset
		if isSpaceOrTab(peek(ln, p.offset)) {
			p.AdvanceOffset(1, true)
		}
	} else {
		data.Padding = len(marker) + spacesAfterMarker
	}
	return data, true
}

// listsMatch reports whether an item with data b belongs to a list with data a.
func listsMatch(a, b ListData) bool {
	return a.Type == b.Type && a.Delimiter == b.Delimiter && a.BulletChar == b.BulletChar
}

func startIndentedCode(p *Parser, container *Node) StartStatus {
	if !p.indented || p.tip.Type == ParagraphNode || p.blank {
		return StartNone
	}
	p.AdvanceOffset(codeIndent, true)
	p.CloseUnmatchedBlocks()
	p.AddChild(CodeBlockNode, p.offset)
	return StartLeaf
}
