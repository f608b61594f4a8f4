package cmark

import "unicode/utf8"

// delimiter is an entry of the stack of emphasis and quote delimiter runs.
type delimiter struct {
	cc         byte
	numDelims  int
	origDelims int
	node       *Node
	previous   *delimiter
	next       *delimiter
	canOpen    bool
	canClose   bool
}

// bracket is an entry of the stack of "[" and "![" openers.
type bracket struct {
	node              *Node
	previous          *bracket
	previousDelimiter *delimiter
	index             int
	image             bool
	active            bool
	bracketAfter      bool
}

// scanDelims measures the run of cc at the current position and decides,
// from the characters around it, whether it can open or close emphasis.
// The position is not changed.
func (p *InlineParser) scanDelims(cc byte) (numDelims int, canOpen, canClose bool) {
	startpos := p.pos

	if cc == '\'' || cc == '"' {
		numDelims = 1
	} else {
		for startpos+numDelims < len(p.subject) && p.subject[startpos+numDelims] == cc {
			numDelims++
		}
	}
	if numDelims == 0 {
		return 0, false, false
	}

	charBefore := '\n'
	if startpos > 0 {
		charBefore, _ = utf8.DecodeLastRuneInString(p.subject[:startpos])
	}
	charAfter := '\n'
	if after := startpos + numDelims; after < len(p.subject) {
		charAfter, _ = utf8.DecodeRuneInString(p.subject[after:])
	}

	afterIsWhitespace := isUnicodeWhitespace(charAfter)
	afterIsPunct := isUnicodePunct(charAfter)
	beforeIsWhitespace := isUnicodeWhitespace(charBefore)
	beforeIsPunct := isUnicodePunct(charBefore)

	leftFlanking := !afterIsWhitespace &&
		(!afterIsPunct || beforeIsWhitespace || beforeIsPunct)
	rightFlanking := !beforeIsWhitespace &&
		(!beforeIsPunct || afterIsWhitespace || afterIsPunct)

	switch cc {
	case '_':
		canOpen = leftFlanking && (!rightFlanking || beforeIsPunct)
		canClose = rightFlanking && (!leftFlanking || afterIsPunct)
	case '\'', '"':
		canOpen = leftFlanking && !rightFlanking
		canClose = rightFlanking
	default:
		canOpen = leftFlanking
		canClose = rightFlanking
	}
	return numDelims, canOpen, canClose
}

// handleDelim adds a delimiter run as a text node and pushes it on the
// delimiter stack when it may open or close.
func (p *InlineParser) handleDelim(cc byte, block *Node) bool {
	numDelims, canOpen, canClose := p.scanDelims(cc)
	if numDelims == 0 {
		return false
	}
	startpos := p.pos
	p.pos += numDelims

	var contents string
	switch cc {
	case '\'':
		contents = "\u2019"
	case '"':
		contents = "\u201C"
	default:
		contents = p.subject[startpos:p.pos]
	}
	node := p.AppendText(block, contents)

	if (canOpen || canClose) && (p.smart || (cc != '\'' && cc != '"')) {
		d := &delimiter{
			cc:         cc,
			numDelims:  numDelims,
			origDelims: numDelims,
			node:       node,
			previous:   p.delimiters,
			canOpen:    canOpen,
			canClose:   canClose,
		}
		if d.previous != nil {
			d.previous.next = d
		}
		p.delimiters = d
	}
	return true
}

func (p *InlineParser) removeDelimiter(d *delimiter) {
	if d.previous != nil {
		d.previous.next = d.next
	}
	if d.next == nil {
		// top of stack
		p.delimiters = d.previous
	} else {
		d.next.previous = d.previous
	}
}

func removeDelimitersBetween(bottom, top *delimiter) {
	if bottom.next != top {
		bottom.next = top
		top.previous = bottom
	}
}

// openersBottomIndex selects the memo of processEmphasis for a closer:
// quotes and underscore have one each, asterisks one per combination of
// openability and run length modulo 3.
func openersBottomIndex(closer *delimiter) int {
	switch closer.cc {
	case '\'':
		return 0
	case '"':
		return 1
	case '_':
		return 2
	}
	i := 3 + closer.origDelims%3
	if closer.canOpen {
		i += 3
	}
	return i
}

// processEmphasis matches the closers above stackBottom with their openers,
// building emph and strong nodes and curling quotes. Every delimiter above
// stackBottom is removed afterwards.
func (p *InlineParser) processEmphasis(stackBottom *delimiter) {
	var openersBottom [9]*delimiter
	for i := range openersBottom {
		openersBottom[i] = stackBottom
	}

	// Find the first closer above stackBottom
	closer := p.delimiters
	for closer != nil && closer.previous != stackBottom {
		closer = closer.previous
	}

	for closer != nil {
		if !closer.canClose {
			closer = closer.next
			continue
		}

		// Look back for the first matching opener
		bottomIndex := openersBottomIndex(closer)
		opener := closer.previous
		openerFound := false
		for opener != nil && opener != stackBottom && opener != openersBottom[bottomIndex] {
			oddMatch := (closer.canOpen || opener.canClose) &&
				closer.origDelims%3 != 0 &&
				(opener.origDelims+closer.origDelims)%3 == 0
			if opener.cc == closer.cc && opener.canOpen && !oddMatch {
				openerFound = true
				break
			}
			opener = opener.previous
		}
		oldCloser := closer

		switch closer.cc {
		case '*', '_':
			if !openerFound {
				closer = closer.next
				break
			}
			closer = p.matchEmphasis(opener, closer)
		case '\'':
			closer.node.Literal = "\u2019"
			if openerFound {
				opener.node.Literal = "\u2018"
			}
			closer = closer.next
		case '"':
			closer.node.Literal = "\u201D"
			if openerFound {
				opener.node.Literal = "\u201C"
			}
			closer = closer.next
		}

		if !openerFound {
			// Later searches for this kind of closer stop here
			openersBottom[bottomIndex] = oldCloser.previous
			if !oldCloser.canOpen {
				// A closer that cannot open is useless once unmatched
				p.removeDelimiter(oldCloser)
			}
		}
	}

	for p.delimiters != nil && p.delimiters != stackBottom {
		p.removeDelimiter(p.delimiters)
	}
}

// matchEmphasis wraps the inlines between opener and closer in an emph or
// strong node and returns the closer to examine next.
func (p *InlineParser) matchEmphasis(opener, closer *delimiter) *delimiter {
	useDelims := 1
	if closer.numDelims >= 2 && opener.numDelims >= 2 {
		useDelims = 2
	}

	openerInl := opener.node
	closerInl := closer.node

	opener.numDelims -= useDelims
	closer.numDelims -= useDelims
	openerInl.Literal = openerInl.Literal[:len(openerInl.Literal)-useDelims]
	closerInl.Literal = closerInl.Literal[:len(closerInl.Literal)-useDelims]

	t := EmphNode
	if useDelims == 2 {
		t = StrongNode
	}
	emph := newInline(t)

	for tmp := openerInl.NextSibling; tmp != nil && tmp != closerInl; {
		next := tmp.NextSibling
		emph.AppendChild(tmp)
		tmp = next
	}
	openerInl.InsertAfter(emph)

	removeDelimitersBetween(opener, closer)

	if opener.numDelims == 0 {
		openerInl.Unlink()
		p.removeDelimiter(opener)
	}

	if closer.numDelims == 0 {
		closerInl.Unlink()
		next := closer.next
		p.removeDelimiter(closer)
		return next
	}
	return closer
}
